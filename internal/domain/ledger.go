package domain

// LedgerRecord is the part of a ledger header the collector needs.
type LedgerRecord struct {
	Sequence uint32
	// CloseTime in unix seconds.
	CloseTime int64
}

// TransactionRecord is a decoded transaction with the ledger it closed in.
type TransactionRecord struct {
	LedgerSeq     uint32
	Hash          string
	SourceAccount string
	// MemoText is nil unless the transaction carries a text memo.
	MemoText   *string
	Operations []Operation
}

// CloseTimes indexes ledger close times by sequence.
func CloseTimes(ledgers []LedgerRecord) map[uint32]int64 {
	m := make(map[uint32]int64, len(ledgers))
	for _, l := range ledgers {
		m[l.Sequence] = l.CloseTime
	}

	return m
}
