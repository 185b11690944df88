package decoder_test

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/historycollector/internal/adapter/decoder"
	"github.com/iho/historycollector/internal/domain"
)

type marshaler interface {
	MarshalBinary() ([]byte, error)
}

// archiveFile renders values the way history archives store them:
// record-marked XDR frames, gzipped.
func archiveFile(t *testing.T, values ...marshaler) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	for _, v := range values {
		body, err := v.MarshalBinary()
		require.NoError(t, err)

		var mark [4]byte
		binary.BigEndian.PutUint32(mark[:], uint32(len(body))|0x80000000)
		_, err = zw.Write(mark[:])
		require.NoError(t, err)
		_, err = zw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func ledgerEntry(seq uint32, closeTime uint64) *xdr.LedgerHeaderHistoryEntry {
	return &xdr.LedgerHeaderHistoryEntry{
		Header: xdr.LedgerHeader{
			LedgerSeq: xdr.Uint32(seq),
			ScpValue:  xdr.StellarValue{CloseTime: xdr.TimePoint(closeTime)},
		},
	}
}

type accounts struct {
	issuer, txSource, opSource, dest string
}

func newAccounts() accounts {
	return accounts{
		issuer:   keypair.MustRandom().Address(),
		txSource: keypair.MustRandom().Address(),
		opSource: keypair.MustRandom().Address(),
		dest:     keypair.MustRandom().Address(),
	}
}

func envelope(source string, memo *string, ops ...xdr.Operation) xdr.TransactionEnvelope {
	m := xdr.Memo{Type: xdr.MemoTypeMemoNone}
	if memo != nil {
		m = xdr.Memo{Type: xdr.MemoTypeMemoText, Text: memo}
	}

	return xdr.TransactionEnvelope{
		Type: xdr.EnvelopeTypeEnvelopeTypeTx,
		V1: &xdr.TransactionV1Envelope{
			Tx: xdr.Transaction{
				SourceAccount: xdr.MustMuxedAddress(source),
				Fee:           100,
				SeqNum:        1,
				Cond:          xdr.Preconditions{Type: xdr.PreconditionTypePrecondNone},
				Memo:          m,
				Operations:    ops,
			},
		},
	}
}

func paymentOp(dest string, asset xdr.Asset, amount int64) xdr.Operation {
	return xdr.Operation{
		Body: xdr.OperationBody{
			Type: xdr.OperationTypePayment,
			PaymentOp: &xdr.PaymentOp{
				Destination: xdr.MustMuxedAddress(dest),
				Asset:       asset,
				Amount:      xdr.Int64(amount),
			},
		},
	}
}

func changeTrustOp(source string, asset xdr.Asset) xdr.Operation {
	src := xdr.MustMuxedAddress(source)
	return xdr.Operation{
		SourceAccount: &src,
		Body: xdr.OperationBody{
			Type: xdr.OperationTypeChangeTrust,
			ChangeTrustOp: &xdr.ChangeTrustOp{
				Line:  asset.ToChangeTrustAsset(),
				Limit: xdr.Int64(1_000_000_0000000),
			},
		},
	}
}

func TestDecoder_DecodeLedgers(t *testing.T) {
	data := archiveFile(t, ledgerEntry(100, 1000), ledgerEntry(101, 1005))

	ledgers, err := decoder.NewDecoder().DecodeLedgers(bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, []domain.LedgerRecord{
		{Sequence: 100, CloseTime: 1000},
		{Sequence: 101, CloseTime: 1005},
	}, ledgers)
}

func TestDecoder_DecodeTransactions(t *testing.T) {
	acc := newAccounts()
	kin := xdr.MustNewCreditAsset("KIN", acc.issuer)
	memo := "hello"

	tx := envelope(acc.txSource, &memo,
		paymentOp(acc.dest, kin, 5_0000000),
		changeTrustOp(acc.opSource, kin),
		paymentOp(acc.dest, xdr.MustNewNativeAsset(), 1),
	)
	entry := &xdr.TransactionHistoryEntry{
		LedgerSeq: 100,
		TxSet:     xdr.TransactionSet{Txs: []xdr.TransactionEnvelope{tx}},
	}

	txs, err := decoder.NewDecoder().DecodeTransactions(bytes.NewReader(archiveFile(t, entry)), network.TestNetworkPassphrase)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	hash, err := network.HashTransactionInEnvelope(tx, network.TestNetworkPassphrase)
	require.NoError(t, err)

	got := txs[0]
	assert.Equal(t, uint32(100), got.LedgerSeq)
	assert.Equal(t, xdr.Hash(hash).HexString(), got.Hash)
	assert.Equal(t, acc.txSource, got.SourceAccount)
	require.NotNil(t, got.MemoText)
	assert.Equal(t, "hello", *got.MemoText)

	wantAsset := domain.Asset{Code: "KIN", Issuer: acc.issuer, Type: domain.AssetTypeAlphaNum4}
	require.Len(t, got.Operations, 3)
	assert.Equal(t, domain.PaymentOp{Asset: wantAsset, Destination: acc.dest, Amount: 5_0000000}, got.Operations[0])
	assert.Equal(t, domain.TrustChangeOp{Asset: wantAsset, SourceOverride: acc.opSource}, got.Operations[1])
	assert.Equal(t, domain.AssetTypeNative, got.Operations[2].(domain.PaymentOp).Asset.Type)
}

func TestDecoder_GeneralizedTxSet(t *testing.T) {
	acc := newAccounts()
	long := xdr.MustNewCreditAsset("KINLONGCODE", acc.issuer)
	tx := envelope(acc.txSource, nil, paymentOp(acc.dest, long, 7))

	components := []xdr.TxSetComponent{{
		Type:                  xdr.TxSetComponentTypeTxsetCompTxsMaybeDiscountedFee,
		TxsMaybeDiscountedFee: &xdr.TxSetComponentTxsMaybeDiscountedFee{Txs: []xdr.TransactionEnvelope{tx}},
	}}
	entry := &xdr.TransactionHistoryEntry{
		LedgerSeq: 200,
		Ext: xdr.TransactionHistoryEntryExt{
			V: 1,
			GeneralizedTxSet: &xdr.GeneralizedTransactionSet{
				V: 1,
				V1TxSet: &xdr.TransactionSetV1{
					Phases: []xdr.TransactionPhase{{V: 0, V0Components: &components}},
				},
			},
		},
	}

	txs, err := decoder.NewDecoder().DecodeTransactions(bytes.NewReader(archiveFile(t, entry)), network.PublicNetworkPassphrase)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, uint32(200), txs[0].LedgerSeq)
	assert.Nil(t, txs[0].MemoText)
	op := txs[0].Operations[0].(domain.PaymentOp)
	assert.Equal(t, domain.AssetTypeAlphaNum12, op.Asset.Type)
	assert.Equal(t, "KINLONGCODE", op.Asset.Code)
}

func TestDecoder_GeneralizedTxSetPhases(t *testing.T) {
	acc := newAccounts()
	kin := xdr.MustNewCreditAsset("KIN", acc.issuer)
	first := envelope(acc.txSource, nil, paymentOp(acc.dest, kin, 1))
	second := envelope(acc.txSource, nil, paymentOp(acc.dest, kin, 2))
	third := envelope(acc.txSource, nil, paymentOp(acc.dest, kin, 3))

	component := func(txs ...xdr.TransactionEnvelope) xdr.TxSetComponent {
		return xdr.TxSetComponent{
			Type:                  xdr.TxSetComponentTypeTxsetCompTxsMaybeDiscountedFee,
			TxsMaybeDiscountedFee: &xdr.TxSetComponentTxsMaybeDiscountedFee{Txs: txs},
		}
	}
	classic := []xdr.TxSetComponent{component(first), component(second)}
	soroban := []xdr.TxSetComponent{component(third)}

	entry := &xdr.TransactionHistoryEntry{
		LedgerSeq: 300,
		Ext: xdr.TransactionHistoryEntryExt{
			V: 1,
			GeneralizedTxSet: &xdr.GeneralizedTransactionSet{
				V: 1,
				V1TxSet: &xdr.TransactionSetV1{
					Phases: []xdr.TransactionPhase{
						{V: 0, V0Components: &classic},
						{V: 0, V0Components: &soroban},
					},
				},
			},
		},
	}

	txs, err := decoder.NewDecoder().DecodeTransactions(bytes.NewReader(archiveFile(t, entry)), network.PublicNetworkPassphrase)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	for i, tx := range txs {
		assert.Equal(t, uint32(300), tx.LedgerSeq)
		assert.Equal(t, int64(i+1), tx.Operations[0].(domain.PaymentOp).Amount)
	}
}

func TestDecoder_BinaryMemo(t *testing.T) {
	acc := newAccounts()
	memo := "pay\xff\xfe\x00id"
	tx := envelope(acc.txSource, &memo, paymentOp(acc.dest, xdr.MustNewNativeAsset(), 1))
	entry := &xdr.TransactionHistoryEntry{
		LedgerSeq: 100,
		TxSet:     xdr.TransactionSet{Txs: []xdr.TransactionEnvelope{tx}},
	}

	txs, err := decoder.NewDecoder().DecodeTransactions(bytes.NewReader(archiveFile(t, entry)), network.TestNetworkPassphrase)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].MemoText)
	assert.Equal(t, memo, *txs[0].MemoText)
}

func TestDecoder_EmptyFile(t *testing.T) {
	ledgers, err := decoder.NewDecoder().DecodeLedgers(bytes.NewReader(archiveFile(t)))
	require.NoError(t, err)
	assert.Empty(t, ledgers)
}

func TestDecoder_Garbage(t *testing.T) {
	_, err := decoder.NewDecoder().DecodeLedgers(bytes.NewReader([]byte("not gzip at all")))
	assert.ErrorIs(t, err, domain.ErrDecode)
}
