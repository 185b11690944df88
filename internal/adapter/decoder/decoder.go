// Package decoder decodes history archive files with the stellar/go XDR
// bindings.
package decoder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stellar/go/network"
	"github.com/stellar/go/xdr"

	"github.com/iho/historycollector/internal/domain"
)

// Decoder implements usecase.ArchiveDecoder for gzipped, record-marked
// XDR streams as published in history archives.
type Decoder struct{}

// NewDecoder creates a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeLedgers reads every LedgerHeaderHistoryEntry in r.
func (d *Decoder) DecodeLedgers(r io.Reader) ([]domain.LedgerRecord, error) {
	var ledgers []domain.LedgerRecord

	err := readAll(r, func(stream *xdr.Stream) error {
		var entry xdr.LedgerHeaderHistoryEntry
		if err := stream.ReadOne(&entry); err != nil {
			return err
		}

		ledgers = append(ledgers, domain.LedgerRecord{
			Sequence:  uint32(entry.Header.LedgerSeq),
			CloseTime: int64(entry.Header.ScpValue.CloseTime),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ledgers, nil
}

// DecodeTransactions reads every TransactionHistoryEntry in r and flattens
// the transaction sets into records. Hashes are computed for
// networkPassphrase.
func (d *Decoder) DecodeTransactions(r io.Reader, networkPassphrase string) ([]domain.TransactionRecord, error) {
	var txs []domain.TransactionRecord

	err := readAll(r, func(stream *xdr.Stream) error {
		var entry xdr.TransactionHistoryEntry
		if err := stream.ReadOne(&entry); err != nil {
			return err
		}

		for _, env := range envelopes(entry) {
			record, err := transactionRecord(uint32(entry.LedgerSeq), env, networkPassphrase)
			if err != nil {
				return fmt.Errorf("%w: ledger %d: %w", domain.ErrDecode, entry.LedgerSeq, err)
			}
			txs = append(txs, record)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func readAll(r io.Reader, readOne func(*xdr.Stream) error) error {
	stream, err := xdr.NewGzStream(io.NopCloser(r))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	defer stream.Close()

	for {
		err := readOne(stream)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, domain.ErrDecode):
			return err
		default:
			return fmt.Errorf("%w: %w", domain.ErrDecode, err)
		}
	}
}

// envelopes returns the transactions of entry in archive order, for both
// the classic and the generalized transaction set.
func envelopes(entry xdr.TransactionHistoryEntry) []xdr.TransactionEnvelope {
	set, ok := entry.Ext.GetGeneralizedTxSet()
	if !ok {
		return entry.TxSet.Txs
	}

	v1, ok := set.GetV1TxSet()
	if !ok {
		return nil
	}

	var out []xdr.TransactionEnvelope
	for _, phase := range v1.Phases {
		components, ok := phase.GetV0Components()
		if !ok {
			continue
		}
		for _, component := range components {
			if txs, ok := component.GetTxsMaybeDiscountedFee(); ok {
				out = append(out, txs.Txs...)
			}
		}
	}

	return out
}

func transactionRecord(ledgerSeq uint32, env xdr.TransactionEnvelope, networkPassphrase string) (domain.TransactionRecord, error) {
	hash, err := network.HashTransactionInEnvelope(env, networkPassphrase)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("hash transaction: %w", err)
	}

	record := domain.TransactionRecord{
		LedgerSeq:     ledgerSeq,
		Hash:          xdr.Hash(hash).HexString(),
		SourceAccount: address(env.SourceAccount()),
	}

	if text, ok := env.Memo().GetText(); ok {
		record.MemoText = &text
	}

	ops := env.Operations()
	record.Operations = make([]domain.Operation, 0, len(ops))
	for _, op := range ops {
		record.Operations = append(record.Operations, operation(op))
	}

	return record, nil
}

func operation(op xdr.Operation) domain.Operation {
	var override string
	if op.SourceAccount != nil {
		override = address(*op.SourceAccount)
	}

	switch op.Body.Type {
	case xdr.OperationTypePayment:
		payment := op.Body.MustPaymentOp()
		return domain.PaymentOp{
			Asset:          asset(payment.Asset),
			SourceOverride: override,
			Destination:    address(payment.Destination),
			Amount:         int64(payment.Amount),
		}
	case xdr.OperationTypeChangeTrust:
		return domain.TrustChangeOp{
			Asset:          changeTrustAsset(op.Body.MustChangeTrustOp().Line),
			SourceOverride: override,
		}
	default:
		return domain.OtherOp{Type: op.Body.Type.String()}
	}
}

// address renders the underlying G... account of a possibly muxed account.
func address(account xdr.MuxedAccount) string {
	id := account.ToAccountId()
	return id.Address()
}

func asset(a xdr.Asset) domain.Asset {
	switch a.Type {
	case xdr.AssetTypeAssetTypeCreditAlphanum4:
		return domain.Asset{
			Code:   assetCode(a.AlphaNum4.AssetCode[:]),
			Issuer: a.AlphaNum4.Issuer.Address(),
			Type:   domain.AssetTypeAlphaNum4,
		}
	case xdr.AssetTypeAssetTypeCreditAlphanum12:
		return domain.Asset{
			Code:   assetCode(a.AlphaNum12.AssetCode[:]),
			Issuer: a.AlphaNum12.Issuer.Address(),
			Type:   domain.AssetTypeAlphaNum12,
		}
	default:
		return domain.Asset{Type: domain.AssetTypeNative}
	}
}

func changeTrustAsset(a xdr.ChangeTrustAsset) domain.Asset {
	switch a.Type {
	case xdr.AssetTypeAssetTypeCreditAlphanum4:
		return domain.Asset{
			Code:   assetCode(a.AlphaNum4.AssetCode[:]),
			Issuer: a.AlphaNum4.Issuer.Address(),
			Type:   domain.AssetTypeAlphaNum4,
		}
	case xdr.AssetTypeAssetTypeCreditAlphanum12:
		return domain.Asset{
			Code:   assetCode(a.AlphaNum12.AssetCode[:]),
			Issuer: a.AlphaNum12.Issuer.Address(),
			Type:   domain.AssetTypeAlphaNum12,
		}
	case xdr.AssetTypeAssetTypePoolShare:
		return domain.Asset{Type: domain.AssetTypePoolShare}
	default:
		return domain.Asset{Type: domain.AssetTypeNative}
	}
}

// assetCode strips the zero padding of a fixed width asset code.
func assetCode(raw []byte) string {
	return strings.TrimRight(string(raw), "\x00")
}
