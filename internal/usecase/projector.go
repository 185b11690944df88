package usecase

import (
	"fmt"
	"time"

	"github.com/iho/historycollector/internal/domain"
)

// Projector turns decoded archive records into rows for one asset.
type Projector struct {
	target domain.Asset
	idGen  IDGenerator
}

// NewProjector creates a new Projector for target.
func NewProjector(target domain.Asset, idGen IDGenerator) *Projector {
	return &Projector{
		target: target,
		idGen:  idGen,
	}
}

// Target returns the asset the projector filters on.
func (p *Projector) Target() domain.Asset {
	return p.target
}

// Project filters every operation of txs for the target asset. Each
// transaction's ledger must be present in ledgers.
func (p *Projector) Project(ledgers []domain.LedgerRecord, txs []domain.TransactionRecord) (*domain.Batch, error) {
	closeTimes := domain.CloseTimes(ledgers)
	batch := &domain.Batch{}

	for _, tx := range txs {
		closeTime, ok := closeTimes[tx.LedgerSeq]
		if !ok {
			return nil, fmt.Errorf("%w %d (transaction %s)", domain.ErrMissingCloseTime, tx.LedgerSeq, tx.Hash)
		}
		closedAt := time.Unix(closeTime, 0).UTC()

		for i, op := range tx.Operations {
			switch op := op.(type) {
			case domain.PaymentOp:
				if !p.target.Matches(op.Asset) {
					continue
				}
				batch.Payments = append(batch.Payments, domain.PaymentRow{
					ID:          p.idGen.Generate(),
					Source:      op.Source(tx.SourceAccount),
					Destination: op.Destination,
					Amount:      domain.AmountFromStroops(op.Amount),
					Memo:        tx.MemoText,
					TxHash:      tx.Hash,
					OpIndex:     i,
					CloseTime:   closedAt,
				})
			case domain.TrustChangeOp:
				if !p.target.Matches(op.Asset) {
					continue
				}
				batch.Trustlines = append(batch.Trustlines, domain.TrustlineRow{
					ID:        p.idGen.Generate(),
					Source:    op.Source(tx.SourceAccount),
					Memo:      tx.MemoText,
					TxHash:    tx.Hash,
					OpIndex:   i,
					CloseTime: closedAt,
				})
			}
		}
	}

	return batch, nil
}
