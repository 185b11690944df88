package postgres

import (
	"context"
	"fmt"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/infrastructure/postgres/generated"
	"github.com/iho/historycollector/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	queries *generated.Queries
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db generated.DBTX) *PaymentRepository {
	return &PaymentRepository{queries: generated.New(db)}
}

// CreateBatch inserts rows within tx and returns how many were new.
func (r *PaymentRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, rows []domain.PaymentRow) (int64, error) {
	queries := queriesFor(tx)

	var inserted int64
	for _, row := range rows {
		n, err := queries.InsertPayment(ctx, generated.InsertPaymentParams{
			ID:          row.ID,
			Source:      row.Source,
			Destination: row.Destination,
			Amount:      decimalToNumeric(row.Amount),
			Memo:        memoToPgText(row.Memo),
			MemoBytes:   memoToBytes(row.Memo),
			TxHash:      row.TxHash,
			OpIndex:     int32(row.OpIndex),
			ClosedAt:    timeToPgTimestamptz(row.CloseTime),
		})
		if err != nil {
			return inserted, fmt.Errorf("payment %s/%d: %w", row.TxHash, row.OpIndex, err)
		}
		inserted += n
	}

	return inserted, nil
}

// Count returns the number of stored payments.
func (r *PaymentRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountPayments(ctx)
}
