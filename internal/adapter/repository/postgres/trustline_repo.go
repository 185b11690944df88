package postgres

import (
	"context"
	"fmt"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/infrastructure/postgres/generated"
	"github.com/iho/historycollector/internal/usecase"
)

// TrustlineRepository implements usecase.TrustlineRepository.
type TrustlineRepository struct {
	queries *generated.Queries
}

// NewTrustlineRepository creates a new TrustlineRepository.
func NewTrustlineRepository(db generated.DBTX) *TrustlineRepository {
	return &TrustlineRepository{queries: generated.New(db)}
}

// CreateBatch inserts rows within tx and returns how many were new.
func (r *TrustlineRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, rows []domain.TrustlineRow) (int64, error) {
	queries := queriesFor(tx)

	var inserted int64
	for _, row := range rows {
		n, err := queries.InsertTrustline(ctx, generated.InsertTrustlineParams{
			ID:        row.ID,
			Source:    row.Source,
			Memo:      memoToPgText(row.Memo),
			MemoBytes: memoToBytes(row.Memo),
			TxHash:    row.TxHash,
			OpIndex:   int32(row.OpIndex),
			ClosedAt:  timeToPgTimestamptz(row.CloseTime),
		})
		if err != nil {
			return inserted, fmt.Errorf("trustline %s/%d: %w", row.TxHash, row.OpIndex, err)
		}
		inserted += n
	}

	return inserted, nil
}

// Count returns the number of stored trustline changes.
func (r *TrustlineRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountTrustlines(ctx)
}
