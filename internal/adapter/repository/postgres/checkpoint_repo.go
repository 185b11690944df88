package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/infrastructure/postgres/generated"
	"github.com/iho/historycollector/internal/usecase"
)

// CheckpointRepository implements usecase.CheckpointRepository on the
// single row lastfile table.
type CheckpointRepository struct {
	queries *generated.Queries
}

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(db generated.DBTX) *CheckpointRepository {
	return &CheckpointRepository{queries: generated.New(db)}
}

// Get returns the stored file id. The value is returned as stored; callers
// validate it.
func (r *CheckpointRepository) Get(ctx context.Context) (domain.FileID, error) {
	name, err := r.queries.GetLastFile(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrCheckpointNotFound
		}

		return "", err
	}

	return domain.FileID(name), nil
}

// Set overwrites the checkpoint within tx.
func (r *CheckpointRepository) Set(ctx context.Context, tx usecase.Transaction, id domain.FileID) error {
	n, err := queriesFor(tx).UpdateLastFile(ctx, id.String())
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCheckpointNotFound
	}

	return nil
}

// Create inserts the checkpoint row within tx.
func (r *CheckpointRepository) Create(ctx context.Context, tx usecase.Transaction, id domain.FileID) error {
	return queriesFor(tx).InsertLastFile(ctx, id.String())
}
