package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/historycollector/internal/domain"
)

// CheckpointUseCase lets operators seed and move the ingestion checkpoint.
type CheckpointUseCase struct {
	txManager      TransactionManager
	checkpointRepo CheckpointRepository
	paymentRepo    PaymentRepository
	trustlineRepo  TrustlineRepository
}

// NewCheckpointUseCase creates a new CheckpointUseCase.
func NewCheckpointUseCase(
	txManager TransactionManager,
	checkpointRepo CheckpointRepository,
	paymentRepo PaymentRepository,
	trustlineRepo TrustlineRepository,
) *CheckpointUseCase {
	return &CheckpointUseCase{
		txManager:      txManager,
		checkpointRepo: checkpointRepo,
		paymentRepo:    paymentRepo,
		trustlineRepo:  trustlineRepo,
	}
}

// CheckpointSummary describes the ingestion progress stored in the database.
type CheckpointSummary struct {
	Next       domain.FileID `json:"next_file"`
	Payments   int64         `json:"payments"`
	Trustlines int64         `json:"trustlines"`
}

// SetCheckpointInput represents input for seeding or moving the checkpoint.
type SetCheckpointInput struct {
	FileID string
	// Force overwrites an existing checkpoint.
	Force bool
}

// Get returns the id of the next file to ingest.
func (uc *CheckpointUseCase) Get(ctx context.Context) (domain.FileID, error) {
	return uc.checkpointRepo.Get(ctx)
}

// Summary returns the checkpoint together with the stored row counts.
func (uc *CheckpointUseCase) Summary(ctx context.Context) (CheckpointSummary, error) {
	next, err := uc.checkpointRepo.Get(ctx)
	if err != nil {
		return CheckpointSummary{}, err
	}

	payments, err := uc.paymentRepo.Count(ctx)
	if err != nil {
		return CheckpointSummary{}, fmt.Errorf("count payments: %w", err)
	}

	trustlines, err := uc.trustlineRepo.Count(ctx)
	if err != nil {
		return CheckpointSummary{}, fmt.Errorf("count trustlines: %w", err)
	}

	return CheckpointSummary{Next: next, Payments: payments, Trustlines: trustlines}, nil
}

// Initialize seeds the checkpoint with the first file to ingest. The file
// must be a checkpoint boundary, and an existing checkpoint is only
// replaced when Force is set.
func (uc *CheckpointUseCase) Initialize(ctx context.Context, input SetCheckpointInput) (domain.FileID, error) {
	id, err := domain.ParseFileID(input.FileID)
	if err != nil {
		return "", err
	}
	if !id.IsCheckpointBoundary() {
		return "", fmt.Errorf("%w: %s", domain.ErrNotCheckpointFile, id)
	}

	existing, err := uc.checkpointRepo.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrCheckpointNotFound):
		return id, uc.apply(ctx, id, uc.checkpointRepo.Create)
	case err != nil:
		return "", err
	case !input.Force:
		return "", fmt.Errorf("%w: %s", domain.ErrCheckpointExists, existing)
	default:
		return id, uc.apply(ctx, id, uc.checkpointRepo.Set)
	}
}

// Set moves an existing checkpoint. Rewinding is safe because rows are
// inserted idempotently.
func (uc *CheckpointUseCase) Set(ctx context.Context, input SetCheckpointInput) (domain.FileID, error) {
	id, err := domain.ParseFileID(input.FileID)
	if err != nil {
		return "", err
	}
	if !id.IsCheckpointBoundary() && !input.Force {
		return "", fmt.Errorf("%w: %s", domain.ErrNotCheckpointFile, id)
	}

	if _, err := uc.checkpointRepo.Get(ctx); err != nil {
		return "", err
	}

	return id, uc.apply(ctx, id, uc.checkpointRepo.Set)
}

func (uc *CheckpointUseCase) apply(ctx context.Context, id domain.FileID, write func(context.Context, Transaction, domain.FileID) error) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := write(ctx, tx, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
