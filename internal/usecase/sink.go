package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/historycollector/internal/domain"
)

// PersistenceSink writes the rows of one file and advances the checkpoint
// in a single database transaction.
type PersistenceSink struct {
	txManager      TransactionManager
	paymentRepo    PaymentRepository
	trustlineRepo  TrustlineRepository
	checkpointRepo CheckpointRepository
	retrier        Retrier
	logger         zerolog.Logger
}

// NewPersistenceSink creates a new PersistenceSink. retrier may be nil.
func NewPersistenceSink(
	txManager TransactionManager,
	paymentRepo PaymentRepository,
	trustlineRepo TrustlineRepository,
	checkpointRepo CheckpointRepository,
	retrier Retrier,
	logger zerolog.Logger,
) *PersistenceSink {
	return &PersistenceSink{
		txManager:      txManager,
		paymentRepo:    paymentRepo,
		trustlineRepo:  trustlineRepo,
		checkpointRepo: checkpointRepo,
		retrier:        retrier,
		logger:         logger,
	}
}

// Write inserts batch and sets the checkpoint to checkpoint. Either all of
// it is committed or none of it is.
func (s *PersistenceSink) Write(ctx context.Context, batch *domain.Batch, checkpoint domain.FileID) error {
	if batch == nil {
		batch = &domain.Batch{}
	}

	write := func() error {
		return s.write(ctx, batch, checkpoint)
	}

	if s.retrier == nil {
		return write()
	}

	return s.retrier.Retry(ctx, write)
}

func (s *PersistenceSink) write(ctx context.Context, batch *domain.Batch, checkpoint domain.FileID) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	payments, err := s.paymentRepo.CreateBatch(ctx, tx, batch.Payments)
	if err != nil {
		return fmt.Errorf("insert payments: %w", err)
	}

	trustlines, err := s.trustlineRepo.CreateBatch(ctx, tx, batch.Trustlines)
	if err != nil {
		return fmt.Errorf("insert trustlines: %w", err)
	}

	if err := s.checkpointRepo.Set(ctx, tx, checkpoint); err != nil {
		return fmt.Errorf("update checkpoint: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug().
		Int64("payments_inserted", payments).
		Int64("trustlines_inserted", trustlines).
		Int("duplicates", batch.Len()-int(payments+trustlines)).
		Str("checkpoint", checkpoint.String()).
		Msg("batch committed")

	return nil
}
