package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/historycollector/internal/domain"
)

// Ingest loop states reported in IngestStatus.
const (
	StateIdle       = "idle"
	StateRetrieving = "retrieving"
	StateDecoding   = "decoding"
	StateProjecting = "projecting"
	StatePersisting = "persisting"
	StateStopped    = "stopped"
	StateFailed     = "failed"
)

// IngestUseCase drives the retrieve, decode, project, persist cycle over
// consecutive archive files.
type IngestUseCase struct {
	fetcher           FileFetcher
	decoder           ArchiveDecoder
	projector         *Projector
	sink              BatchWriter
	checkpointRepo    CheckpointRepository
	notifier          Notifier
	metrics           Metrics
	logger            zerolog.Logger
	networkPassphrase string
	now               func() time.Time

	mu     sync.RWMutex
	status domain.IngestStatus
}

// IngestConfig holds IngestUseCase dependencies.
type IngestConfig struct {
	Fetcher           FileFetcher
	Decoder           ArchiveDecoder
	Projector         *Projector
	Sink              BatchWriter
	CheckpointRepo    CheckpointRepository
	Notifier          Notifier // optional
	Metrics           Metrics  // optional
	Logger            zerolog.Logger
	NetworkPassphrase string
}

// NewIngestUseCase creates a new IngestUseCase.
func NewIngestUseCase(cfg IngestConfig) *IngestUseCase {
	uc := &IngestUseCase{
		fetcher:           cfg.Fetcher,
		decoder:           cfg.Decoder,
		projector:         cfg.Projector,
		sink:              cfg.Sink,
		checkpointRepo:    cfg.CheckpointRepo,
		notifier:          cfg.Notifier,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger,
		networkPassphrase: cfg.NetworkPassphrase,
		now:               time.Now,
	}
	uc.status = domain.IngestStatus{State: StateIdle, StartedAt: uc.now().UTC()}

	return uc
}

// Run processes files starting at the stored checkpoint until ctx is
// cancelled or a file fails. Cancellation is honoured between files and
// while waiting for the archive; a started database write always completes.
func (uc *IngestUseCase) Run(ctx context.Context) error {
	id, err := uc.checkpointRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if _, err := id.Uint(); err != nil {
		return fmt.Errorf("stored checkpoint is corrupted: %w", err)
	}

	uc.setCheckpoint(id)
	uc.logger.Info().Str("file_id", id.String()).Str("asset", uc.projector.Target().String()).Msg("ingestion started")

	for {
		if ctx.Err() != nil {
			uc.setState(StateStopped)
			uc.logger.Info().Str("next_file", id.String()).Msg("ingestion stopped")
			return nil
		}

		next, err := uc.ProcessFile(ctx, id)
		if err != nil {
			if stoppedBy(ctx, err) {
				uc.setState(StateStopped)
				uc.logger.Info().Str("next_file", id.String()).Msg("ingestion stopped")
				return nil
			}

			uc.setState(StateFailed)
			return fmt.Errorf("process file %s: %w", id, err)
		}

		id = next
	}
}

// stoppedBy reports whether err is the cancellation of ctx rather than a
// failure that merely happened during shutdown.
func stoppedBy(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}

// ProcessFile ingests the file pair id and returns the id to process next.
// The returned id is also the stored checkpoint once this call succeeds.
func (uc *IngestUseCase) ProcessFile(ctx context.Context, id domain.FileID) (domain.FileID, error) {
	start := uc.now()
	log := uc.logger.With().Str("file_id", id.String()).Logger()

	next, err := id.Next()
	if err != nil {
		return "", err
	}

	uc.setState(StateRetrieving)
	ledgerData, err := uc.fetcher.FetchFile(ctx, id, domain.FileKindLedger)
	if err != nil {
		return "", err
	}
	txData, err := uc.fetcher.FetchFile(ctx, id, domain.FileKindTransactions)
	if err != nil {
		return "", err
	}

	uc.setState(StateDecoding)
	ledgers, err := uc.decoder.DecodeLedgers(bytes.NewReader(ledgerData))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", id.FileName(domain.FileKindLedger), err)
	}
	txs, err := uc.decoder.DecodeTransactions(bytes.NewReader(txData), uc.networkPassphrase)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", id.FileName(domain.FileKindTransactions), err)
	}
	log.Debug().Int("ledgers", len(ledgers)).Int("transactions", len(txs)).Msg("archive files decoded")

	uc.setState(StateProjecting)
	batch, err := uc.projector.Project(ledgers, txs)
	if err != nil {
		return "", err
	}

	uc.setState(StatePersisting)
	log.Info().Int("payments", len(batch.Payments)).Int("trustlines", len(batch.Trustlines)).Msg("writing file contents to database")
	if err := uc.sink.Write(context.WithoutCancel(ctx), batch, next); err != nil {
		return "", err
	}
	log.Info().Str("next_file", next.String()).Msg("file committed")

	uc.recordCommit(id, next, batch)
	if uc.metrics != nil {
		uc.metrics.FileProcessed(next, len(batch.Payments), len(batch.Trustlines))
		uc.metrics.ObserveCycle(uc.now().Sub(start).Seconds())
	}
	uc.notify(ctx, id, next, batch)

	return next, nil
}

// Status returns a snapshot of the loop state.
func (uc *IngestUseCase) Status() domain.IngestStatus {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	return uc.status
}

func (uc *IngestUseCase) notify(ctx context.Context, id, next domain.FileID, batch *domain.Batch) {
	if uc.notifier == nil {
		return
	}

	event := domain.FileProcessedEvent{
		FileID:      id,
		Next:        next,
		Payments:    len(batch.Payments),
		Trustlines:  len(batch.Trustlines),
		ProcessedAt: uc.now().UTC(),
	}

	// The rows are committed at this point, so a lost notification is
	// only logged.
	if err := uc.notifier.FileProcessed(ctx, event); err != nil {
		uc.logger.Warn().Err(err).Str("file_id", id.String()).Msg("failed to publish file notification")
	}
}

func (uc *IngestUseCase) setState(state string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.status.State = state
}

func (uc *IngestUseCase) setCheckpoint(id domain.FileID) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.status.Checkpoint = id
}

func (uc *IngestUseCase) recordCommit(id, next domain.FileID, batch *domain.Batch) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.status.State = StateIdle
	uc.status.LastFile = id
	uc.status.Checkpoint = next
	uc.status.LastCommitAt = uc.now().UTC()
	uc.status.Files++
	uc.status.PaymentRows += int64(len(batch.Payments))
	uc.status.TrustlineRows += int64(len(batch.Trustlines))
}
