package usecase

import (
	"context"
	"io"

	"github.com/iho/historycollector/internal/domain"
)

// ArchiveStore reads objects from the history archive.
type ArchiveStore interface {
	// Fetch returns the object body. A missing object yields an error
	// wrapping domain.ErrObjectNotFound.
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// ArchiveDecoder turns archive file bytes into records.
type ArchiveDecoder interface {
	DecodeLedgers(r io.Reader) ([]domain.LedgerRecord, error)
	// DecodeTransactions needs the network passphrase to compute hashes.
	DecodeTransactions(r io.Reader, networkPassphrase string) ([]domain.TransactionRecord, error)
}

// FileFetcher retrieves one half of an archive file pair.
type FileFetcher interface {
	FetchFile(ctx context.Context, id domain.FileID, kind domain.FileKind) ([]byte, error)
}

// BatchWriter persists the rows of one file together with the checkpoint.
type BatchWriter interface {
	Write(ctx context.Context, batch *domain.Batch, checkpoint domain.FileID) error
}

// PaymentRepository defines data access for payment rows.
type PaymentRepository interface {
	// CreateBatch returns the number of rows actually inserted; rows that
	// already exist are skipped.
	CreateBatch(ctx context.Context, tx Transaction, rows []domain.PaymentRow) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// TrustlineRepository defines data access for trustline rows.
type TrustlineRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, rows []domain.TrustlineRow) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// CheckpointRepository defines data access for the lastfile checkpoint.
type CheckpointRepository interface {
	// Get returns domain.ErrCheckpointNotFound when no row exists.
	Get(ctx context.Context) (domain.FileID, error)
	Set(ctx context.Context, tx Transaction, id domain.FileID) error
	Create(ctx context.Context, tx Transaction, id domain.FileID) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Notifier announces committed files to downstream consumers.
type Notifier interface {
	FileProcessed(ctx context.Context, event domain.FileProcessedEvent) error
}

// Metrics records ingestion progress.
type Metrics interface {
	ObserveFetch(outcome string, seconds float64)
	ObserveCycle(seconds float64)
	FileProcessed(checkpoint domain.FileID, payments, trustlines int)
}
