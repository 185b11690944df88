package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/historycollector/internal/domain"
)

// Retriever fetches archive files, waiting for files that are not
// published yet.
type Retriever struct {
	store      ArchiveStore
	backOff    backoff.BackOff
	timer      backoff.Timer
	metrics    Metrics
	logger     zerolog.Logger
	prefix     string
	maxRetries int
}

// RetrieverConfig holds Retriever dependencies.
type RetrieverConfig struct {
	Store ArchiveStore
	// BackOff defaults to a constant DefaultRetryInterval.
	BackOff backoff.BackOff
	// Timer is only set by tests; nil uses a real timer.
	Timer   backoff.Timer
	Metrics Metrics
	Logger  zerolog.Logger
	// Prefix is the optional root directory of the archive.
	Prefix string
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
}

// NewRetriever creates a new Retriever.
func NewRetriever(cfg RetrieverConfig) *Retriever {
	if cfg.BackOff == nil {
		cfg.BackOff = backoff.NewConstantBackOff(DefaultRetryInterval)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Retriever{
		store:      cfg.Store,
		backOff:    cfg.BackOff,
		timer:      cfg.Timer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		prefix:     cfg.Prefix,
		maxRetries: cfg.MaxRetries,
	}
}

// FetchFile fetches one half of an archive file pair.
func (r *Retriever) FetchFile(ctx context.Context, id domain.FileID, kind domain.FileKind) ([]byte, error) {
	return r.Fetch(ctx, id.ObjectKey(r.prefix, kind))
}

// Ping reads the archive root state once, without retries. A missing
// root state means the store does not point at a history archive.
func (r *Retriever) Ping(ctx context.Context) error {
	if _, err := r.store.Fetch(ctx, domain.RootStateKey(r.prefix)); err != nil {
		return fmt.Errorf("archive root state: %w", err)
	}

	return nil
}

// Fetch returns the object stored under key. A missing object is retried
// up to maxRetries times; any other failure is returned at once.
func (r *Retriever) Fetch(ctx context.Context, key string) ([]byte, error) {
	var (
		body    []byte
		attempt int
	)

	operation := func() error {
		attempt++
		r.logger.Info().Str("key", key).Int("attempt", attempt).Msg("downloading archive file")

		start := time.Now()
		data, err := r.store.Fetch(ctx, key)
		elapsed := time.Since(start).Seconds()

		switch {
		case err == nil:
			r.observe(FetchOutcomeOK, elapsed)
			body = data
			return nil
		case errors.Is(err, domain.ErrObjectNotFound):
			r.observe(FetchOutcomeNotFound, elapsed)
			return err
		default:
			r.observe(FetchOutcomeError, elapsed)
			return backoff.Permanent(err)
		}
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Str("key", key).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("archive file not published yet, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.backOff, uint64(r.maxRetries)), ctx)

	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, r.timer); err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			r.logger.Error().Str("key", key).Int("attempts", attempt).Msg("reached retry limit")
			return nil, fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrRetrievalExhausted, key, attempt, err)
		}

		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}

	r.logger.Info().Str("key", key).Int("bytes", len(body)).Msg("archive file downloaded")

	return body, nil
}

func (r *Retriever) observe(outcome string, seconds float64) {
	if r.metrics != nil {
		r.metrics.ObserveFetch(outcome, seconds)
	}
}
