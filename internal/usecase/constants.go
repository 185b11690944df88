package usecase

import "time"

const (
	// DefaultRetryInterval is how long to wait for the archive to publish
	// the next file before asking again.
	DefaultRetryInterval = 180 * time.Second

	// DefaultTransactionTimeout bounds the database unit of work for one file.
	DefaultTransactionTimeout = 60 * time.Second

	// Fetch outcomes reported to Metrics.
	FetchOutcomeOK       = "ok"
	FetchOutcomeNotFound = "not_found"
	FetchOutcomeError    = "error"
)
