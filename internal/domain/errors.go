package domain

import "errors"

var (
	// Archive errors
	ErrInvalidFileID      = errors.New("invalid archive file id")
	ErrFileIDOverflow     = errors.New("archive file id exceeds 8 hex digits")
	ErrObjectNotFound     = errors.New("archive object not found")
	ErrRetrievalExhausted = errors.New("archive retrieval retries exhausted")
	ErrDecode             = errors.New("failed to decode archive file")

	// Projection errors
	ErrInvalidAsset     = errors.New("invalid asset")
	ErrMissingCloseTime = errors.New("no close time for ledger")

	// Checkpoint errors
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrCheckpointExists   = errors.New("checkpoint already exists")
	ErrNotCheckpointFile  = errors.New("file id is not a checkpoint boundary")
)
