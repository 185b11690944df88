package domain

import "time"

// FileProcessedEvent is published after a file pair is committed.
type FileProcessedEvent struct {
	ProcessedAt time.Time `json:"processed_at"`
	FileID      FileID    `json:"file_id"`
	Next        FileID    `json:"next"`
	Payments    int       `json:"payments"`
	Trustlines  int       `json:"trustlines"`
}

// IngestStatus is a snapshot of the ingest loop for operators.
type IngestStatus struct {
	StartedAt     time.Time `json:"started_at"`
	LastCommitAt  time.Time `json:"last_commit_at,omitzero"`
	Checkpoint    FileID    `json:"checkpoint"`
	LastFile      FileID    `json:"last_file,omitempty"`
	Files         int64     `json:"files"`
	PaymentRows   int64     `json:"payment_rows"`
	TrustlineRows int64     `json:"trustline_rows"`
	State         string    `json:"state"`
}
