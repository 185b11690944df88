package handler

import (
	"context"
	"net/http"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/usecase"
)

// StatusProvider reports the state of the ingest loop.
type StatusProvider interface {
	Status() domain.IngestStatus
}

// CheckpointService reads the stored checkpoint and row totals.
type CheckpointService interface {
	Summary(ctx context.Context) (usecase.CheckpointSummary, error)
}

// StatusHandler exposes ingestion progress.
type StatusHandler struct {
	status      StatusProvider
	checkpoints CheckpointService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(status StatusProvider, checkpoints CheckpointService) *StatusHandler {
	return &StatusHandler{
		status:      status,
		checkpoints: checkpoints,
	}
}

// Status returns the in-memory ingest loop snapshot.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.Status())
}

// Checkpoint returns the stored checkpoint with the table row counts.
func (h *StatusHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	summary, err := h.checkpoints.Summary(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to read checkpoint", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
