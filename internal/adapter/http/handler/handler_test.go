package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/usecase"
)

type stubStatus struct {
	status domain.IngestStatus
}

func (s stubStatus) Status() domain.IngestStatus { return s.status }

type stubCheckpoints struct {
	summary usecase.CheckpointSummary
	err     error
}

func (s stubCheckpoints) Summary(ctx context.Context) (usecase.CheckpointSummary, error) {
	return s.summary, s.err
}

func TestHealthHandlerLiveness(t *testing.T) {
	h := NewHealthHandler()

	rr := httptest.NewRecorder()
	h.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHealthHandlerReadiness(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all dependencies up",
			checks:     []Check{{Name: "postgres", Ping: ok}, {Name: "redis", Ping: ok}},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready","postgres":"ok","redis":"ok"}`,
		},
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "postgres down",
			checks:     []Check{{Name: "postgres", Ping: down}, {Name: "redis", Ping: ok}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"postgres unhealthy","message":"connection refused"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks...)

			rr := httptest.NewRecorder()
			h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestStatusHandlerStatus(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	h := NewStatusHandler(stubStatus{status: domain.IngestStatus{
		StartedAt:   started,
		Checkpoint:  "0000007f",
		Files:       2,
		PaymentRows: 5,
		State:       usecase.StateRetrieving,
	}}, stubCheckpoints{})

	rr := httptest.NewRecorder()
	h.Status(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var got domain.IngestStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, domain.FileID("0000007f"), got.Checkpoint)
	assert.Equal(t, usecase.StateRetrieving, got.State)
	assert.Equal(t, int64(5), got.PaymentRows)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestStatusHandlerCheckpoint(t *testing.T) {
	tests := []struct {
		name       string
		svc        stubCheckpoints
		wantStatus int
		wantBody   string
	}{
		{
			name:       "stored checkpoint",
			svc:        stubCheckpoints{summary: usecase.CheckpointSummary{Next: "000000bf", Payments: 10, Trustlines: 3}},
			wantStatus: http.StatusOK,
			wantBody:   `{"next_file":"000000bf","payments":10,"trustlines":3}`,
		},
		{
			name:       "not initialized",
			svc:        stubCheckpoints{err: domain.ErrCheckpointNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "database error",
			svc:        stubCheckpoints{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStatusHandler(stubStatus{}, tt.svc)

			rr := httptest.NewRecorder()
			h.Checkpoint(rr, httptest.NewRequest(http.MethodGet, "/checkpoint", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}
