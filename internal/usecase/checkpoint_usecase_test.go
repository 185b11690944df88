package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/usecase"
	"github.com/iho/historycollector/internal/usecase/mocks"
)

func TestCheckpointUseCase_Initialize(t *testing.T) {
	tests := []struct {
		name       string
		input      usecase.SetCheckpointInput
		setupMocks func(*mocks.MockTransactionManager, *mocks.MockTransaction, *mocks.MockCheckpointRepository)
		wantID     domain.FileID
		wantErr    error
	}{
		{
			name:  "seeds empty table",
			input: usecase.SetCheckpointInput{FileID: "004C93BF"},
			setupMocks: func(txm *mocks.MockTransactionManager, tx *mocks.MockTransaction, repo *mocks.MockCheckpointRepository) {
				repo.EXPECT().Get(gomock.Any()).Return(domain.FileID(""), domain.ErrCheckpointNotFound)
				txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				repo.EXPECT().Create(gomock.Any(), tx, domain.FileID("004c93bf")).Return(nil)
				tx.EXPECT().Commit(gomock.Any()).Return(nil)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
			wantID: "004c93bf",
		},
		{
			name:  "refuses to overwrite without force",
			input: usecase.SetCheckpointInput{FileID: "0000003f"},
			setupMocks: func(_ *mocks.MockTransactionManager, _ *mocks.MockTransaction, repo *mocks.MockCheckpointRepository) {
				repo.EXPECT().Get(gomock.Any()).Return(domain.FileID("004c93bf"), nil)
			},
			wantErr: domain.ErrCheckpointExists,
		},
		{
			name:  "overwrites with force",
			input: usecase.SetCheckpointInput{FileID: "0000003f", Force: true},
			setupMocks: func(txm *mocks.MockTransactionManager, tx *mocks.MockTransaction, repo *mocks.MockCheckpointRepository) {
				repo.EXPECT().Get(gomock.Any()).Return(domain.FileID("004c93bf"), nil)
				txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				repo.EXPECT().Set(gomock.Any(), tx, domain.FileID("0000003f")).Return(nil)
				tx.EXPECT().Commit(gomock.Any()).Return(nil)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
			wantID: "0000003f",
		},
		{
			name:    "rejects malformed id",
			input:   usecase.SetCheckpointInput{FileID: "4c93bf"},
			wantErr: domain.ErrInvalidFileID,
		},
		{
			name:    "rejects non boundary id",
			input:   usecase.SetCheckpointInput{FileID: "00000040"},
			wantErr: domain.ErrNotCheckpointFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			txm := mocks.NewMockTransactionManager(ctrl)
			tx := mocks.NewMockTransaction(ctrl)
			repo := mocks.NewMockCheckpointRepository(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(txm, tx, repo)
			}

			uc := usecase.NewCheckpointUseCase(txm, repo, nil, nil)
			id, err := uc.Initialize(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("expected id %s, got %s", tt.wantID, id)
			}
		})
	}
}

func TestCheckpointUseCase_Set(t *testing.T) {
	tests := []struct {
		name       string
		input      usecase.SetCheckpointInput
		setupMocks func(*mocks.MockTransactionManager, *mocks.MockTransaction, *mocks.MockCheckpointRepository)
		wantErr    error
	}{
		{
			name:  "rewinds existing checkpoint",
			input: usecase.SetCheckpointInput{FileID: "0000003f"},
			setupMocks: func(txm *mocks.MockTransactionManager, tx *mocks.MockTransaction, repo *mocks.MockCheckpointRepository) {
				repo.EXPECT().Get(gomock.Any()).Return(domain.FileID("004c93bf"), nil)
				txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				repo.EXPECT().Set(gomock.Any(), tx, domain.FileID("0000003f")).Return(nil)
				tx.EXPECT().Commit(gomock.Any()).Return(nil)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
		},
		{
			name:  "requires seeded table",
			input: usecase.SetCheckpointInput{FileID: "0000003f"},
			setupMocks: func(_ *mocks.MockTransactionManager, _ *mocks.MockTransaction, repo *mocks.MockCheckpointRepository) {
				repo.EXPECT().Get(gomock.Any()).Return(domain.FileID(""), domain.ErrCheckpointNotFound)
			},
			wantErr: domain.ErrCheckpointNotFound,
		},
		{
			name:    "non boundary id needs force",
			input:   usecase.SetCheckpointInput{FileID: "00000040"},
			wantErr: domain.ErrNotCheckpointFile,
		},
		{
			name:  "write failure is returned",
			input: usecase.SetCheckpointInput{FileID: "00000040", Force: true},
			setupMocks: func(txm *mocks.MockTransactionManager, tx *mocks.MockTransaction, repo *mocks.MockCheckpointRepository) {
				repo.EXPECT().Get(gomock.Any()).Return(domain.FileID("0000003f"), nil)
				txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				repo.EXPECT().Set(gomock.Any(), tx, domain.FileID("00000040")).Return(domain.ErrCheckpointNotFound)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
			},
			wantErr: domain.ErrCheckpointNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			txm := mocks.NewMockTransactionManager(ctrl)
			tx := mocks.NewMockTransaction(ctrl)
			repo := mocks.NewMockCheckpointRepository(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(txm, tx, repo)
			}

			uc := usecase.NewCheckpointUseCase(txm, repo, nil, nil)
			_, err := uc.Set(context.Background(), tt.input)

			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCheckpointUseCase_Summary(t *testing.T) {
	ctrl := gomock.NewController(t)
	txm := mocks.NewMockTransactionManager(ctrl)
	checkpoints := mocks.NewMockCheckpointRepository(ctrl)
	payments := mocks.NewMockPaymentRepository(ctrl)
	trustlines := mocks.NewMockTrustlineRepository(ctrl)

	checkpoints.EXPECT().Get(gomock.Any()).Return(domain.FileID("004c93bf"), nil)
	payments.EXPECT().Count(gomock.Any()).Return(int64(12), nil)
	trustlines.EXPECT().Count(gomock.Any()).Return(int64(3), nil)

	uc := usecase.NewCheckpointUseCase(txm, checkpoints, payments, trustlines)
	summary, err := uc.Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := usecase.CheckpointSummary{Next: "004c93bf", Payments: 12, Trustlines: 3}
	if summary != want {
		t.Errorf("expected %+v, got %+v", want, summary)
	}
}
