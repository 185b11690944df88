package gcsarchive

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/storage"

	"github.com/iho/historycollector/internal/domain"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{name: "missing object", err: storage.ErrObjectNotExist, wantNotFound: true},
		{name: "missing bucket", err: storage.ErrBucketNotExist, wantNotFound: false},
		{name: "other", err: errors.New("permission denied"), wantNotFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError("ledger/00/00/00/ledger-0000003f.xdr.gz", tt.err)
			if got := errors.Is(err, domain.ErrObjectNotFound); got != tt.wantNotFound {
				t.Fatalf("errors.Is(ErrObjectNotFound) = %v, want %v (%v)", got, tt.wantNotFound, err)
			}
			if !errors.Is(err, tt.err) && !tt.wantNotFound {
				t.Fatalf("expected original error to be wrapped, got %v", err)
			}
		})
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
