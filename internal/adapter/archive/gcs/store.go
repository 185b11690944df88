// Package gcsarchive reads history archive objects from Google Cloud
// Storage.
package gcsarchive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/iho/historycollector/internal/domain"
)

// Config holds the GCS connection settings.
type Config struct {
	Bucket string
	// CredentialsFile is optional; public buckets are read without
	// authentication.
	CredentialsFile string
	// Endpoint overrides the storage endpoint, e.g. for an emulator.
	Endpoint string
}

// Store implements usecase.ArchiveStore on a GCS bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// New creates a new Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcsarchive: bucket name is required")
	}

	opts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcsarchive: create storage client: %w", err)
	}

	return &Store{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
	}, nil
}

// Fetch reads the object stored under key.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, translateError(key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcsarchive: read %s: %w", key, err)
	}

	return data, nil
}

// Close releases the storage client.
func (s *Store) Close() error {
	return s.client.Close()
}

func translateError(key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcsarchive: get %s: %w", key, domain.ErrObjectNotFound)
	}
	return fmt.Errorf("gcsarchive: get %s: %w", key, err)
}
