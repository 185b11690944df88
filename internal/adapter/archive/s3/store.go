// Package s3archive reads history archive objects from S3 or an
// S3-compatible store.
package s3archive

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/iho/historycollector/internal/domain"
)

// Config holds the S3 connection settings.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. A value
	// without a scheme gets https://.
	Endpoint       string
	ForcePathStyle bool
	// AccessKey and SecretKey are optional. Public archives are read
	// with anonymous credentials.
	AccessKey string
	SecretKey string
}

// Store implements usecase.ArchiveStore on an S3 bucket.
type Store struct {
	downloader *manager.Downloader
	client     *s3.Client
	bucket     string
}

// New creates a new Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3archive: bucket name is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3archive: region is required")
	}

	var creds aws.CredentialsProvider = aws.AnonymousCredentials{}
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("s3archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(normaliseEndpoint(cfg.Endpoint))
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &Store{
		downloader: manager.NewDownloader(client),
		client:     client,
		bucket:     cfg.Bucket,
	}, nil
}

// Fetch downloads the object stored under key.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)

	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3archive: get %s: %w", key, domain.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("s3archive: get %s: %w", key, err)
	}

	return buf.Bytes(), nil
}

// isNotFound reports whether err means the object does not exist yet.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Some S3-compatible providers only report the status code.
	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}

func normaliseEndpoint(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err == nil && parsed.Scheme != "" {
		return endpoint
	}
	return "https://" + endpoint
}
