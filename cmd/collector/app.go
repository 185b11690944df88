package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	fsarchive "github.com/iho/historycollector/internal/adapter/archive/fs"
	gcsarchive "github.com/iho/historycollector/internal/adapter/archive/gcs"
	s3archive "github.com/iho/historycollector/internal/adapter/archive/s3"
	postgresRepo "github.com/iho/historycollector/internal/adapter/repository/postgres"
	"github.com/iho/historycollector/internal/infrastructure/config"
	"github.com/iho/historycollector/internal/infrastructure/logger"
	"github.com/iho/historycollector/internal/infrastructure/postgres"
	"github.com/iho/historycollector/internal/infrastructure/redis"
	"github.com/iho/historycollector/internal/usecase"
)

// app holds the connections shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool
	redis  *goredis.Client

	txManager      *postgresRepo.TxManager
	paymentRepo    *postgresRepo.PaymentRepository
	trustlineRepo  *postgresRepo.TrustlineRepository
	checkpointRepo *postgresRepo.CheckpointRepository
	checkpoints    *usecase.CheckpointUseCase
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With().
		Str("asset", cfg.AssetCode).
		Logger()

	return cfg, log, nil
}

// newApp connects to PostgreSQL and, when configured, Redis.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL(),
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		PingTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("connected to postgres")

	a := &app{
		cfg:            cfg,
		logger:         log,
		pool:           pool,
		txManager:      postgresRepo.NewTxManager(pool),
		paymentRepo:    postgresRepo.NewPaymentRepository(pool),
		trustlineRepo:  postgresRepo.NewTrustlineRepository(pool),
		checkpointRepo: postgresRepo.NewCheckpointRepository(pool),
	}
	a.checkpoints = usecase.NewCheckpointUseCase(a.txManager, a.checkpointRepo, a.paymentRepo, a.trustlineRepo)

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, "historycollector-"+cfg.DBName)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redis = client
		log.Info().Msg("connected to redis")
	}

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.pool.Close()
}

// archiveStore is an ArchiveStore that may hold a client to release.
type archiveStore interface {
	usecase.ArchiveStore
	Close() error
}

type nopCloser struct {
	usecase.ArchiveStore
}

func (nopCloser) Close() error { return nil }

// newArchiveStore opens the archive backend selected by ARCHIVE_BACKEND.
// For the fs backend BUCKET_NAME is the archive root directory.
func newArchiveStore(ctx context.Context, cfg *config.Config) (archiveStore, error) {
	switch cfg.ArchiveBackend {
	case config.BackendS3:
		store, err := s3archive.New(ctx, s3archive.Config{
			Bucket:         cfg.BucketName,
			Region:         cfg.AWSRegion,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
			AccessKey:      cfg.AWSAccessKey,
			SecretKey:      cfg.AWSSecretKey,
		})
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil
	case config.BackendGCS:
		store, err := gcsarchive.New(ctx, gcsarchive.Config{
			Bucket:          cfg.BucketName,
			CredentialsFile: cfg.GCSCredentialsFile,
			Endpoint:        cfg.GCSEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendFS:
		store, err := fsarchive.New(cfg.BucketName)
		if err != nil {
			return nil, err
		}
		return nopCloser{store}, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}
}

// lockOwner identifies this process in the Redis lock.
func lockOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	return host + "/" + ulid.Make().String()
}
