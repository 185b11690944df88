package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iho/historycollector/internal/adapter/decoder"
	httpAdapter "github.com/iho/historycollector/internal/adapter/http"
	"github.com/iho/historycollector/internal/adapter/http/handler"
	postgresRepo "github.com/iho/historycollector/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/historycollector/internal/adapter/repository/redis"
	"github.com/iho/historycollector/internal/domain"
	"github.com/iho/historycollector/internal/infrastructure/config"
	"github.com/iho/historycollector/internal/infrastructure/metrics"
	"github.com/iho/historycollector/internal/infrastructure/postgres"
	"github.com/iho/historycollector/internal/usecase"
)

func runCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest archive files from the stored checkpoint onwards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !skipMigrations {
				if err := postgres.RunMigrations(cfg.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
					return err
				}
			}

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			return run(ctx, a)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on start")

	return cmd
}

func run(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.logger

	target, err := domain.NewAsset(cfg.AssetCode, cfg.AssetIssuer)
	if err != nil {
		return err
	}

	backOff, err := usecase.NewBackOff(cfg.RetryStrategy, cfg.RetryInterval)
	if err != nil {
		return err
	}

	store, err := newArchiveStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	retriever := usecase.NewRetriever(usecase.RetrieverConfig{
		Store:      store,
		BackOff:    backOff,
		Metrics:    m,
		Logger:     log,
		Prefix:     cfg.CoreDirectory,
		MaxRetries: cfg.MaxRetries,
	})

	sink := usecase.NewPersistenceSink(
		a.txManager,
		a.paymentRepo,
		a.trustlineRepo,
		a.checkpointRepo,
		postgresRepo.NewRetrier(log),
		log,
	)

	ingestCfg := usecase.IngestConfig{
		Fetcher:           retriever,
		Decoder:           decoder.NewDecoder(),
		Projector:         usecase.NewProjector(target, postgresRepo.NewULIDGenerator()),
		Sink:              sink,
		CheckpointRepo:    a.checkpointRepo,
		Metrics:           m,
		Logger:            log,
		NetworkPassphrase: cfg.NetworkPassphrase,
	}

	checks := []handler.Check{
		{Name: "postgres", Ping: a.pool.Ping},
		{Name: "archive", Ping: retriever.Ping},
	}

	g, gctx := errgroup.WithContext(ctx)

	// Ingestion ending for any reason stops the ops server and the lock.
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	if a.redis != nil {
		ingestCfg.Notifier = redisRepo.NewNotifier(a.redis, cfg.RedisStream)
		checks = append(checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return a.redis.Ping(ctx).Err() },
		})

		lock := redisRepo.NewLock(a.redis, cfg.LockKey(), lockOwner(), cfg.LockTTL)
		if err := lock.Acquire(ctx); err != nil {
			return fmt.Errorf("failed to acquire collector lock %s: %w", cfg.LockKey(), err)
		}
		defer lock.Release(context.WithoutCancel(ctx))

		g.Go(func() error {
			if err := lock.Keep(runCtx); err != nil {
				return fmt.Errorf("collector lock lost: %w", err)
			}
			return nil
		})
	}

	ingest := usecase.NewIngestUseCase(ingestCfg)

	g.Go(func() error {
		defer cancelRun()
		return ingest.Run(gctx)
	})

	if cfg.HTTPPort != "" {
		router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
			HealthHandler: handler.NewHealthHandler(checks...),
			StatusHandler: handler.NewStatusHandler(ingest, a.checkpoints),
			Metrics:       m,
			Gatherer:      registry,
			Logger:        log,
		})
		g.Go(func() error {
			return serve(runCtx, cfg, router, log)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("collector stopped")
		return err
	}

	log.Info().Msg("collector stopped")
	return nil
}

// serve runs the ops HTTP server until ctx is done.
func serve(ctx context.Context, cfg *config.Config, router http.Handler, log zerolog.Logger) error {
	server := &http.Server{
		Addr:         net.JoinHostPort("", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("ops server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server forced to shutdown: %w", err)
	}

	log.Info().Msg("ops server stopped")
	return nil
}
