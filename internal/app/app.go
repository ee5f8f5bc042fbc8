package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/spolepaka/readventure-sub001/internal/config"
	"github.com/spolepaka/readventure-sub001/internal/db/repository"
	"github.com/spolepaka/readventure-sub001/internal/logging"
	"github.com/spolepaka/readventure-sub001/internal/pipeline"
	"github.com/spolepaka/readventure-sub001/internal/remediation"
	"github.com/spolepaka/readventure-sub001/internal/remediation/ai"
	"github.com/spolepaka/readventure-sub001/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server) and
// the pipeline scheduler.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	pipeline *pipeline.Service
	interval time.Duration
}

// New bootstraps config, logger, Postgres, Redis, the pipeline service and
// the operational HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	questionRepo := repository.NewQuestionRepository(pool)
	repairCache := remediation.NewCache(redisClient, cfg.Pipeline.RepairCacheTTL)

	var generator remediation.Generator
	if cfg.Generator.URL != "" {
		generator = ai.NewGenerator(ai.Config{
			GeneratorURL: cfg.Generator.URL,
			GeneratorKey: cfg.Generator.APIKey,
			Timeout:      cfg.Generator.HTTPTimeout,
		}, logger)
	} else {
		logger.Warn().Msg("GENERATOR_URL not configured; failing questions will be classified but not repaired")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pipeline.NewMetrics(registry)

	pipelineSvc := pipeline.NewService(
		questionRepo,
		repairCache,
		generator,
		metrics,
		pipeline.ServiceOptions{Classifier: remediation.DefaultClassifierConfig()},
		logger,
	)

	httpServer := server.NewHTTPServer(cfg, logger, pool, redisClient, registry)

	return &Application{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		redis:    redisClient,
		http:     httpServer,
		pipeline: pipelineSvc,
		interval: cfg.Pipeline.Interval,
	}, nil
}

// Run starts the HTTP server and the pass scheduler, then waits for
// termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()
	go a.runScheduler(schedCtx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	cancelSched()

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// runScheduler executes one remediation pass immediately, then one per
// interval until the context is canceled.
func (a *Application) runScheduler(ctx context.Context) {
	a.runPass(ctx)

	if a.interval <= 0 {
		return
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("pipeline scheduler stopping")
			return
		case <-ticker.C:
			a.runPass(ctx)
		}
	}
}

func (a *Application) runPass(ctx context.Context) {
	report, err := a.pipeline.RunPass(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("remediation pass failed")
		return
	}
	a.logger.Info().
		Str("run_id", report.RunID).
		Int("total_rows", report.Summary.Total).
		Interface("violation_counts", report.Summary.Violations).
		Msg("pass report ready for export")
}
