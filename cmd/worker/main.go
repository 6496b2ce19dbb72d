// Package main is the entry point of the background worker.
//
// The worker keeps the popularity counter honest: it periodically removes
// counter entries whose place has been deleted, so top places and
// popularity search stop paying for ghosts.
//
// Run with -once to execute every job a single time and exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hjun-park/backend/config"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/postgres"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/redis"
	"github.com/hjun-park/backend/internal/infrastructure/scheduler"
	"github.com/hjun-park/backend/internal/infrastructure/scheduler/jobs"
	"github.com/hjun-park/backend/pkg/circuitbreaker"
	"github.com/hjun-park/backend/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run every job once and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *once); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, once bool) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.Redis.Disabled {
		return errors.New("the worker needs Redis, REDIS_DISABLED must be false")
	}

	log := setupLogger(cfg)
	log.Info("starting worker", logger.String("env", string(cfg.App.Environment)), logger.Bool("once", once))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := postgres.NewConnection(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	cache, err := redis.NewCache(ctx, redisConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer cache.Close()

	breaker := circuitbreaker.PopularityStoreBreaker(func(name string, from, to circuitbreaker.State) {
		m.IncBreakerTransition(name, to.String())
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	counter := redis.NewPopularityCounter(cache, breaker, m)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. JOBS
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log, Metrics: m})

	prune := jobs.NewPrunePopularityJob(counter, postgres.NewPlaceRepository(conn), m, log, jobs.PrunePopularityConfig{
		Window: cfg.Popularity.PruneWindow,
	})
	schedule, err := pruneSchedule(cfg.Popularity)
	if err != nil {
		return err
	}
	if err := sched.Register(prune, schedule); err != nil {
		return fmt.Errorf("failed to register %s: %w", prune.Name(), err)
	}

	if once {
		var failed error
		for _, info := range sched.ListJobs() {
			if _, err := sched.RunNow(ctx, info.Name); err != nil {
				failed = errors.Join(failed, fmt.Errorf("%s: %w", info.Name, err))
			}
		}
		return failed
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. RUN
	// ─────────────────────────────────────────────────────────────────────────
	var metricsServer *http.Server
	if cfg.Observability.MetricsEnabled && cfg.Observability.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", logger.Err(err))
			}
		}()
		log.Info("metrics server listening", logger.String("address", cfg.Observability.MetricsAddr))
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	<-ctx.Done()
	log.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown failed", logger.Err(err))
		}
	}
	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", logger.Err(err))
	}

	log.Info("shutdown completed")
	return nil
}

// pruneSchedule prefers the explicit schedule expression over the interval.
func pruneSchedule(cfg config.PopularityConfig) (scheduler.Schedule, error) {
	if cfg.PruneSchedule != "" {
		s, err := scheduler.ParseSchedule(cfg.PruneSchedule)
		if err != nil {
			return nil, fmt.Errorf("invalid POPULARITY_PRUNE_SCHEDULE: %w", err)
		}
		return s, nil
	}
	if cfg.PruneInterval <= 0 {
		return nil, errors.New("POPULARITY_PRUNE_INTERVAL must be positive")
	}
	return scheduler.NewIntervalSchedule(cfg.PruneInterval), nil
}

func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	if cfg.Observability.LogFormat == string(logger.FormatText) {
		opts.Format = logger.FormatText
	}
	return logger.New(opts).With(logger.String("service", cfg.App.Name+"-worker"))
}
