// Package main is the entry point of the places API server.
//
// The server answers ranked place search, top places, nearby search and
// place detail reads, and the place and posting write endpoints. Views
// recorded by place detail reads feed the popularity counter in Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hjun-park/backend/config"
	"github.com/hjun-park/backend/internal/application/command"
	"github.com/hjun-park/backend/internal/application/query"
	"github.com/hjun-park/backend/internal/domain/place"
	"github.com/hjun-park/backend/internal/domain/popularity"
	"github.com/hjun-park/backend/internal/domain/posting"
	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/internal/infrastructure/metrics"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/memory"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/postgres"
	"github.com/hjun-park/backend/internal/infrastructure/persistence/redis"
	httpserver "github.com/hjun-park/backend/internal/interface/http"
	"github.com/hjun-park/backend/internal/interface/http/handlers"
	"github.com/hjun-park/backend/pkg/circuitbreaker"
	"github.com/hjun-park/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// storage bundles the repositories the handlers need, whichever backend serves them.
type storage struct {
	places    place.Repository
	bookmarks place.BookmarkRepository
	postings  posting.Repository
	tx        shared.Transactor
	pinger    handlers.Pinger
	close     func()
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting places API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. METRICS
	// ─────────────────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	counter, closeCounter, err := openCounter(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer closeCounter()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	recorder := command.NewViewRecorder(counter, command.ViewRecorderConfig{
		Timeout:  cfg.Popularity.RecordTimeout,
		Attempts: cfg.Popularity.RecordAttempts,
	}, log, m)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if store.pinger != nil {
		health.AddCheck("postgres", handlers.NewPingCheck(store.pinger))
	}
	health.AddDegradableCheck("popularity", handlers.NewPopularityCheck(counter))

	var auth *httpserver.Authenticator
	if cfg.Auth.JWTSecret != "" {
		auth = httpserver.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		log.Warn("JWT_SECRET is empty, every request is anonymous")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled
	httpCfg.Version = cfg.App.Version

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		SearchPlaces:    query.NewSearchPlacesHandler(store.places, store.bookmarks, counter, log, m, cfg.Search.Parallelism),
		TopPlaces:       query.NewGetTopPlacesHandler(store.places, counter, log, m).WithDefaultLimit(cfg.Popularity.TopDefault),
		NearbyPlaces:    query.NewNearbyPlacesHandler(store.places, cfg.Search.NearbyMaxRadiusKm),
		PlaceDetail:     query.NewGetPlaceDetailHandler(store.places, recorder),
		PlaceChildren:   query.NewPlaceChildrenHandler(store.places),
		Postings:        query.NewPostingsHandler(store.postings),
		PlaceCommands:   command.NewPlaceHandler(store.places, store.tx, log),
		PostingCommands: command.NewPostingHandler(store.postings, store.tx, log),
		Auth:            auth,
		Metrics:         m,
		Gatherer:        reg,
		Logger:          log,
		HealthChecker:   health,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", logger.Err(err))
	}
	recorder.Wait()

	log.Info("shutdown completed")
	return nil
}

// openStorage connects to PostgreSQL, or falls back to the in-memory store
// in development when no database is configured.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Database.URL == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("DATABASE_URL is required outside development")
		}
		log.Warn("DATABASE_URL is empty, using the in-memory store")
		s := memory.NewStore()
		return &storage{
			places:    memory.NewPlaceRepository(s),
			bookmarks: memory.NewBookmarkRepository(s),
			postings:  memory.NewPostingRepository(s),
			tx:        shared.NoopTransactor{},
			close:     func() {},
		}, nil
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	return &storage{
		places:    postgres.NewPlaceRepository(conn),
		bookmarks: postgres.NewBookmarkRepository(conn),
		postings:  postgres.NewPostingRepository(conn),
		tx:        conn,
		pinger:    conn,
		close:     conn.Close,
	}, nil
}

// openCounter connects the Redis popularity counter behind a circuit breaker.
func openCounter(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (popularity.Counter, func(), error) {
	if cfg.Redis.Disabled {
		log.Warn("Redis is disabled, view counts live in process memory")
		return memory.NewPopularityCounter(), func() {}, nil
	}

	cache, err := redis.NewCache(ctx, redisConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("Redis connection established")

	breaker := circuitbreaker.PopularityStoreBreaker(func(name string, from, to circuitbreaker.State) {
		m.IncBreakerTransition(name, to.String())
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	return redis.NewPopularityCounter(cache, breaker, m), func() { _ = cache.Close() }, nil
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
	return logger.New(opts).With(logger.String("service", cfg.App.Name))
}
