package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shopfra/catalogsync/internal/config"
	"github.com/shopfra/catalogsync/internal/event"
	handler "github.com/shopfra/catalogsync/internal/handler/http"
	"github.com/shopfra/catalogsync/internal/index"
	esindex "github.com/shopfra/catalogsync/internal/index/elasticsearch"
	"github.com/shopfra/catalogsync/internal/index/memory"
	"github.com/shopfra/catalogsync/internal/repository/postgres"
	"github.com/shopfra/catalogsync/internal/search"
	"github.com/shopfra/catalogsync/internal/service"
	catalogsync "github.com/shopfra/catalogsync/internal/sync"
	"github.com/shopfra/catalogsync/pkg/database"
	"github.com/shopfra/catalogsync/pkg/health"
	pkgkafka "github.com/shopfra/catalogsync/pkg/kafka"
	"github.com/shopfra/catalogsync/pkg/tracing"
)

// App wires together all dependencies and runs the catalog sync service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	kafkaProducer  *pkgkafka.Producer
	reconciler     *catalogsync.Reconciler
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "catalog-sync",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Initialize the search index backend.
	var indexer index.Indexer
	var esClient *esindex.Client
	switch cfg.SearchEngine {
	case "elasticsearch":
		esClient, err = esindex.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, cfg.ElasticsearchTimeout, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init elasticsearch index: %w", err)
		}
		indexer = esClient
		logger.Info("elasticsearch index initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		indexer = memory.New()
		logger.Info("in-memory index initialized")
	}

	// Optional Kafka producer for catalog events.
	var kafkaProducer *pkgkafka.Producer
	var eventProducer *event.Producer
	if cfg.KafkaEnabled {
		kafkaProducer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(kafkaProducer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Optional Redis cache for search results.
	var redisClient *redis.Client
	var resultCache search.ResultCache
	if cfg.CacheEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisConfig())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		resultCache = search.NewRedisCache(redisClient, cfg.CacheTTL)
		logger.Info("search result cache initialized",
			slog.String("host", cfg.RedisHost),
			slog.Duration("ttl", cfg.CacheTTL),
		)
	}

	// Build the dependency graph.
	store := postgres.NewProductRepository(pool)
	coordinator := catalogsync.NewCoordinator(indexer, logger)
	reconciler := catalogsync.NewReconciler(store, indexer, cfg.ReconcileBatchSize, logger)
	catalogService := service.NewCatalogService(store, coordinator, eventProducer, logger)
	searchRouter := search.NewRouter(indexer, resultCache, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("index", indexer.Ping)
	if cfg.KafkaEnabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(catalogService, searchRouter, reconciler, coordinator, indexer, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		kafkaProducer:  kafkaProducer,
		reconciler:     reconciler,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	// Converge the index with the catalog before taking traffic. A failure
	// here is logged, not fatal: the index heals on the next reconciliation.
	if a.cfg.ReconcileOnStart {
		go func() {
			if _, err := a.reconciler.Run(ctx); err != nil {
				a.logger.Warn("startup reconciliation failed",
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.kafkaProducer != nil {
		if err := a.kafkaProducer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
