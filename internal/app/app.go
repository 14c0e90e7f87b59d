// Package app wires together all dependencies and runs the service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luanvuhlu/compmarket/internal/catalog"
	catalogpg "github.com/luanvuhlu/compmarket/internal/catalog/postgres"
	"github.com/luanvuhlu/compmarket/internal/config"
	"github.com/luanvuhlu/compmarket/internal/event"
	handler "github.com/luanvuhlu/compmarket/internal/handler/http"
	"github.com/luanvuhlu/compmarket/internal/search"
	"github.com/luanvuhlu/compmarket/internal/search/backend"
	esbackend "github.com/luanvuhlu/compmarket/internal/search/backend/elasticsearch"
	"github.com/luanvuhlu/compmarket/internal/search/backend/memory"
	searchpg "github.com/luanvuhlu/compmarket/internal/search/backend/postgres"
	"github.com/luanvuhlu/compmarket/migrations"
	databasepkg "github.com/luanvuhlu/compmarket/pkg/database"
	"github.com/luanvuhlu/compmarket/pkg/health"
	pkgkafka "github.com/luanvuhlu/compmarket/pkg/kafka"
	"github.com/luanvuhlu/compmarket/pkg/middleware"
)

// App wires together all dependencies and runs the service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// PostgreSQL is the catalog's source of truth regardless of which
	// search backend serves queries.
	pgCfg := databasepkg.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPassword
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSLMode

	pool, err := databasepkg.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := databasepkg.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pgRepo := catalogpg.New(pool)
	var repo catalog.Repository = pgRepo

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", pool.Ping)

	if cfg.CacheEnabled {
		redisClient, err := databasepkg.NewRedisClient(ctx, databasepkg.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		repo = catalog.NewCachedRepository(repo, redisClient, cfg.CacheTTL, logger)
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("catalog cache enabled",
			slog.String("host", cfg.RedisHost),
			slog.Duration("ttl", cfg.CacheTTL),
		)
	}

	// Search backend selection.
	var be backend.Backend
	switch cfg.SearchBackend {
	case config.BackendElasticsearch:
		esBe, err := esbackend.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init elasticsearch backend: %w", err)
		}
		be = esBe
		healthHandler.Register("elasticsearch", esBe.Ping)
		logger.Info("elasticsearch search backend initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	case config.BackendMemory:
		be = memory.New()
		logger.Info("in-memory search backend initialized")
	default:
		be = searchpg.New(pool)
		logger.Info("postgres search backend initialized")
	}

	// Kafka producer for product change events.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	publisher := event.NewProducer(producer, logger)
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	catalogService := catalog.NewService(repo, publisher, logger)
	searchService := search.NewService(be, repo, repo, logger)

	// Backends that maintain a secondary index consume product events to
	// stay in sync with the catalog. The postgres backend reads the
	// catalog tables directly and needs no sync.
	var consumers []*pkgkafka.Consumer
	if indexer, ok := be.(backend.Indexer); ok {
		eventConsumer := event.NewConsumer(repo, indexer, logger)
		for _, topic := range eventConsumer.Topics() {
			c := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
				Brokers:  cfg.KafkaBrokers,
				GroupID:  cfg.KafkaGroupID,
				Topic:    topic,
				MinBytes: 1,
				MaxBytes: 10e6, // 10 MB
			}, eventConsumer.Handle, logger)
			consumers = append(consumers, c)
		}
		logger.Info("index sync consumers initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Int("topic_count", len(consumers)),
		)
	}

	router := handler.NewRouter(handler.RouterConfig{
		SearchService:  searchService,
		CatalogService: catalogService,
		ProductLister:  pgRepo,
		HealthHandler:  healthHandler,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.AllowedOrigins,
		},
		Logger: logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		producer:   producer,
		consumers:  consumers,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
