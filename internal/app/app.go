// Package app wires together all dependencies and runs the search service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/loziogigio/vinc-pim-sub001/internal/config"
	"github.com/loziogigio/vinc-pim-sub001/internal/engine/solr"
	"github.com/loziogigio/vinc-pim-sub001/internal/enrich"
	"github.com/loziogigio/vinc-pim-sub001/internal/event"
	"github.com/loziogigio/vinc-pim-sub001/internal/facet"
	handler "github.com/loziogigio/vinc-pim-sub001/internal/handler/http"
	"github.com/loziogigio/vinc-pim-sub001/internal/query"
	"github.com/loziogigio/vinc-pim-sub001/internal/service"
	storemongo "github.com/loziogigio/vinc-pim-sub001/internal/store/mongo"
	"github.com/loziogigio/vinc-pim-sub001/internal/transform"
	"github.com/loziogigio/vinc-pim-sub001/pkg/health"
	pkgkafka "github.com/loziogigio/vinc-pim-sub001/pkg/kafka"
)

// App holds the running components of the search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *storemongo.Store
	consumer   *pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates the application with all dependencies wired.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Search engine.
	eng := solr.New(solr.Config{
		BaseURL:    cfg.SolrURL,
		CorePrefix: cfg.SolrCorePrefix,
	}, logger)
	logger.Info("solr engine initialized",
		slog.String("url", cfg.SolrURL),
		slog.String("core_prefix", cfg.SolrCorePrefix),
	)

	// Document store.
	st, err := storemongo.Connect(ctx, storemongo.Config{
		URI:      cfg.MongoURI,
		DBPrefix: cfg.MongoDBPrefix,
		Timeout:  cfg.MongoTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init document store: %w", err)
	}

	// Search pipeline.
	facets := facet.NewConfig()
	builder := query.NewBuilder(facets, cfg.MaxRows)
	transformer := transform.New(facets, logger)
	cache := enrich.NewCacheStore(cfg.CacheTTL)
	enricher := enrich.New(st, cache, facets, logger)

	searchService := service.NewSearchService(eng, builder, transformer, enricher, logger)

	// Cache invalidation consumer. Invalidation is idempotent, but the
	// idempotency guard keeps replayed batches from producing a log line
	// per duplicate.
	var consumer *pkgkafka.Consumer
	if cfg.KafkaEnabled {
		invalidator := event.NewInvalidator(cache, logger)
		idem := pkgkafka.NewMemoryIdempotencyStore(10 * time.Minute)
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  "search-service",
			Topic:    event.TopicEntityUpdated,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(idem, invalidator.Handle, logger), logger)
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", event.TopicEntityUpdated),
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("solr", eng.Ping)
	healthHandler.Register("mongodb", st.Ping)
	if cfg.KafkaEnabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	router := handler.NewRouter(searchService, cache, healthHandler, logger, cfg.PprofAllowedCIDRs)

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
		store:      st,
		consumer:   consumer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and the Kafka consumer, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
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

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.logger.Error("document store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
