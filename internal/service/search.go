// Package service implements the business logic for tenant product search:
// query compilation, engine execution, response transformation and
// document-store enrichment.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
	"github.com/loziogigio/vinc-pim-sub001/internal/engine"
	"github.com/loziogigio/vinc-pim-sub001/internal/enrich"
	"github.com/loziogigio/vinc-pim-sub001/internal/query"
	"github.com/loziogigio/vinc-pim-sub001/internal/transform"
)

var (
	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_request_duration_seconds",
			Help:    "End-to-end search latency including enrichment",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	enrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_enrichment_failures_total",
			Help: "Requests served with engine-only data after an enrichment failure",
		},
		[]string{"operation"},
	)
)

// SearchService orchestrates the search pipeline.
type SearchService struct {
	engine    engine.SearchEngine
	builder   *query.Builder
	transform *transform.Transformer
	enricher  *enrich.Enricher
	logger    *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(eng engine.SearchEngine, builder *query.Builder, tr *transform.Transformer, en *enrich.Enricher, logger *slog.Logger) *SearchService {
	return &SearchService{
		engine:    eng,
		builder:   builder,
		transform: tr,
		enricher:  en,
		logger:    logger,
	}
}

// Search executes a product search for one tenant. Enrichment failures are
// logged and the engine-only response is returned: a stale or unreachable
// document store degrades data quality, never availability.
func (s *SearchService) Search(ctx context.Context, tenant string, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	if tenant == "" {
		return nil, fmt.Errorf("search: tenant is required")
	}

	start := time.Now()
	defer func() {
		searchDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	}()

	q := s.builder.BuildSearch(req)

	resp, err := s.engine.Search(ctx, tenant, q)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", tenant, err)
	}

	out := s.transform.SearchResponse(resp, req)

	if err := s.enricher.Enrich(ctx, tenant, req.Lang, out); err != nil {
		var enrichErr *enrich.Error
		if !errors.As(err, &enrichErr) || ctx.Err() != nil {
			return nil, err
		}
		enrichmentFailures.WithLabelValues("search").Inc()
		s.logger.ErrorContext(ctx, "enrichment failed, serving engine-only results",
			slog.String("tenant", tenant),
			slog.String("op", enrichErr.Op),
			slog.Any("error", enrichErr.Err),
		)
	}

	s.logger.InfoContext(ctx, "search executed",
		slog.String("tenant", tenant),
		slog.String("text", req.Text),
		slog.Int("num_found", out.NumFound),
		slog.Int("results", len(out.Results)),
	)

	return out, nil
}

// Facets executes a facet-only query: zero result rows, every configured
// facet field counted against the given text and filters.
func (s *SearchService) Facets(ctx context.Context, tenant string, req *domain.FacetRequest) (domain.FacetResults, error) {
	if tenant == "" {
		return nil, fmt.Errorf("facets: tenant is required")
	}

	start := time.Now()
	defer func() {
		searchDuration.WithLabelValues("facets").Observe(time.Since(start).Seconds())
	}()

	q := s.builder.BuildFacet(req)

	resp, err := s.engine.Search(ctx, tenant, q)
	if err != nil {
		return nil, fmt.Errorf("facets %q: %w", tenant, err)
	}

	results := s.transform.FacetResponse(resp, req)

	if err := s.enricher.EnrichFacets(ctx, tenant, req.Lang, results); err != nil {
		var enrichErr *enrich.Error
		if !errors.As(err, &enrichErr) || ctx.Err() != nil {
			return nil, err
		}
		enrichmentFailures.WithLabelValues("facets").Inc()
		s.logger.ErrorContext(ctx, "facet enrichment failed, serving engine-only buckets",
			slog.String("tenant", tenant),
			slog.String("op", enrichErr.Op),
			slog.Any("error", enrichErr.Err),
		)
	}

	return results, nil
}
