package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loziogigio/vinc-pim-sub001/internal/enrich"
	"github.com/loziogigio/vinc-pim-sub001/internal/service"
	"github.com/loziogigio/vinc-pim-sub001/pkg/health"
	"github.com/loziogigio/vinc-pim-sub001/pkg/middleware"
)

// NewRouter creates a chi router with all search routes registered.
func NewRouter(
	searchService *service.SearchService,
	cache *enrich.CacheStore,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("search"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	searchHandler := NewSearchHandler(searchService, cache, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Use(RequireTenant)
		r.Use(ContentTypeJSON)
		r.Post("/", searchHandler.Search)
		r.Post("/facets", searchHandler.Facets)
		r.Post("/cache/clear", searchHandler.ClearCache)
	})

	return r
}
