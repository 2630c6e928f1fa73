// Package http exposes the search API over HTTP.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
	"github.com/loziogigio/vinc-pim-sub001/internal/enrich"
	"github.com/loziogigio/vinc-pim-sub001/internal/service"
	"github.com/loziogigio/vinc-pim-sub001/pkg/httputil"
	"github.com/loziogigio/vinc-pim-sub001/pkg/validator"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	cache   *enrich.CacheStore
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, cache *enrich.CacheStore, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		cache:   cache,
		logger:  logger,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.Search(r.Context(), TenantFromContext(r.Context()), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Facets handles POST /api/v1/search/facets
func (h *SearchHandler) Facets(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req domain.FacetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.Facets(r.Context(), TenantFromContext(r.Context()), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// ClearCacheRequest is the JSON body for the cache invalidation endpoint.
// An empty collection clears every cached collection of the tenant.
type ClearCacheRequest struct {
	Collection string `json:"collection" validate:"omitempty,oneof=brands categories product_types collections tags"`
}

// ClearCache handles POST /api/v1/search/cache/clear
func (h *SearchHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)

	var req ClearCacheRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
		if err := validator.Validate(req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	tenant := TenantFromContext(r.Context())
	if req.Collection == "" {
		h.cache.ClearTenant(tenant)
	} else {
		h.cache.Clear(tenant, req.Collection)
	}

	h.logger.InfoContext(r.Context(), "cache cleared via api",
		slog.String("tenant", tenant),
		slog.String("collection", req.Collection),
	)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"tenant":     tenant,
		"collection": req.Collection,
		"status":     "cleared",
	}})
}
