package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/loziogigio/vinc-pim-sub001/pkg/httputil"
)

type contextKey string

const tenantKey contextKey = "tenant"

// TenantHeader carries the tenant identifier on every search request.
const TenantHeader = "X-Tenant-ID"

// RequireTenant extracts the tenant id from the request header and rejects
// requests without one. Tenant ids are lowercased so cache keys and
// database names stay case-stable.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := strings.ToLower(strings.TrimSpace(r.Header.Get(TenantHeader)))
		if tenant == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "MISSING_TENANT",
					Message: TenantHeader + " header is required",
				},
			})
			return
		}
		ctx := context.WithValue(r.Context(), tenantKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the tenant id set by RequireTenant.
func TenantFromContext(ctx context.Context) string {
	if tenant, ok := ctx.Value(tenantKey).(string); ok {
		return tenant
	}
	return ""
}

// ContentTypeJSON rejects bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, "application/json") {
			httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "UNSUPPORTED_MEDIA_TYPE",
					Message: "Content-Type must be application/json",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
