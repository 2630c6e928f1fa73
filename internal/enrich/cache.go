package enrich

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_hits_total",
			Help: "Tenant entity cache hits",
		},
		[]string{"collection"},
	)

	cacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_misses_total",
			Help: "Tenant entity cache misses (expired or absent)",
		},
		[]string{"collection"},
	)
)

type cacheKey struct {
	tenant     string
	collection string
}

type cacheEntry struct {
	data     map[string]domain.Entity
	loadedAt time.Time
}

// CacheStore holds the per-tenant, per-collection entity caches used by the
// enricher. It is the only mutable state shared across requests: entries are
// lazily populated on first miss, expire after a fixed TTL, and can be
// cleared explicitly. Concurrent misses may each trigger a reload; the last
// write wins, which is accepted since both reloads converge within the TTL
// window.
type CacheStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[cacheKey]*cacheEntry

	// now is swappable in tests.
	now func() time.Time
}

// DefaultCacheTTL bounds entity staleness between reloads.
const DefaultCacheTTL = 60 * time.Second

// NewCacheStore creates an empty cache store.
func NewCacheStore(ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheStore{
		ttl:     ttl,
		entries: make(map[cacheKey]*cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached data for (tenant, collection), or false when absent
// or past the TTL.
func (c *CacheStore) Get(tenant, collection string) (map[string]domain.Entity, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey{tenant, collection}]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.loadedAt) > c.ttl {
		cacheMissesTotal.WithLabelValues(collection).Inc()
		return nil, false
	}
	cacheHitsTotal.WithLabelValues(collection).Inc()
	return entry.data, true
}

// Set stores freshly loaded data for (tenant, collection).
func (c *CacheStore) Set(tenant, collection string, data map[string]domain.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{tenant, collection}] = &cacheEntry{data: data, loadedAt: c.now()}
}

// Clear drops one (tenant, collection) entry.
func (c *CacheStore) Clear(tenant, collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{tenant, collection})
}

// ClearTenant drops every entry of a tenant.
func (c *CacheStore) ClearTenant(tenant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.tenant == tenant {
			delete(c.entries, k)
		}
	}
}
