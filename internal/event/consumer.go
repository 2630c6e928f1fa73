// Package event consumes catalog change events and invalidates the
// enrichment caches, so document-store edits become visible before the TTL
// expires.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loziogigio/vinc-pim-sub001/internal/enrich"
	"github.com/loziogigio/vinc-pim-sub001/pkg/kafka"
)

const (
	// EventTypeEntityUpdated signals that records of one tenant collection
	// changed (brands, categories, ...).
	EventTypeEntityUpdated = "entity.updated"

	// EventTypeCatalogPublished signals a full catalog republish for a
	// tenant; every cached collection is stale.
	EventTypeCatalogPublished = "catalog.published"
)

// TopicEntityUpdated is the topic carrying both event types.
var TopicEntityUpdated = kafka.Topic("catalog", "updated")

type entityUpdatedPayload struct {
	Tenant     string `json:"tenant"`
	Collection string `json:"collection,omitempty"`
}

// Invalidator translates catalog events into cache invalidations.
type Invalidator struct {
	cache  *enrich.CacheStore
	logger *slog.Logger
}

// NewInvalidator creates a cache invalidator.
func NewInvalidator(cache *enrich.CacheStore, logger *slog.Logger) *Invalidator {
	return &Invalidator{cache: cache, logger: logger}
}

// Handle processes one catalog event. Unknown event types are ignored so
// the topic can grow new producers without breaking this consumer.
func (i *Invalidator) Handle(ctx context.Context, event *kafka.Event) error {
	switch event.EventType {
	case EventTypeEntityUpdated:
		var payload entityUpdatedPayload
		if err := event.UnmarshalData(&payload); err != nil {
			return fmt.Errorf("decode entity.updated payload: %w", err)
		}
		if payload.Tenant == "" {
			return fmt.Errorf("entity.updated: tenant is required")
		}

		if payload.Collection == "" {
			i.cache.ClearTenant(payload.Tenant)
		} else {
			i.cache.Clear(payload.Tenant, payload.Collection)
		}

		i.logger.InfoContext(ctx, "cache invalidated",
			slog.String("tenant", payload.Tenant),
			slog.String("collection", payload.Collection),
		)
		return nil

	case EventTypeCatalogPublished:
		var payload entityUpdatedPayload
		if err := event.UnmarshalData(&payload); err != nil {
			return fmt.Errorf("decode catalog.published payload: %w", err)
		}
		if payload.Tenant == "" {
			return fmt.Errorf("catalog.published: tenant is required")
		}

		i.cache.ClearTenant(payload.Tenant)
		i.logger.InfoContext(ctx, "tenant cache cleared after catalog publish",
			slog.String("tenant", payload.Tenant),
		)
		return nil

	default:
		i.logger.DebugContext(ctx, "ignoring event",
			slog.String("event_type", event.EventType),
		)
		return nil
	}
}
