// Package store defines the document-store boundary: read-only, batched,
// tenant-scoped lookups against the authoritative product database.
package store

import (
	"context"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
)

// Entity collection names the enricher loads per tenant.
const (
	CollectionBrands       = "brands"
	CollectionCategories   = "categories"
	CollectionCollections  = "collections"
	CollectionProductTypes = "product_types"
	CollectionTags         = "tags"
	CollectionProducts     = "products"
)

// EntityCollections lists the taxonomy collections cached by the enricher.
var EntityCollections = []string{
	CollectionBrands,
	CollectionCategories,
	CollectionCollections,
	CollectionProductTypes,
	CollectionTags,
}

// Store is the read-only document-store boundary, scoped per tenant
// database.
type Store interface {
	// LoadCollection returns every current record of a collection keyed
	// by id.
	LoadCollection(ctx context.Context, tenant, collection string) (map[string]domain.Entity, error)

	// ProductsByEntityCodes returns the current product records for the
	// given entity codes, keyed by entity code.
	ProductsByEntityCodes(ctx context.Context, tenant string, codes []string) (map[string]domain.Entity, error)

	Ping(ctx context.Context) error
}
