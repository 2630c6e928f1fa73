// Package facet holds the facet field registry: which fields can be faceted,
// how they are displayed, and how logical filter/sort names map to engine
// field names.
package facet

import (
	"regexp"
	"strings"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
	"github.com/loziogigio/vinc-pim-sub001/pkg/slug"
)

// Kind discriminates the closed set of facet field variants.
type Kind string

const (
	KindFlat         Kind = "flat"
	KindHierarchical Kind = "hierarchical"
	KindBoolean      Kind = "boolean"
	KindRange        Kind = "range"
)

// RangeBucket is one ordered bucket of a range facet. A nil From means -inf,
// a nil To means +inf; only the last bucket may leave To open.
type RangeBucket struct {
	From  *float64
	To    *float64
	Label string
}

// FieldConfig describes one facetable field.
type FieldConfig struct {
	Field string
	Kind  Kind
	Label string
	// ValueLabels maps raw facet values to display labels.
	ValueLabels map[string]string
	// RelatedCollection names the document-store collection holding the
	// entity a bucket value points at (by id), e.g. "brands".
	RelatedCollection string
	Ranges            []RangeBucket

	// Dynamic is set on per-attribute configs synthesized from the field
	// name; AttributeSlug is the slugged attribute key the field encodes.
	// The display label for dynamic fields is resolved lazily from a
	// sampled document's attribute payload.
	Dynamic       bool
	AttributeSlug string
}

// Dynamic attribute facet fields follow the pattern attr_<slug>_<type>,
// where the suffix encodes the value type: _s string, _b boolean, _f numeric.
var dynamicAttrPattern = regexp.MustCompile(`^attr_([a-z0-9_]+)_(s|b|f)$`)

// Config is the static facet registry plus the dynamic-field deriver.
type Config struct {
	static map[string]FieldConfig
}

func f64(v float64) *float64 { return &v }

// NewConfig builds the default registry.
func NewConfig() *Config {
	static := map[string]FieldConfig{
		"brand_id": {
			Field: "brand_id", Kind: KindFlat, Label: "Brand",
			RelatedCollection: "brands",
		},
		"category_id": {
			Field: "category_id", Kind: KindHierarchical, Label: "Category",
			RelatedCollection: "categories",
		},
		"product_type_id": {
			Field: "product_type_id", Kind: KindFlat, Label: "Product type",
			RelatedCollection: "product_types",
		},
		"collection_ids": {
			Field: "collection_ids", Kind: KindFlat, Label: "Collections",
			RelatedCollection: "collections",
		},
		"tag_ids": {
			Field: "tag_ids", Kind: KindFlat, Label: "Tags",
			RelatedCollection: "tags",
		},
		"in_stock": {
			Field: "in_stock", Kind: KindBoolean, Label: "Availability",
			ValueLabels: map[string]string{"true": "In stock", "false": "Out of stock"},
		},
		"has_active_promo": {
			Field: "has_active_promo", Kind: KindBoolean, Label: "On promotion",
			ValueLabels: map[string]string{"true": "On promotion", "false": "Full price"},
		},
		"is_parent": {
			Field: "is_parent", Kind: KindBoolean, Label: "Product family",
		},
		"price": {
			Field: "price", Kind: KindRange, Label: "Price",
			Ranges: []RangeBucket{
				{From: f64(0), To: f64(50), Label: "0 - 50"},
				{From: f64(50), To: f64(100), Label: "50 - 100"},
				{From: f64(100), To: f64(250), Label: "100 - 250"},
				{From: f64(250), To: f64(500), Label: "250 - 500"},
				{From: f64(500), To: f64(1000), Label: "500 - 1000"},
				{From: f64(1000), Label: "1000+"},
			},
		},
	}
	return &Config{static: static}
}

// ConfigFor returns the config for a facet field: static registry entries
// first, then per-attribute configs derived from the field-name pattern.
// The second return value is false for unknown, non-attribute fields.
func (c *Config) ConfigFor(field string) (FieldConfig, bool) {
	if cfg, ok := c.static[field]; ok {
		return cfg, true
	}

	m := dynamicAttrPattern.FindStringSubmatch(field)
	if m == nil {
		return FieldConfig{}, false
	}

	kind := KindFlat
	if m[2] == "b" {
		kind = KindBoolean
	}
	return FieldConfig{
		Field:         field,
		Kind:          kind,
		Dynamic:       true,
		AttributeSlug: m[1],
	}, true
}

// fieldSlug normalizes an attribute key into the underscore form used in
// engine field names.
func fieldSlug(key string) string {
	return strings.ReplaceAll(slug.Generate(key), "-", "_")
}

// AttributeField returns the dynamic facet field name for an attribute key
// and value type suffix ("s", "b" or "f").
func AttributeField(attrKey, suffix string) string {
	return "attr_" + fieldSlug(attrKey) + "_" + suffix
}

// LabelFromAttributes resolves a dynamic field's display label by sampling a
// document's attribute payload for an entry whose slugged key matches the
// field's attribute slug.
func (fc FieldConfig) LabelFromAttributes(attrs []domain.Attribute) string {
	if !fc.Dynamic {
		return fc.Label
	}
	for _, a := range attrs {
		if fieldSlug(a.Key) == fc.AttributeSlug {
			return a.Label
		}
	}
	return ""
}

// filterFieldMap renames logical filter names to engine field names.
var filterFieldMap = map[string]string{
	"brand":        "brand_id",
	"category":     "category_id",
	"product_type": "product_type_id",
	"collection":   "collection_ids",
	"tag":          "tag_ids",
	"stock":        "in_stock",
	"promo":        "has_active_promo",
	"parent":       "parent_entity_code",
}

// FilterField maps a logical filter name to its engine field. Unmapped names
// pass through unchanged.
func (c *Config) FilterField(name string) string {
	if mapped, ok := filterFieldMap[name]; ok {
		return mapped
	}
	return name
}

// textSortFields are sorted on a per-language non-stemmed copy.
var textSortFields = map[string]string{
	"name":        "name_sort",
	"description": "description_sort",
}

// SortField maps a logical sort name to its engine field, appending the
// language suffix for text sort fields. Unmapped names pass through.
func (c *Config) SortField(name, lang string) string {
	if base, ok := textSortFields[name]; ok {
		return base + "_" + lang
	}
	switch name {
	case "relevance":
		return "score"
	case "created":
		return "created_at"
	case "updated":
		return "updated_at"
	case "views":
		return "view_count"
	case "sales":
		return "sales_count"
	}
	return name
}
