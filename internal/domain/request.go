package domain

// SortOrder is the direction of an explicit sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOption is an explicit sort requested by the caller. Field names are
// logical and mapped to engine fields (with a language suffix for text
// fields) by the facet configuration.
type SortOption struct {
	Field string    `json:"field" validate:"required"`
	Order SortOrder `json:"order" validate:"omitempty,oneof=asc desc"`
}

// GroupOptions controls generic result grouping.
type GroupOptions struct {
	Field    string `json:"field" validate:"required"`
	Limit    int    `json:"limit,omitempty"`
	Sort     string `json:"sort,omitempty"`
	NGroups  bool   `json:"ngroups,omitempty"`
	Main     bool   `json:"main,omitempty"`
	Truncate bool   `json:"truncate,omitempty"`
}

// SearchFilters maps a logical filter field to a scalar, an array of
// scalars, or (for price) the pseudo-fields price_min / price_max.
type SearchFilters map[string]any

// SearchRequest is a structured product search request.
type SearchRequest struct {
	Text string `json:"text,omitempty"`
	Lang string `json:"lang" validate:"omitempty,bcp47_language_tag"`

	Start int `json:"start,omitempty" validate:"gte=0"`
	Rows  int `json:"rows,omitempty" validate:"gte=0"`

	Filters SearchFilters `json:"filters,omitempty"`
	Sort    *SortOption   `json:"sort,omitempty"`

	Fuzzy    bool `json:"fuzzy,omitempty"`
	FuzzyNum int  `json:"fuzzy_num,omitempty" validate:"gte=0,lte=2"`

	Group *GroupOptions `json:"group,omitempty"`
	// GroupVariants groups by parent entity code with an unlimited
	// per-group cap, nesting every variant under its parent.
	GroupVariants bool `json:"group_variants,omitempty"`

	FacetFields []string `json:"facet_fields,omitempty"`

	// NoDefaultFilter disables the default restriction to
	// storefront-searchable documents.
	NoDefaultFilter bool `json:"no_default_filter,omitempty"`
}

// FacetRequest is a facet-only request: no documents are fetched, the limit,
// mincount and sort below apply to facet buckets.
type FacetRequest struct {
	Text string `json:"text,omitempty"`
	Lang string `json:"lang" validate:"omitempty,bcp47_language_tag"`

	Filters SearchFilters `json:"filters,omitempty"`

	FacetFields []string `json:"facet_fields" validate:"required,min=1"`
	Limit       int      `json:"limit,omitempty" validate:"gte=0"`
	MinCount    int      `json:"mincount,omitempty" validate:"gte=0"`
	Sort        string   `json:"sort,omitempty" validate:"omitempty,oneof=count index"`

	NoDefaultFilter bool `json:"no_default_filter,omitempty"`
}
