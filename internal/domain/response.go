package domain

// FacetEntry is one value bucket of a facet. Label is the human-readable
// value label, KeyLabel the display label of the facet field itself, Entity
// the authoritative related record when the facet points at one (brand,
// category, ...).
type FacetEntry struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Label    string `json:"label,omitempty"`
	KeyLabel string `json:"key_label,omitempty"`
	Entity   Entity `json:"entity,omitempty"`
}

// FacetResults maps a facet field name to its ordered value buckets.
type FacetResults map[string][]FacetEntry

// ProductGroup is one group of a generically grouped result set.
type ProductGroup struct {
	GroupValue string    `json:"group_value"`
	NumFound   int       `json:"num_found"`
	Products   []Product `json:"products"`
}

// SearchResponse is the canonical search result shape. Exactly one of the
// three layouts is populated: flat Results, generic Grouped (with Results
// holding the flattened first page of each group), or variant-grouped
// Results where each row is a parent carrying its Variants.
type SearchResponse struct {
	Results  []Product      `json:"results"`
	NumFound int            `json:"num_found"`
	Start    int            `json:"start"`
	Matches  *int           `json:"matches,omitempty"`
	NGroups  *int           `json:"ngroups,omitempty"`
	Grouped  []ProductGroup `json:"grouped,omitempty"`

	FacetResults FacetResults `json:"facet_results,omitempty"`
}
