// Package engine defines the search-engine boundary: the JSON query object
// understood by the Solr query endpoint and the raw response shape coming
// back, plus the SearchEngine interface the rest of the service depends on.
package engine

import "context"

// Query is the JSON query object posted to the engine's query endpoint.
type Query struct {
	Query  string   `json:"query"`
	Filter []string `json:"filter,omitempty"`
	Sort   string   `json:"sort,omitempty"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
	// Fields is either "*" or a list of field names.
	Fields any                    `json:"fields,omitempty"`
	Facet  map[string]FacetClause `json:"facet,omitempty"`
	// Params carries engine params not covered by the JSON DSL, notably
	// the result-grouping flags.
	Params map[string]any `json:"params,omitempty"`
}

// FacetClause is one facet request in the engine's JSON facet API.
type FacetClause struct {
	Type     string       `json:"type"`
	Field    string       `json:"field"`
	Limit    int          `json:"limit,omitempty"`
	MinCount int          `json:"mincount,omitempty"`
	Sort     string       `json:"sort,omitempty"`
	Start    *float64     `json:"start,omitempty"`
	End      *float64     `json:"end,omitempty"`
	Gap      *float64     `json:"gap,omitempty"`
	Domain   *FacetDomain `json:"domain,omitempty"`
}

// FacetDomain narrows the document set a facet is computed over.
type FacetDomain struct {
	Filter string `json:"filter,omitempty"`
}

// Document is a raw engine document. Field names and value types are
// index-schema driven, so the shape stays dynamic until transformation.
type Document map[string]any

// ResultBlock is the ungrouped result section of an engine response, and
// also the per-group doclist of a grouped response.
type ResultBlock struct {
	NumFound int        `json:"numFound"`
	Start    int        `json:"start"`
	Docs     []Document `json:"docs"`
}

// Group is one group of a grouped engine response.
type Group struct {
	GroupValue any         `json:"groupValue"`
	DocList    ResultBlock `json:"doclist"`
}

// GroupedBlock is the per-field section of a grouped engine response.
type GroupedBlock struct {
	Matches int     `json:"matches"`
	NGroups *int    `json:"ngroups,omitempty"`
	Groups  []Group `json:"groups"`
}

// FacetCounts is the legacy flat facet section
// ([value, count, value, count, ...] per field).
type FacetCounts struct {
	FacetFields map[string][]any `json:"facet_fields"`
}

// Response is the raw engine response. Exactly one of Response or Grouped is
// set; Facets (JSON facet API) and FacetCounts (legacy) are both optional.
type Response struct {
	Response    *ResultBlock            `json:"response,omitempty"`
	Grouped     map[string]GroupedBlock `json:"grouped,omitempty"`
	Facets      map[string]any          `json:"facets,omitempty"`
	FacetCounts *FacetCounts            `json:"facet_counts,omitempty"`
}

// SearchEngine executes compiled queries against a tenant's search core.
type SearchEngine interface {
	Search(ctx context.Context, tenant string, q *Query) (*Response, error)
	Ping(ctx context.Context) error
}
