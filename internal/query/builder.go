// Package query compiles structured search and facet requests into engine
// query objects: boosted relevance query, filter clauses, sort, grouping and
// facet parameters.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
	"github.com/loziogigio/vinc-pim-sub001/internal/engine"
	"github.com/loziogigio/vinc-pim-sub001/internal/facet"
)

const (
	defaultRows     = 24
	defaultLang     = "it"
	defaultFuzzyNum = 2

	defaultFacetLimit    = 100
	defaultFacetMinCount = 1
	defaultFacetSort     = "count"

	// variantGroupField is the field variant grouping keys on: each group
	// value is the parent's entity code.
	variantGroupField = "parent_entity_code"

	// defaultFilter restricts results to storefront-searchable documents.
	defaultFilter = "is_searchable:true"
)

// Builder compiles SearchRequest / FacetRequest into engine queries.
type Builder struct {
	facets  *facet.Config
	maxRows int
}

// NewBuilder creates a query builder. maxRows caps the per-request page size.
func NewBuilder(fc *facet.Config, maxRows int) *Builder {
	if maxRows <= 0 {
		maxRows = 100
	}
	return &Builder{facets: fc, maxRows: maxRows}
}

// BuildSearch compiles a search request.
func (b *Builder) BuildSearch(req *domain.SearchRequest) *engine.Query {
	lang := req.Lang
	if lang == "" {
		lang = defaultLang
	}

	start := req.Start
	if start < 0 {
		start = 0
	}
	rows := req.Rows
	if rows <= 0 {
		rows = defaultRows
	}
	if rows > b.maxRows {
		rows = b.maxRows
	}

	q := &engine.Query{
		Query:  b.buildMainQuery(req.Text, lang, req.Fuzzy, req.FuzzyNum),
		Filter: b.buildFilters(req.Filters, req.NoDefaultFilter),
		Offset: start,
		Limit:  rows,
		Fields: "*",
	}

	sortClause := b.buildSort(req, lang)

	group := req.Group
	if req.GroupVariants {
		// Sugar for parent grouping with an uncapped per-group fetch:
		// every variant of a matching parent comes back, not a sample.
		group = &domain.GroupOptions{Field: variantGroupField, Limit: -1, NGroups: true}
	}

	if group != nil {
		// When grouping, the requested sort becomes the intra-group sort
		// and the top-level sort is omitted.
		q.Params = groupParams(group, sortClause)
	} else {
		q.Sort = sortClause
	}

	if len(req.FacetFields) > 0 {
		q.Facet = b.buildFacetClauses(req.FacetFields, defaultFacetLimit, defaultFacetMinCount, defaultFacetSort)
	}

	return q
}

// BuildFacet compiles a facet-only request: zero rows, facets only. The
// main query defaults to match-all when no text is given.
func (b *Builder) BuildFacet(req *domain.FacetRequest) *engine.Query {
	lang := req.Lang
	if lang == "" {
		lang = defaultLang
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultFacetLimit
	}
	mincount := req.MinCount
	if mincount <= 0 {
		mincount = defaultFacetMinCount
	}
	facetSort := req.Sort
	if facetSort == "" {
		facetSort = defaultFacetSort
	}

	return &engine.Query{
		Query:  b.buildMainQuery(req.Text, lang, false, 0),
		Filter: b.buildFilters(req.Filters, req.NoDefaultFilter),
		Offset: 0,
		Limit:  0,
		Fields: "*",
		Facet:  b.buildFacetClauses(req.FacetFields, limit, mincount, facetSort),
	}
}

// buildMainQuery builds the boosted relevance query string.
func (b *Builder) buildMainQuery(text, lang string, fuzzy bool, fuzzyNum int) string {
	var clauses []string

	text = strings.TrimSpace(text)
	if text == "" {
		clauses = append(clauses, "*:*")
		clauses = append(clauses, imageBoostClauses()...)
		return strings.Join(clauses, " ")
	}

	// Raw terms are kept for phrase boosting: a phrase stays literal even
	// when one of its words is a stopword.
	raw := strings.Fields(strings.ToLower(text))
	terms := FilterStopwords(raw, lang)

	if fuzzy && fuzzyNum <= 0 {
		fuzzyNum = defaultFuzzyNum
	}

	fields := searchFields(lang)
	n := len(terms)
	for i, term := range terms {
		esc := EscapeTerm(term)

		parts := make([]string, 0, len(fields)*2)
		for _, f := range fields {
			if f.exact > 0 {
				if fuzzy {
					parts = append(parts, fmt.Sprintf("%s:%s~%d^%s", f.name, esc, fuzzyNum, fmtBoost(f.exact)))
				} else {
					parts = append(parts, fmt.Sprintf("%s:%s^%s", f.name, esc, fmtBoost(f.exact)))
				}
			}
			if f.prefix > 0 {
				parts = append(parts, fmt.Sprintf("%s:%s*^%s", f.name, esc, fmtBoost(f.prefix)))
			}
			if f.contains > 0 {
				parts = append(parts, fmt.Sprintf("%s:*%s*^%s", f.name, esc, fmtBoost(f.contains)))
			}
		}

		// Every term must match somewhere; earlier terms weigh more.
		clauses = append(clauses, fmt.Sprintf("+(%s)^%s",
			strings.Join(parts, " OR "), fmtBoost(positionBoost(i, n))))
	}

	nameSort := sortableNameField(lang)

	// Name-locality boost: the term near the start of the product name.
	for _, term := range terms {
		clauses = append(clauses, fmt.Sprintf("%s:/.{0,%d}%s.*/^%d",
			nameSort, nameEarlyWindow, escapeRegex(term), nameEarlyBoost))
	}

	// Phrase boost over adjacent raw-term pairs.
	for i := 0; i+1 < len(raw); i++ {
		pair := raw[i] + " " + raw[i+1]
		wild := strings.ReplaceAll(EscapeTerm(pair), " ", `\ `)
		clauses = append(clauses, fmt.Sprintf("%s:*%s*^%d", nameSort, wild, phraseBoost))
		clauses = append(clauses, fmt.Sprintf("%s:/.{0,%d}%s.*/^%d",
			nameSort, phraseEarlyWindow, escapeRegex(pair), phraseEarlyBoost))
	}

	clauses = append(clauses, imageBoostClauses()...)
	return strings.Join(clauses, " ")
}

// positionBoost returns 1.5 x (n - i) for term i of n; a single-term query
// gets no positional advantage.
func positionBoost(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return positionBoostFactor * float64(n-i)
}

// imageBoostClauses is a constant tie-breaker favoring documents with more
// images, applied identically with and without free text.
func imageBoostClauses() []string {
	return []string{
		"image_count:[1 TO 2]^2",
		"image_count:[3 TO 4]^4",
		"image_count:[5 TO *]^6",
	}
}

// buildFilters maps request filters to engine filter clauses. Keys are
// processed in sorted order so compiled queries are deterministic.
func (b *Builder) buildFilters(filters domain.SearchFilters, noDefault bool) []string {
	var out []string

	var priceMin, priceMax string
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := filters[key]
		switch key {
		case "price_min":
			priceMin = formatScalar(val)
			continue
		case "price_max":
			priceMax = formatScalar(val)
			continue
		}

		field := b.facets.FilterField(key)
		if clause := filterClause(field, val); clause != "" {
			out = append(out, clause)
		}
	}

	if priceMin != "" || priceMax != "" {
		if priceMin == "" {
			priceMin = "*"
		}
		if priceMax == "" {
			priceMax = "*"
		}
		out = append(out, fmt.Sprintf("price:[%s TO %s]", priceMin, priceMax))
	}

	if !noDefault {
		out = append(out, defaultFilter)
	}

	return out
}

// filterClause renders one field filter: scalars become an equality clause,
// arrays an OR-of-equality clause.
func filterClause(field string, val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case []any:
		if len(v) == 0 {
			return ""
		}
		tokens := make([]string, 0, len(v))
		for _, item := range v {
			tokens = append(tokens, valueToken(formatScalar(item)))
		}
		return fmt.Sprintf("%s:(%s)", field, strings.Join(tokens, " OR "))
	case []string:
		if len(v) == 0 {
			return ""
		}
		tokens := make([]string, 0, len(v))
		for _, item := range v {
			tokens = append(tokens, valueToken(item))
		}
		return fmt.Sprintf("%s:(%s)", field, strings.Join(tokens, " OR "))
	default:
		return fmt.Sprintf("%s:%s", field, valueToken(formatScalar(val)))
	}
}

// valueToken renders a single filter value: deliberate wildcards keep their
// `*` unescaped, values with whitespace or reserved punctuation are
// phrase-quoted, everything else is escaped inline.
func valueToken(s string) string {
	if strings.Contains(s, "*") {
		return EscapeWildcardValue(s)
	}
	if needsQuoting(s) {
		quoted := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
		return `"` + quoted + `"`
	}
	return EscapeTerm(s)
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// buildSort resolves the sort clause. Explicit sorts map through the facet
// configuration; otherwise free-text queries rank by relevance (no clause)
// and browsing queries surface newest items first.
func (b *Builder) buildSort(req *domain.SearchRequest, lang string) string {
	if req.Sort != nil {
		order := req.Sort.Order
		if order == "" {
			order = domain.SortAsc
		}
		return b.facets.SortField(req.Sort.Field, lang) + " " + string(order)
	}
	if strings.TrimSpace(req.Text) == "" {
		return "created_at desc"
	}
	return ""
}

// groupParams renders the engine grouping flags.
func groupParams(g *domain.GroupOptions, sortClause string) map[string]any {
	p := map[string]any{
		"group":       true,
		"group.field": g.Field,
	}
	if g.Limit != 0 {
		p["group.limit"] = g.Limit
	}
	switch {
	case g.Sort != "":
		p["group.sort"] = g.Sort
	case sortClause != "":
		p["group.sort"] = sortClause
	}
	if g.NGroups {
		p["group.ngroups"] = true
	}
	if g.Main {
		p["group.main"] = true
	}
	if g.Truncate {
		p["group.truncate"] = true
	}
	return p
}

// buildFacetClauses compiles the requested facet fields. Range configs
// become range facets with start/end/gap derived from the configured
// buckets; everything else becomes a terms facet. Fields backed by a
// related-entity collection get a domain filter excluding empty values so a
// missing id never shows up as a spurious bucket.
func (b *Builder) buildFacetClauses(fields []string, limit, mincount int, facetSort string) map[string]engine.FacetClause {
	out := make(map[string]engine.FacetClause, len(fields))

	for _, field := range fields {
		cfg, ok := b.facets.ConfigFor(field)
		if !ok {
			continue
		}

		if cfg.Kind == facet.KindRange && len(cfg.Ranges) > 0 {
			first := cfg.Ranges[0]
			last := cfg.Ranges[len(cfg.Ranges)-1]

			start := 0.0
			if first.From != nil {
				start = *first.From
			}
			gap := 0.0
			if first.To != nil {
				gap = *first.To - start
			}
			end := start + gap*float64(len(cfg.Ranges))
			if last.To != nil {
				end = *last.To
			}

			out[field] = engine.FacetClause{
				Type:  "range",
				Field: field,
				Start: &start,
				End:   &end,
				Gap:   &gap,
			}
			continue
		}

		clause := engine.FacetClause{
			Type:     "terms",
			Field:    field,
			Limit:    limit,
			MinCount: mincount,
			Sort:     facetSort,
		}
		if cfg.RelatedCollection != "" {
			clause.Domain = &engine.FacetDomain{
				Filter: fmt.Sprintf(`%s:[* TO *] AND -%s:""`, field, field),
			}
		}
		out[field] = clause
	}

	return out
}

// fmtBoost renders a boost without trailing zeros (1.5, 3, 4.5).
func fmtBoost(b float64) string {
	return strconv.FormatFloat(b, 'g', -1, 64)
}
