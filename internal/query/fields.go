package query

// searchField is one row of the relevance weight table. A zero weight
// disables that match tier for the field.
type searchField struct {
	name string
	// exact is the field-scoped exact (or fuzzy) match weight. Zero marks
	// a field used only for prefix logic.
	exact float64
	// prefix is the trailing-wildcard (term*) weight, always below exact.
	// Zero on identifier fields: they match exactly or not at all.
	prefix float64
	// contains is the double-wildcard (*term*) weight, lowest tier,
	// enabled only where it cannot double-boost against exact/prefix.
	contains float64
}

// searchFields returns the ordered weight table for a language.
//
// Identifier fields dominate every text field so that a pasted code always
// outranks name matches; untyped name beats localized name, which beats the
// secondary text fields (brand, tags, description, attributes, specs, meta).
func searchFields(lang string) []searchField {
	return []searchField{
		{name: "entity_code", exact: 10000},
		{name: "ean", exact: 9000},
		{name: "sku", exact: 8000},
		{name: "parent_entity_code", exact: 7000, prefix: 700},
		{name: "parent_sku", exact: 7000, prefix: 700},
		{name: "name", exact: 1000, prefix: 100, contains: 10},
		{name: "name_" + lang, exact: 900, prefix: 90, contains: 9},
		{name: "brand_name", exact: 500, prefix: 50},
		{name: "tags_" + lang, exact: 300, prefix: 30},
		{name: "description_" + lang, exact: 200, prefix: 20, contains: 2},
		{name: "attributes_" + lang, exact: 100, prefix: 10},
		{name: "specs_" + lang, exact: 100, prefix: 10},
		{name: "meta_keywords_" + lang, exact: 100, prefix: 10},
		{name: "slug", prefix: 100},
	}
}

// Boost constants for the clauses stacked on top of the field table.
const (
	// positionBoostFactor weights earlier query terms over later ones.
	positionBoostFactor = 1.5

	// nameEarlyBoost rewards a term appearing within the first
	// nameEarlyWindow characters of the non-stemmed sortable name.
	nameEarlyBoost  = 5000
	nameEarlyWindow = 25

	// phraseBoost rewards an adjacent raw-term pair appearing anywhere in
	// the sortable name; phraseEarlyBoost when it starts within
	// phraseEarlyWindow characters.
	phraseBoost       = 10000
	phraseEarlyBoost  = 20000
	phraseEarlyWindow = 20
)

// sortableNameField is the non-stemmed per-language copy of the name used by
// the locality and phrase boosts.
func sortableNameField(lang string) string {
	return "name_sort_" + lang
}
