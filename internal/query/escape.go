package query

import (
	"strings"
	"unicode"
)

// Characters with query-syntax meaning in the engine's Lucene parser.
const luceneSpecials = `+-&|!(){}[]^"~*?:\/`

// EscapeTerm backslash-escapes every Lucene special character in term so it
// can be embedded in a query clause as a literal.
func EscapeTerm(term string) string {
	var b strings.Builder
	b.Grow(len(term))
	for _, r := range term {
		if strings.ContainsRune(luceneSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeWildcardValue escapes like EscapeTerm but leaves `*` intact, for
// filter values the caller wrote as deliberate wildcards. Whitespace is
// backslash-escaped too: wildcard values cannot be phrase-quoted without
// turning the `*` into a literal, so a bare space would split the value
// into two query tokens.
func EscapeWildcardValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r != '*' && (strings.ContainsRune(luceneSpecials, r) || unicode.IsSpace(r)) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeRegex escapes regex metacharacters for embedding a literal term in
// one of the engine's /.../ regex clauses.
func escapeRegex(term string) string {
	const metas = `\.+*?()|[]{}^$/`
	var b strings.Builder
	b.Grow(len(term))
	for _, r := range term {
		if strings.ContainsRune(metas, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// needsQuoting reports whether a filter value must be phrase-quoted.
func needsQuoting(value string) bool {
	return strings.ContainsAny(value, " \t\n:/+-&|!(){}[]^~?")
}
