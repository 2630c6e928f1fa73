package query

import "strings"

// Per-language function words that the index analyzers strip at index time.
// Leaving them in a multi-term AND query would demand a match the index can
// never produce, so the builder strips them up front.
var stopwords = map[string]map[string]struct{}{
	"it": wordSet(
		"il", "lo", "la", "i", "gli", "le", "un", "uno", "una",
		"di", "a", "da", "in", "con", "su", "per", "tra", "fra",
		"del", "dello", "della", "dei", "degli", "delle",
		"al", "allo", "alla", "ai", "agli", "alle",
		"dal", "dallo", "dalla", "dai", "dagli", "dalle",
		"nel", "nello", "nella", "nei", "negli", "nelle",
		"sul", "sullo", "sulla", "sui", "sugli", "sulle",
		"e", "ed", "o", "od", "ma", "se", "che", "chi", "cui",
		"non", "come", "dove", "quando", "anche", "piu", "più",
		"questo", "questa", "questi", "queste", "quello", "quella",
		"sono", "è", "sia", "ha", "hanno", "essere", "avere",
	),
	"en": wordSet(
		"the", "a", "an", "of", "to", "in", "on", "at", "by", "for",
		"with", "from", "into", "about", "as", "and", "or", "but",
		"if", "that", "which", "who", "whom", "this", "these",
		"those", "not", "no", "is", "are", "was", "were", "be",
		"been", "being", "have", "has", "had", "do", "does", "did",
		"it", "its", "their", "there", "here", "what", "when",
		"where", "how", "all", "any", "both", "each", "more", "most",
	),
	"de": wordSet(
		"der", "die", "das", "den", "dem", "des", "ein", "eine",
		"einen", "einem", "einer", "eines", "und", "oder", "aber",
		"in", "im", "an", "am", "auf", "aus", "bei", "mit", "nach",
		"von", "vom", "zu", "zum", "zur", "für", "fuer", "ohne",
		"ist", "sind", "war", "waren", "hat", "haben", "nicht",
		"auch", "wie", "wo", "wenn", "dass", "dies", "diese",
	),
	"fr": wordSet(
		"le", "la", "les", "un", "une", "des", "du", "de", "d",
		"au", "aux", "et", "ou", "mais", "si", "que", "qui", "quoi",
		"dans", "en", "sur", "sous", "avec", "sans", "pour", "par",
		"ne", "pas", "non", "est", "sont", "était", "ont", "avoir",
		"ce", "cet", "cette", "ces", "son", "sa", "ses", "leur",
	),
	"es": wordSet(
		"el", "la", "los", "las", "un", "una", "unos", "unas",
		"de", "del", "a", "al", "en", "con", "sin", "por", "para",
		"sobre", "entre", "y", "e", "o", "u", "pero", "si", "que",
		"quien", "como", "donde", "cuando", "no", "es", "son",
		"era", "fue", "ha", "han", "este", "esta", "estos", "estas",
	),
}

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// FilterStopwords removes the function words of lang from terms.
//
// Safety rules: a single term is returned unchanged even if it is a
// stopword, and if removal would empty the list the original list is
// returned instead — a non-empty input must never compile to a zero-term
// query. Unknown languages pass through unfiltered.
func FilterStopwords(terms []string, lang string) []string {
	if len(terms) <= 1 {
		return terms
	}

	set, ok := stopwords[strings.ToLower(lang)]
	if !ok {
		return terms
	}

	filtered := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, stop := set[strings.ToLower(t)]; !stop {
			filtered = append(filtered, t)
		}
	}

	if len(filtered) == 0 {
		return terms
	}
	return filtered
}
