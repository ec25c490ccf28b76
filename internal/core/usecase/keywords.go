package usecase

import (
	"strings"
	"unicode"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

// stopwords are filler tokens that carry no product meaning. Verbs of intent
// ("show", "find") are included because refined queries still start with them.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "for": {},
	"with": {}, "to": {}, "in": {}, "on": {}, "at": {}, "by": {}, "from": {},
	"me": {}, "my": {}, "i": {}, "we": {}, "you": {}, "it": {}, "is": {}, "are": {},
	"show": {}, "find": {}, "give": {}, "get": {}, "want": {}, "need": {},
	"some": {}, "any": {}, "all": {}, "more": {}, "new": {}, "please": {},
	"under": {}, "over": {}, "below": {}, "above": {}, "between": {},
	"cheap": {}, "cheaper": {}, "similar": {}, "like": {}, "products": {}, "product": {},
	"items": {}, "item": {}, "things": {}, "stuff": {},
}

// ExtractKeywords derives the ordered keyword set from a refined query: lower-cased
// word tokens with stop-words and purely numeric tokens removed. Derived per turn,
// never persisted.
func ExtractKeywords(refinedQuery string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(refinedQuery), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) < 2 || isNumericToken(token) {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// MatchesKeywords keeps a product only when at least one keyword occurs,
// case-insensitively, in its title, brand, category or description. Fail-closed: no
// keywords means no match, never "keep everything".
func MatchesKeywords(p domain.Product, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	haystack := strings.ToLower(p.Title + " " + p.Brand + " " + p.Category + " " + p.Description)
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

func isNumericToken(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// genericQueries is the fixed generic-intent set requesting the unfiltered catalog.
var genericQueries = map[string]struct{}{
	"all products":         {},
	"show me all products": {},
	"give all products":    {},
	"show everything":      {},
	"everything":           {},
}

// IsGenericQuery reports whether the refined query asks for the full product set.
func IsGenericQuery(refinedQuery string) bool {
	_, ok := genericQueries[strings.ToLower(strings.TrimSpace(refinedQuery))]
	return ok
}
