package usecase

import (
	"strings"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

// MatchesFilter tests a product against every constraint present in the filter,
// combined with logical AND. Range bounds are inclusive; a missing product attribute
// counts as 0. Brand and category compare as case-insensitive equality. An empty
// filter matches every product; that emptiness is the signal that keyword relevance
// governs the turn instead.
func MatchesFilter(p domain.Product, spec domain.FilterSpec) bool {
	if spec.Price != nil && !spec.Price.Contains(p.Price) {
		return false
	}
	if spec.Rating != nil && !spec.Rating.Contains(p.Rating) {
		return false
	}
	if spec.Stock != nil && !spec.Stock.Contains(float64(p.Stock)) {
		return false
	}
	if brand := strings.TrimSpace(spec.Brand); brand != "" && !strings.EqualFold(brand, strings.TrimSpace(p.Brand)) {
		return false
	}
	if category := strings.TrimSpace(spec.Category); category != "" && !strings.EqualFold(category, strings.TrimSpace(p.Category)) {
		return false
	}
	return true
}
