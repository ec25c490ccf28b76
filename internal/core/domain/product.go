package domain

import (
	"strconv"
	"strings"
)

// Product is a single catalog item as both backends describe it. Immutable within a
// turn once retrieved.
type Product struct {
	ID          int64   `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Stock       int     `json:"stock,omitempty"`
	Thumbnail   string  `json:"thumbnail"`
}

// MergeKey is the identity used when merging result sets from several sources within
// one turn. Prefers the stable numeric ID; items without one fall back to the
// lower-cased title.
func (p Product) MergeKey() string {
	if p.ID != 0 {
		return "id:" + strconv.FormatInt(p.ID, 10)
	}
	return "title:" + strings.ToLower(strings.TrimSpace(p.Title))
}

// TitleKey is the cross-turn identity. The response writer re-describes items by
// title, so the title is the only signal available for session deduplication.
func (p Product) TitleKey() string {
	return strings.ToLower(strings.TrimSpace(p.Title))
}

// ValidateSchema checks the output contract: title, brand, category and thumbnail
// present, price non-negative, rating within [0, 5].
func (p Product) ValidateSchema() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return WrapError(ErrSchemaViolation, "validate product", errFieldMissing("title"))
	case strings.TrimSpace(p.Brand) == "":
		return WrapError(ErrSchemaViolation, "validate product", errFieldMissing("brand"))
	case strings.TrimSpace(p.Category) == "":
		return WrapError(ErrSchemaViolation, "validate product", errFieldMissing("category"))
	case strings.TrimSpace(p.Thumbnail) == "":
		return WrapError(ErrSchemaViolation, "validate product", errFieldMissing("thumbnail"))
	case p.Price < 0:
		return WrapError(ErrSchemaViolation, "validate product", errFieldRange("price"))
	case p.Rating < 0 || p.Rating > 5:
		return WrapError(ErrSchemaViolation, "validate product", errFieldRange("rating"))
	}
	return nil
}

type fieldError struct {
	field  string
	reason string
}

func (e fieldError) Error() string { return "field " + e.field + " " + e.reason }

func errFieldMissing(field string) error { return fieldError{field: field, reason: "is required"} }
func errFieldRange(field string) error   { return fieldError{field: field, reason: "is out of range"} }

// RetrievedProduct is a product tagged with the backend it came from.
type RetrievedProduct struct {
	Product
	Origin Source
}

// RetrievalResult is the merged, pre-reconciliation candidate list for one turn.
// Catalog-origin items come first, then vector-origin items, each in source order.
type RetrievalResult struct {
	Items []RetrievedProduct
}

// Products strips provenance tags.
func (r RetrievalResult) Products() []Product {
	out := make([]Product, 0, len(r.Items))
	for _, item := range r.Items {
		out = append(out, item.Product)
	}
	return out
}
