package domain

import (
	"fmt"
	"strings"
)

// Source identifies a retrieval backend selection.
type Source string

const (
	// SourceCatalog routes to the structured catalog backend only.
	SourceCatalog Source = "catalog"
	// SourceVector routes to the semantic similarity backend only.
	SourceVector Source = "vector"
	// SourceHybrid routes to both backends and merges the results.
	SourceHybrid Source = "hybrid"
)

// ParseSource normalizes classifier output. The classifier historically answered
// with "API" / "Pinecone" style labels, so those aliases stay accepted.
func ParseSource(raw string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "catalog", "api":
		return SourceCatalog, nil
	case "vector", "pinecone", "semantic":
		return SourceVector, nil
	case "hybrid", "both":
		return SourceHybrid, nil
	}
	return "", fmt.Errorf("unknown source %q", raw)
}

// Range is a closed numeric interval. A nil bound means unbounded on that side.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether v lies within the range, bounds inclusive.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// FilterSpec carries the exact numeric and equality constraints the classifier
// extracted from the query. Attribute names are fixed to what Product actually has;
// anything else is rejected at the classifier boundary, not silently ignored.
type FilterSpec struct {
	Price  *Range `json:"price,omitempty"`
	Rating *Range `json:"rating,omitempty"`
	Stock  *Range `json:"stock,omitempty"`

	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
}

// Empty reports whether no constraint is present. An empty spec is the signal that
// keyword relevance governs the turn instead.
func (f FilterSpec) Empty() bool {
	return f.Price == nil && f.Rating == nil && f.Stock == nil &&
		strings.TrimSpace(f.Brand) == "" && strings.TrimSpace(f.Category) == ""
}

// RoutingDecision is the classifier's structured verdict for one turn. Produced once
// per turn, consumed exactly once by the retrieval orchestrator.
type RoutingDecision struct {
	Source       Source     `json:"source"`
	RefinedQuery string     `json:"refined_query"`
	Filter       FilterSpec `json:"filters,omitempty"`
}

// Validate enforces the decision contract. Violations are ErrClassifier: the core
// never re-interprets the raw query to recover.
func (d RoutingDecision) Validate() error {
	switch d.Source {
	case SourceCatalog, SourceVector, SourceHybrid:
	default:
		return WrapError(ErrClassifier, "validate decision", fmt.Errorf("unknown source %q", d.Source))
	}
	if strings.TrimSpace(d.RefinedQuery) == "" {
		return WrapError(ErrClassifier, "validate decision", fmt.Errorf("empty refined query"))
	}
	if err := validateRange("price", d.Filter.Price); err != nil {
		return WrapError(ErrClassifier, "validate decision", err)
	}
	if err := validateRange("rating", d.Filter.Rating); err != nil {
		return WrapError(ErrClassifier, "validate decision", err)
	}
	if err := validateRange("stock", d.Filter.Stock); err != nil {
		return WrapError(ErrClassifier, "validate decision", err)
	}
	return nil
}

func validateRange(attribute string, r *Range) error {
	if r == nil {
		return nil
	}
	if r.Min == nil && r.Max == nil {
		return fmt.Errorf("%s range has no bounds", attribute)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%s range min %v exceeds max %v", attribute, *r.Min, *r.Max)
	}
	return nil
}
