package usecase

import (
	"log/slog"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

// Reconcile reduces the merged candidate list to the products that actually answer
// the decision. Exactly one rule applies per turn, in priority order:
//
//  1. generic query        -> pass everything through unfiltered
//  2. filter spec present  -> exact numeric/equality filters only
//  3. otherwise            -> keyword relevance only, fail-closed
//
// Numeric filters and keyword relevance never stack: an explicit numeric constraint
// must not be pruned further by semantic matching. Survivors are then checked against
// the output schema; a malformed item is dropped and logged, never fatal to the turn.
func Reconcile(result domain.RetrievalResult, decision domain.RoutingDecision, generic bool) []domain.Product {
	candidates := result.Products()

	var kept []domain.Product
	switch {
	case generic:
		kept = candidates
	case !decision.Filter.Empty():
		kept = make([]domain.Product, 0, len(candidates))
		for _, p := range candidates {
			if MatchesFilter(p, decision.Filter) {
				kept = append(kept, p)
			}
		}
	default:
		keywords := ExtractKeywords(decision.RefinedQuery)
		kept = make([]domain.Product, 0, len(candidates))
		for _, p := range candidates {
			if MatchesKeywords(p, keywords) {
				kept = append(kept, p)
			}
		}
	}

	out := make([]domain.Product, 0, len(kept))
	for _, p := range kept {
		if err := p.ValidateSchema(); err != nil {
			slog.Warn("product_dropped", "reason", "schema_violation", "product_id", p.ID, "title", p.Title, "error", err)
			continue
		}
		out = append(out, p)
	}
	return out
}
