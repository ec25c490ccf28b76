package usecase

import (
	"testing"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

func validProduct(id int64, title string, price float64) domain.Product {
	return domain.Product{
		ID: id, Title: title, Brand: "Acme", Category: "beauty",
		Price: price, Rating: 4.0, Thumbnail: "https://cdn/p.png",
	}
}

func asResult(products ...domain.Product) domain.RetrievalResult {
	result := domain.RetrievalResult{}
	for _, p := range products {
		result.Items = append(result.Items, domain.RetrievedProduct{Product: p, Origin: domain.SourceCatalog})
	}
	return result
}

func TestReconcileGenericQueryShortCircuitsFiltering(t *testing.T) {
	products := make([]domain.Product, 0, 10)
	for i := int64(1); i <= 10; i++ {
		products = append(products, validProduct(i, "Product", float64(i)))
	}
	decision := domain.RoutingDecision{Source: domain.SourceCatalog, RefinedQuery: "show me all products"}

	kept := Reconcile(asResult(products...), decision, IsGenericQuery(decision.RefinedQuery))
	if len(kept) != 10 {
		t.Fatalf("generic query must return all 10 items unfiltered, got %d", len(kept))
	}
}

func TestReconcileNumericFilterExcludesKeywordPruning(t *testing.T) {
	// "red lipstick under 20" parsed into a price filter only: the blue mascara at
	// 15 stays because the numeric rule alone governs the turn.
	decision := domain.RoutingDecision{
		Source:       domain.SourceCatalog,
		RefinedQuery: "red lipstick under 20",
		Filter:       domain.FilterSpec{Price: &domain.Range{Max: floatPtr(20)}},
	}
	candidates := asResult(
		validProduct(1, "Blue Mascara", 15),
		validProduct(2, "Red Lipstick", 25),
	)

	kept := Reconcile(candidates, decision, false)
	if len(kept) != 1 {
		t.Fatalf("expected exactly 1 survivor, got %d", len(kept))
	}
	if kept[0].Title != "Blue Mascara" {
		t.Fatalf("numeric rule alone governs: expected Blue Mascara, got %q", kept[0].Title)
	}
}

func TestReconcileKeywordRuleWithoutFilters(t *testing.T) {
	decision := domain.RoutingDecision{Source: domain.SourceVector, RefinedQuery: "matte lipstick"}
	gloss := validProduct(1, "Lip Gloss", 9)
	gloss.Description = "shiny finish"
	lipstick := validProduct(2, "Matte Lipstick Classic", 12)

	kept := Reconcile(asResult(gloss, lipstick), decision, false)
	if len(kept) != 1 || kept[0].ID != 2 {
		t.Fatalf("fail-closed keyword rule expected only the lipstick, got %+v", kept)
	}
}

func TestReconcileDropsSchemaViolationsPerItem(t *testing.T) {
	good := validProduct(1, "Red Lipstick", 10)
	noThumbnail := validProduct(2, "Red Lipstick Mini", 8)
	noThumbnail.Thumbnail = ""
	badRating := validProduct(3, "Red Lipstick Pro", 14)
	badRating.Rating = 9

	decision := domain.RoutingDecision{Source: domain.SourceCatalog, RefinedQuery: "red lipstick"}
	kept := Reconcile(asResult(good, noThumbnail, badRating), decision, false)
	if len(kept) != 1 || kept[0].ID != 1 {
		t.Fatalf("malformed items must be dropped individually, got %+v", kept)
	}
}

func TestReconcileEmptyInputIsValid(t *testing.T) {
	decision := domain.RoutingDecision{Source: domain.SourceCatalog, RefinedQuery: "red lipstick"}
	kept := Reconcile(domain.RetrievalResult{}, decision, false)
	if len(kept) != 0 {
		t.Fatalf("expected empty result, got %d", len(kept))
	}
}
