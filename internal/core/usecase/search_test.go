package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

type classifierFake struct {
	decision domain.RoutingDecision
	err      error
	history  []domain.HistoryMessage
	calls    int
}

func (f *classifierFake) Classify(_ context.Context, _ string, history []domain.HistoryMessage) (domain.RoutingDecision, error) {
	f.calls++
	f.history = history
	if f.err != nil {
		return domain.RoutingDecision{}, f.err
	}
	return f.decision, nil
}

type composerFake struct {
	err      error
	products []domain.Product
}

func (f *composerFake) Compose(_ context.Context, _ string, products []domain.Product) (string, error) {
	f.products = products
	if f.err != nil {
		return "", f.err
	}
	return "here is what I found", nil
}

func newSearchFixture(catalog, vector *sourceFake, store *conversationStoreFake, classifier *classifierFake, composer *composerFake) *SearchUseCase {
	return NewSearchUseCase(
		classifier,
		NewRetrievalOrchestrator(catalog, vector, time.Second),
		NewSessionDeduper(store),
		composer,
		5,
	)
}

func TestSearchFullTurn(t *testing.T) {
	catalog := &sourceFake{name: domain.SourceCatalog, products: []domain.Product{
		validProduct(1, "Red Lipstick", 15),
		validProduct(2, "Blue Mascara", 9),
	}}
	vector := &sourceFake{name: domain.SourceVector}
	store := &conversationStoreFake{}
	classifier := &classifierFake{decision: domain.RoutingDecision{
		Source:       domain.SourceCatalog,
		RefinedQuery: "red lipstick",
	}}
	composer := &composerFake{}
	uc := newSearchFixture(catalog, vector, store, classifier, composer)

	result, err := uc.Search(context.Background(), "red lipstick", "conv-1")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier must run exactly once, ran %d times", classifier.calls)
	}
	if len(result.Products) != 1 || result.Products[0].Title != "Red Lipstick" {
		t.Fatalf("expected only the lipstick, got %+v", result.Products)
	}
	if result.Message != "here is what I found" {
		t.Fatalf("expected composed message, got %q", result.Message)
	}
	if len(store.appended) != 1 {
		t.Fatalf("expected one recorded turn, got %d", len(store.appended))
	}
	if got := store.appended[0].ShownTitles; len(got) != 1 || got[0] != "Red Lipstick" {
		t.Fatalf("recorded titles mismatch: %v", got)
	}
	if len(composer.products) != 1 {
		t.Fatalf("composer must receive the post-dedup list, got %d items", len(composer.products))
	}
}

func TestSearchGeneratesConversationID(t *testing.T) {
	catalog := &sourceFake{name: domain.SourceCatalog, products: []domain.Product{validProduct(1, "A", 1)}}
	uc := newSearchFixture(catalog, &sourceFake{name: domain.SourceVector}, &conversationStoreFake{},
		&classifierFake{decision: domain.RoutingDecision{Source: domain.SourceCatalog, RefinedQuery: "a"}},
		&composerFake{})

	result, err := uc.Search(context.Background(), "a", "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.ConversationID == "" {
		t.Fatalf("expected a generated conversation id")
	}
}

func TestSearchClassifierFailureIsFatal(t *testing.T) {
	uc := newSearchFixture(
		&sourceFake{name: domain.SourceCatalog},
		&sourceFake{name: domain.SourceVector},
		&conversationStoreFake{},
		&classifierFake{err: errors.New("model returned prose")},
		&composerFake{},
	)

	_, err := uc.Search(context.Background(), "red lipstick", "conv-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrClassifier) {
		t.Fatalf("expected ErrClassifier, got %v", err)
	}
}

func TestSearchInvalidDecisionIsFatal(t *testing.T) {
	uc := newSearchFixture(
		&sourceFake{name: domain.SourceCatalog},
		&sourceFake{name: domain.SourceVector},
		&conversationStoreFake{},
		&classifierFake{decision: domain.RoutingDecision{Source: "graph", RefinedQuery: "x"}},
		&composerFake{},
	)

	_, err := uc.Search(context.Background(), "red lipstick", "conv-1")
	if !domain.IsKind(err, domain.ErrClassifier) {
		t.Fatalf("expected ErrClassifier, got %v", err)
	}
}

func TestSearchAllSourcesDownPropagates(t *testing.T) {
	boom := domain.WrapError(domain.ErrSourceUnavailable, "fetch", errors.New("down"))
	store := &conversationStoreFake{}
	uc := newSearchFixture(
		&sourceFake{name: domain.SourceCatalog, err: boom},
		&sourceFake{name: domain.SourceVector, err: boom},
		store,
		&classifierFake{decision: domain.RoutingDecision{Source: domain.SourceHybrid, RefinedQuery: "anything at all"}},
		&composerFake{},
	)

	_, err := uc.Search(context.Background(), "anything", "conv-1")
	if !domain.IsKind(err, domain.ErrAllSourcesUnavailable) {
		t.Fatalf("expected ErrAllSourcesUnavailable, got %v", err)
	}
	if len(store.appended) != 0 {
		t.Fatalf("failed turn must not record conversation state")
	}
}

func TestSearchSessionDedupAcrossTurns(t *testing.T) {
	store := &conversationStoreFake{turns: []domain.Turn{
		{TurnNumber: 1, Query: "lipstick", RefinedQuery: "lipstick", ShownTitles: []string{"A Lipstick", "B Lipstick"}},
	}}
	catalog := &sourceFake{name: domain.SourceCatalog, products: []domain.Product{
		validProduct(1, "A Lipstick", 10),
		validProduct(2, "B Lipstick", 11),
		validProduct(3, "C Lipstick", 12),
	}}
	classifier := &classifierFake{decision: domain.RoutingDecision{Source: domain.SourceCatalog, RefinedQuery: "lipstick"}}
	uc := newSearchFixture(catalog, &sourceFake{name: domain.SourceVector}, store, classifier, &composerFake{})

	result, err := uc.Search(context.Background(), "give more", "conv-1")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Products) != 1 || result.Products[0].Title != "C Lipstick" {
		t.Fatalf("expected exactly {C Lipstick}, got %+v", result.Products)
	}
	if len(classifier.history) != 2 {
		t.Fatalf("expected prior turn in classifier history, got %d messages", len(classifier.history))
	}
}

func TestSearchComposerFailureIsNotFatal(t *testing.T) {
	catalog := &sourceFake{name: domain.SourceCatalog, products: []domain.Product{validProduct(1, "A", 1)}}
	uc := newSearchFixture(catalog, &sourceFake{name: domain.SourceVector}, &conversationStoreFake{},
		&classifierFake{decision: domain.RoutingDecision{Source: domain.SourceCatalog, RefinedQuery: "a"}},
		&composerFake{err: errors.New("writer down")})

	result, err := uc.Search(context.Background(), "a", "conv-1")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Message != "" {
		t.Fatalf("expected empty message on composer failure, got %q", result.Message)
	}
	if len(result.Products) != 1 {
		t.Fatalf("products must survive a composer failure")
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	uc := newSearchFixture(&sourceFake{name: domain.SourceCatalog}, &sourceFake{name: domain.SourceVector},
		&conversationStoreFake{}, &classifierFake{}, &composerFake{})

	_, err := uc.Search(context.Background(), "   ", "conv-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
