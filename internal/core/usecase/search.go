package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
	"github.com/mkravets/product-search-assistant/internal/core/ports"
)

// SearchUseCase runs one conversational search turn:
// classify -> retrieve -> reconcile -> session dedup -> record -> compose.
type SearchUseCase struct {
	classifier   ports.QueryClassifier
	orchestrator *RetrievalOrchestrator
	sessions     *SessionDeduper
	composer     ports.ResponseComposer
	historyTurns int
}

func NewSearchUseCase(
	classifier ports.QueryClassifier,
	orchestrator *RetrievalOrchestrator,
	sessions *SessionDeduper,
	composer ports.ResponseComposer,
	historyTurns int,
) *SearchUseCase {
	if historyTurns <= 0 {
		historyTurns = 5
	}
	return &SearchUseCase{
		classifier:   classifier,
		orchestrator: orchestrator,
		sessions:     sessions,
		composer:     composer,
		historyTurns: historyTurns,
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, query, conversationID string) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("query is required"))
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	conv, err := uc.sessions.store.EnsureConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation: %w", err)
	}

	history, err := uc.sessions.History(ctx, conv.ID, uc.historyTurns)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	// The classifier runs exactly once per turn. Its decision is the sole input to
	// retrieval and reconciliation; the raw query is never re-interpreted here.
	decision, err := uc.classifier.Classify(ctx, query, history)
	if err != nil {
		if domain.IsKind(err, domain.ErrClassifier) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrClassifier, "classify query", err)
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	result, err := uc.orchestrator.Retrieve(ctx, decision)
	if err != nil {
		return nil, err
	}

	reconciled := Reconcile(result, decision, IsGenericQuery(decision.RefinedQuery))

	fresh, err := uc.sessions.FilterNew(ctx, conv.ID, reconciled)
	if err != nil {
		return nil, fmt.Errorf("session dedup: %w", err)
	}

	// An aborted turn must not leave partial conversation state behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := uc.sessions.RecordTurn(ctx, domain.Turn{
		ConversationID: conv.ID,
		Query:          query,
		RefinedQuery:   decision.RefinedQuery,
		Source:         decision.Source,
		ShownTitles:    ShownTitles(fresh),
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("record turn: %w", err)
	}

	message, err := uc.composer.Compose(ctx, query, fresh)
	if err != nil {
		// The verified list is already final; a dead response writer downgrades the
		// turn to products-only instead of failing it.
		slog.Warn("compose_failed", "conversation_id", conv.ID, "error", err)
		message = ""
	}

	return &domain.SearchResult{
		Query:          query,
		ConversationID: conv.ID,
		Products:       fresh,
		Message:        message,
		Source:         decision.Source,
	}, nil
}
