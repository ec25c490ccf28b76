package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
	"github.com/mkravets/product-search-assistant/internal/core/ports"
)

// SessionDeduper removes products a conversation has already seen and records what
// each turn surfaced. The cross-turn identity is the lower-cased title: the response
// writer re-describes items by title, so nothing stronger survives a turn.
type SessionDeduper struct {
	store ports.ConversationStore
}

func NewSessionDeduper(store ports.ConversationStore) *SessionDeduper {
	return &SessionDeduper{store: store}
}

// FilterNew drops every product whose title was surfaced in a prior turn of the
// conversation. An empty result is a valid "no new products" state.
func (s *SessionDeduper) FilterNew(ctx context.Context, conversationID string, products []domain.Product) ([]domain.Product, error) {
	turns, err := s.store.ListTurns(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	shown := make(map[string]struct{})
	for _, turn := range turns {
		for _, title := range turn.ShownTitles {
			shown[strings.ToLower(strings.TrimSpace(title))] = struct{}{}
		}
	}

	fresh := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if _, seen := shown[p.TitleKey()]; seen {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh, nil
}

// RecordTurn appends the turn with the identities it surfaced. Called only after
// reconciliation completed; an aborted turn records nothing.
func (s *SessionDeduper) RecordTurn(ctx context.Context, turn domain.Turn) error {
	if _, err := s.store.AppendTurn(ctx, turn); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// History rebuilds the short role/content transcript the classifier consumes from
// the most recent turns, oldest first.
func (s *SessionDeduper) History(ctx context.Context, conversationID string, limit int) ([]domain.HistoryMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	turns, err := s.store.ListTurns(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	history := make([]domain.HistoryMessage, 0, len(turns)*2)
	for _, turn := range turns {
		history = append(history, domain.HistoryMessage{Role: domain.RoleUser, Content: turn.Query})
		history = append(history, domain.HistoryMessage{
			Role:    domain.RoleAssistant,
			Content: assistantSummary(turn),
		})
	}
	return history, nil
}

func assistantSummary(turn domain.Turn) string {
	if len(turn.ShownTitles) == 0 {
		return fmt.Sprintf("No new products for %q.", turn.RefinedQuery)
	}
	return fmt.Sprintf("Showed for %q: %s.", turn.RefinedQuery, strings.Join(turn.ShownTitles, ", "))
}

// ShownTitles extracts the identities to record for the current turn.
func ShownTitles(products []domain.Product) []string {
	titles := make([]string, 0, len(products))
	for _, p := range products {
		titles = append(titles, p.Title)
	}
	return titles
}
