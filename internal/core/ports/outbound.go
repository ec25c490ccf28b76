package ports

import (
	"context"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

// QueryClassifier turns free text plus short conversation history into a structured
// routing decision. Invoked at most once per turn; its output is the sole input to
// retrieval and reconciliation.
type QueryClassifier interface {
	Classify(ctx context.Context, query string, history []domain.HistoryMessage) (domain.RoutingDecision, error)
}

// ResponseComposer writes the user-facing prose for a verified product list.
type ResponseComposer interface {
	Compose(ctx context.Context, query string, products []domain.Product) (string, error)
}

// ProductSource is one retrieval backend behind the common fetch capability.
// Implementations report backend failure as domain.ErrSourceUnavailable and never
// panic on a dead backend.
type ProductSource interface {
	Name() domain.Source
	Fetch(ctx context.Context, refinedQuery string) ([]domain.Product, error)
}

// CatalogFeed reads the full current catalog snapshot from the structured backend.
type CatalogFeed interface {
	FetchAll(ctx context.Context) ([]domain.Product, error)
}

// Embedder builds vectors for product texts and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ProductIndex stores product vectors and performs similarity search.
type ProductIndex interface {
	UpsertProducts(ctx context.Context, products []domain.Product, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Product, error)
}

// ConversationStore persists per-conversation turn state. Turns are append-only.
type ConversationStore interface {
	EnsureConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	ListTurns(ctx context.Context, conversationID string) ([]domain.Turn, error)
	AppendTurn(ctx context.Context, turn domain.Turn) (int, error)
}

// ReindexQueue publishes/consumes catalog reindex requests.
type ReindexQueue interface {
	PublishReindexRequested(ctx context.Context, requestID string) error
	SubscribeReindexRequested(ctx context.Context, handler func(context.Context, string) error) error
}
