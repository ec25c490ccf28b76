package ports

import (
	"context"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

// SearchService is the inbound contract for one conversational search turn.
type SearchService interface {
	Search(ctx context.Context, query, conversationID string) (*domain.SearchResult, error)
}

// CatalogIndexer is the inbound contract for asynchronous catalog (re)indexing into
// the vector backend. Returns the number of products indexed.
type CatalogIndexer interface {
	Reindex(ctx context.Context, requestID string) (int, error)
}
