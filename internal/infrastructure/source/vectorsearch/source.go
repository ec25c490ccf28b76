package vectorsearch

import (
	"context"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
	"github.com/mkravets/product-search-assistant/internal/core/ports"
)

const defaultTopK = 50

// Source is the semantic retrieval backend: embed the refined query, then run a
// top-K cosine similarity search. The two steps are one atomic external call from
// the orchestrator's point of view.
type Source struct {
	embedder ports.Embedder
	index    ports.ProductIndex
	topK     int
}

func New(embedder ports.Embedder, index ports.ProductIndex, topK int) *Source {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Source{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

func (s *Source) Name() domain.Source { return domain.SourceVector }

func (s *Source) Fetch(ctx context.Context, refinedQuery string) ([]domain.Product, error) {
	vector, err := s.embedder.EmbedQuery(ctx, refinedQuery)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "embed query", err)
	}
	products, err := s.index.Search(ctx, vector, s.topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "vector search", err)
	}
	return products, nil
}
