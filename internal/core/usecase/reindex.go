package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
	"github.com/mkravets/product-search-assistant/internal/core/ports"
)

const defaultIndexBatchSize = 32

// ReindexUseCase rebuilds the vector index from the current catalog snapshot:
// fetch everything, embed each product's text, upsert the points in batches.
type ReindexUseCase struct {
	catalog   ports.CatalogFeed
	embedder  ports.Embedder
	index     ports.ProductIndex
	batchSize int
}

func NewReindexUseCase(catalog ports.CatalogFeed, embedder ports.Embedder, index ports.ProductIndex, batchSize int) *ReindexUseCase {
	if batchSize <= 0 {
		batchSize = defaultIndexBatchSize
	}
	return &ReindexUseCase{
		catalog:   catalog,
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
	}
}

func (uc *ReindexUseCase) Reindex(ctx context.Context, requestID string) (int, error) {
	products, err := uc.catalog.FetchAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch catalog snapshot: %w", err)
	}
	if len(products) == 0 {
		slog.Warn("reindex_empty_catalog", "request_id", requestID)
		return 0, nil
	}

	indexed := 0
	for start := 0; start < len(products); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]

		texts := make([]string, 0, len(batch))
		for _, p := range batch {
			texts = append(texts, EmbeddingText(p))
		}

		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return indexed, fmt.Errorf("embed batch at %d: got %d vectors for %d products", start, len(vectors), len(batch))
		}

		if err := uc.index.UpsertProducts(ctx, batch, vectors); err != nil {
			return indexed, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
		indexed += len(batch)
	}

	slog.Info("reindex_complete", "request_id", requestID, "products", indexed)
	return indexed, nil
}

// EmbeddingText is the canonical text representation a product is embedded under.
// The same template feeds the index and makes query similarity meaningful.
func EmbeddingText(p domain.Product) string {
	brand := p.Brand
	if brand == "" {
		brand = "Unknown"
	}
	return fmt.Sprintf("%s. %s. Category: %s. Brand: %s.", p.Title, p.Description, p.Category, brand)
}
