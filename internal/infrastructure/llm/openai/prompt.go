package openai

import (
	"encoding/json"
	"fmt"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

const classificationSystemPrompt = `You route e-commerce product queries to a retrieval backend.
Return a strict JSON object with keys:
source ("catalog" | "vector" | "hybrid"), refined_query (string), filters (object, optional), reason (string).
No markdown, no extra keys.

Routing rules:
- "catalog" for generic queries (like "all products", "show me all products") and for factual/numeric constraints (price, stock, rating, brand, category).
- "vector" for semantic similarity or "similar to" style queries.
- "hybrid" when both exact attributes and similarity matter.

If the query is a follow-up (e.g. "give more", "cheaper", "what about Samsung?"), use the
conversation so far to construct a specific standalone refined_query. Example: after
fragrances were shown, "cheaper" becomes "fragrances under $50". A new topic passes through as is.

filters may only use these keys: price, rating, stock (each {"min": number, "max": number},
either bound optional) and brand, category (exact strings). Omit filters entirely when the
query has no exact constraint.`

const compositionSystemPrompt = `You are a shopping assistant. Write a short, natural reply
presenting the verified products to the user. Mention products by title. If the list is
empty, apologize and suggest alternative searches. Never invent products that are not in
the list.`

func buildCompositionPrompt(query string, products []domain.Product) string {
	listing, err := json.Marshal(products)
	if err != nil {
		listing = []byte("[]")
	}
	return fmt.Sprintf("User asked: %q.\nVerified products (JSON):\n%s", query, listing)
}
