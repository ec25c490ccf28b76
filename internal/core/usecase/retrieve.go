package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
	"github.com/mkravets/product-search-assistant/internal/core/ports"
)

const defaultSourceTimeout = 10 * time.Second

// RetrievalOrchestrator fans one routing decision out to the selected backends,
// joins the answers and merges them into a single deduplicated candidate list.
type RetrievalOrchestrator struct {
	catalog ports.ProductSource
	vector  ports.ProductSource
	timeout time.Duration
}

func NewRetrievalOrchestrator(catalog, vector ports.ProductSource, timeout time.Duration) *RetrievalOrchestrator {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &RetrievalOrchestrator{
		catalog: catalog,
		vector:  vector,
		timeout: timeout,
	}
}

// Retrieve invokes the selected adapters concurrently with a bounded per-adapter
// timeout. One failing adapter never cancels the other; the turn fails with
// domain.ErrAllSourcesUnavailable only when every selected adapter failed.
func (o *RetrievalOrchestrator) Retrieve(ctx context.Context, decision domain.RoutingDecision) (domain.RetrievalResult, error) {
	sources, err := o.selectSources(decision.Source)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	type outcome struct {
		origin   domain.Source
		products []domain.Product
		err      error
	}

	outcomes := make([]outcome, len(sources))
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(slot int, src ports.ProductSource) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			products, fetchErr := src.Fetch(callCtx, decision.RefinedQuery)
			outcomes[slot] = outcome{origin: src.Name(), products: products, err: fetchErr}
		}(i, source)
	}
	wg.Wait()

	var failures []error
	result := domain.RetrievalResult{}
	seen := make(map[string]struct{})
	for _, oc := range outcomes {
		if oc.err != nil {
			slog.Warn("source_fetch_failed", "source", string(oc.origin), "error", oc.err)
			failures = append(failures, fmt.Errorf("%s: %w", oc.origin, oc.err))
			continue
		}
		// First occurrence wins: catalog slots precede vector slots, so duplicate
		// IDs with diverging field values keep the catalog record.
		for _, p := range oc.products {
			key := p.MergeKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Items = append(result.Items, domain.RetrievedProduct{Product: p, Origin: oc.origin})
		}
	}

	if len(failures) == len(sources) {
		return domain.RetrievalResult{}, domain.WrapError(
			domain.ErrAllSourcesUnavailable, "retrieve", errors.Join(failures...))
	}
	return result, nil
}

// selectSources maps the routing decision to the adapter set, catalog before vector.
func (o *RetrievalOrchestrator) selectSources(source domain.Source) ([]ports.ProductSource, error) {
	switch source {
	case domain.SourceCatalog:
		return []ports.ProductSource{o.catalog}, nil
	case domain.SourceVector:
		return []ports.ProductSource{o.vector}, nil
	case domain.SourceHybrid:
		return []ports.ProductSource{o.catalog, o.vector}, nil
	}
	return nil, domain.WrapError(domain.ErrClassifier, "select sources", fmt.Errorf("unknown source %q", source))
}
