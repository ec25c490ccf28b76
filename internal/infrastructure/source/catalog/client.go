package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/resilience"
)

// Client reads product snapshots from the structured catalog backend
// (a DummyJSON-compatible GET /products endpoint).
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Name() domain.Source { return domain.SourceCatalog }

// Fetch returns the full catalog snapshot regardless of the refined query. The
// backend does no server-side filtering; reconciliation owns all pruning.
func (c *Client) Fetch(ctx context.Context, _ string) ([]domain.Product, error) {
	return c.FetchAll(ctx)
}

func (c *Client) FetchAll(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	call := func(callCtx context.Context) error {
		var err error
		products, err = c.fetchSnapshot(callCtx)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "catalog.fetch", call, classifyCatalogError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "fetch catalog", err)
	}
	return products, nil
}

func (c *Client) fetchSnapshot(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, newHTTPStatusError("fetch", resp)
	}

	var payload struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return payload.Products, nil
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "catalog status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("catalog %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("catalog %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func newHTTPStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}
