package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/resilience"
)

// Client wraps one OpenAI-compatible API connection shared by the classifier, the
// response composer and the embedder. Constructed once per process.
type Client struct {
	api        *openai.Client
	chatModel  string
	embedModel string
	dimensions int
	executor   *resilience.Executor
}

type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	EmbedModel string
	// Dimensions truncates embeddings to the index's vector size; 0 keeps the
	// model's native size.
	Dimensions         int
	ResilienceExecutor *resilience.Executor
}

func New(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(clientCfg),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		dimensions: cfg.Dimensions,
		executor:   cfg.ResilienceExecutor,
	}
}

// Classifier turns the user query plus history into a routing decision.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, query string, history []domain.HistoryMessage) (domain.RoutingDecision, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: classificationSystemPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: query,
	})

	raw, err := c.client.chatJSON(ctx, "classify", messages)
	if err != nil {
		return domain.RoutingDecision{}, wrapTemporaryIfNeeded("classify query", err)
	}
	return ParseRoutingDecision(raw)
}

// ParseRoutingDecision decodes the classifier's strict-JSON verdict. One unwrapping
// strategy only: extract the outermost object, decode with unknown fields rejected.
// Anything else is ErrClassifier.
func ParseRoutingDecision(raw string) (domain.RoutingDecision, error) {
	var wire struct {
		Source       string            `json:"source"`
		RefinedQuery string            `json:"refined_query"`
		Filters      domain.FilterSpec `json:"filters"`
		Reason       string            `json:"reason"`
	}

	decoder := json.NewDecoder(strings.NewReader(extractJSONObject(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&wire); err != nil {
		return domain.RoutingDecision{}, domain.WrapError(domain.ErrClassifier, "parse decision", err)
	}

	source, err := domain.ParseSource(wire.Source)
	if err != nil {
		return domain.RoutingDecision{}, domain.WrapError(domain.ErrClassifier, "parse decision", err)
	}

	decision := domain.RoutingDecision{
		Source:       source,
		RefinedQuery: strings.TrimSpace(wire.RefinedQuery),
		Filter:       wire.Filters,
	}
	if err := decision.Validate(); err != nil {
		return domain.RoutingDecision{}, err
	}
	return decision, nil
}

// Composer writes the user-facing prose for the verified product list.
type Composer struct {
	client *Client
}

func NewComposer(client *Client) *Composer {
	return &Composer{client: client}
}

func (c *Composer) Compose(ctx context.Context, query string, products []domain.Product) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: compositionSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: buildCompositionPrompt(query, products)},
	}
	text, err := c.client.chatText(ctx, "compose", messages)
	if err != nil {
		return "", wrapTemporaryIfNeeded("compose response", err)
	}
	return text, nil
}

// Embedder builds vectors for product texts and query text.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.client.embedModel),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.client.dimensions > 0 {
		req.Dimensions = e.client.dimensions
	}

	var resp openai.EmbeddingResponse
	call := func(callCtx context.Context) error {
		var err error
		resp, err = e.client.api.CreateEmbeddings(callCtx, req)
		return err
	}
	if err := e.client.execute(ctx, "openai.embed", call); err != nil {
		return nil, wrapTemporaryIfNeeded("embed texts", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed texts: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("embed texts: vector index %d out of range", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) chatJSON(ctx context.Context, operation string, messages []openai.ChatCompletionMessage) (string, error) {
	return c.chat(ctx, operation, openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
}

func (c *Client) chatText(ctx context.Context, operation string, messages []openai.ChatCompletionMessage) (string, error) {
	return c.chat(ctx, operation, openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
	})
}

func (c *Client) chat(ctx context.Context, operation string, req openai.ChatCompletionRequest) (string, error) {
	var resp openai.ChatCompletionResponse
	call := func(callCtx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(callCtx, req)
		return err
	}
	if err := c.execute(ctx, "openai."+operation, call); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai %s: empty choices", operation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor != nil {
		return c.executor.Execute(ctx, operation, call, classifyOpenAIError)
	}
	return call(ctx)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
