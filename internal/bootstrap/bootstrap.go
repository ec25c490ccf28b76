package bootstrap

import (
	"context"
	"fmt"

	"github.com/mkravets/product-search-assistant/internal/config"
	"github.com/mkravets/product-search-assistant/internal/core/ports"
	"github.com/mkravets/product-search-assistant/internal/core/usecase"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/llm/openai"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/queue/nats"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/repository/postgres"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/resilience"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/source/catalog"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/source/vectorsearch"
	"github.com/mkravets/product-search-assistant/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.ReindexQueue
	Store     ports.ConversationStore
	SearchUC  ports.SearchService
	ReindexUC ports.CatalogIndexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewSessionRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init reindex queue: %w", err)
	}

	llmClient := openai.New(openai.Config{
		APIKey:             cfg.OpenAIAPIKey,
		BaseURL:            cfg.OpenAIBaseURL,
		ChatModel:          cfg.OpenAIChatModel,
		EmbedModel:         cfg.OpenAIEmbedModel,
		Dimensions:         cfg.EmbeddingDimensions,
		ResilienceExecutor: executor,
	})
	classifier := openai.NewClassifier(llmClient)
	composer := openai.NewComposer(llmClient)
	embedder := openai.NewEmbedder(llmClient)

	catalogClient := catalog.New(cfg.CatalogBaseURL, catalog.Options{
		ResilienceExecutor: executor,
	})
	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	vectorSource := vectorsearch.New(embedder, index, cfg.SearchTopK)

	orchestrator := usecase.NewRetrievalOrchestrator(catalogClient, vectorSource, cfg.SourceTimeout)
	sessions := usecase.NewSessionDeduper(store)

	searchUC := usecase.NewSearchUseCase(classifier, orchestrator, sessions, composer, cfg.HistoryTurns)
	reindexUC := usecase.NewReindexUseCase(catalogClient, embedder, index, cfg.IndexBatchSize)

	return &App{
		Config: cfg,
		Queue:  queue,
		Store:  store,

		SearchUC:  searchUC,
		ReindexUC: reindexUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
