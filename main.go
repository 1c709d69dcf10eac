// ReAct RAG agent: a knowledge-base question answering service that combines
// retrieval with an iterative reason-act-observe loop over an LLM.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"react-rag-agent/internal/agent"
	"react-rag-agent/internal/api"
	"react-rag-agent/internal/config"
	"react-rag-agent/internal/embeddings"
	"react-rag-agent/internal/llm"
	"react-rag-agent/internal/loader"
	"react-rag-agent/internal/models"
	"react-rag-agent/internal/retriever"
	"react-rag-agent/internal/store"
)

func main() {
	log.Println("Starting ReAct RAG agent...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	docStore, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize document store:", err)
	}
	defer closeStore()

	// One embedder serves both query-time ranking and ingestion-time document
	// embedding; it stays nil under the token-overlap strategy.
	var embedder *embeddings.Embedder
	if cfg.Agent.Strategy == "embedding" {
		embedder = embeddings.NewEmbedder(cfg.Services.Ollama.BaseURL, cfg.Services.Ollama.EmbeddingModel, cfg.OllamaTimeout())
	}

	strategy, err := buildStrategy(cfg, docStore, embedder)
	if err != nil {
		log.Fatal("Failed to initialize retrieval strategy:", err)
	}

	ollama := llm.NewOllamaClient(cfg.Services.Ollama.BaseURL, cfg.OllamaTimeout())

	controller := agent.NewController(ollama, retriever.New(strategy), agent.ControllerConfig{
		MaxSteps:         cfg.Agent.MaxSteps,
		ReasoningRetries: cfg.Agent.ReasoningRetries,
		Retry: agent.RetryConfig{
			MaxRetries:     cfg.Agent.UpstreamRetries,
			InitialBackoff: time.Duration(cfg.Agent.BackoffInitial) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.Agent.BackoffMax) * time.Millisecond,
			Multiplier:     cfg.Agent.BackoffMultiplier,
		},
		TopK: cfg.Agent.TopK,
		Completion: models.CompletionOptions{
			Model:       cfg.Services.Ollama.LLMModel,
			Temperature: cfg.Agent.Temperature,
			MaxTokens:   cfg.Agent.MaxTokens,
		},
	})

	loaders := loader.NewRegistry(http.DefaultClient)

	var docEmbedder agent.Embedder
	if embedder != nil {
		docEmbedder = embedder
	}
	facade := agent.New(cfg, docStore, loaders, controller, docEmbedder)

	if err := facade.Initialize(context.Background()); err != nil {
		log.Fatal("Failed to initialize agent:", err)
	}

	server := api.NewServer(facade, docStore)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	log.Printf("Server starting on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

// buildStore selects the document store backend from configuration.
func buildStore(cfg *config.Config) (store.DocumentStore, func(), error) {
	switch cfg.Storage.Type {
	case "sqlite":
		s, err := store.NewSQLiteDocumentStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("Error closing document store: %v", err)
			}
		}, nil
	default:
		return store.NewMemoryDocumentStore(), func() {}, nil
	}
}

// buildStrategy selects the retrieval ranking strategy from configuration.
func buildStrategy(cfg *config.Config, docStore store.DocumentStore, embedder *embeddings.Embedder) (retriever.Strategy, error) {
	switch cfg.Agent.Strategy {
	case "embedding":
		searcher, ok := docStore.(store.VectorSearcher)
		if !ok {
			return nil, fmt.Errorf("storage type %s does not support embedding search", cfg.Storage.Type)
		}
		return retriever.NewEmbeddingStrategy(embedder, searcher), nil
	default:
		return retriever.NewTokenOverlapStrategy(docStore), nil
	}
}
