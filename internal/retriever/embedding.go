package retriever

import (
	"context"

	"react-rag-agent/internal/store"
)

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingStrategy ranks documents by vector similarity between the query
// embedding and stored document embeddings. It sits behind the same Strategy
// contract as the token-overlap baseline.
type EmbeddingStrategy struct {
	embedder Embedder
	searcher store.VectorSearcher
}

// NewEmbeddingStrategy creates the embedding strategy.
func NewEmbeddingStrategy(embedder Embedder, searcher store.VectorSearcher) *EmbeddingStrategy {
	return &EmbeddingStrategy{embedder: embedder, searcher: searcher}
}

// Rank embeds the query once and delegates similarity search to the store.
func (e *EmbeddingStrategy) Rank(ctx context.Context, query string, limit int) ([]store.ScoredRecord, error) {
	embedding, err := e.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.searcher.SearchSimilar(embedding, limit)
}
