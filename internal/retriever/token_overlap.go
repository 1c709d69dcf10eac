package retriever

import (
	"context"

	"react-rag-agent/internal/store"
)

// TokenOverlapStrategy is the deterministic default ranking: normalized
// term-frequency overlap between query tokens and document tokens. It needs
// no external services and works on a plain store snapshot.
type TokenOverlapStrategy struct {
	store store.DocumentStore
}

// NewTokenOverlapStrategy creates the token-overlap strategy over a store.
func NewTokenOverlapStrategy(s store.DocumentStore) *TokenOverlapStrategy {
	return &TokenOverlapStrategy{store: s}
}

// Rank scores every stored document against the query.
func (t *TokenOverlapStrategy) Rank(_ context.Context, query string, _ int) ([]store.ScoredRecord, error) {
	queryFreq := termFrequency(tokenize(query))
	if len(queryFreq) == 0 {
		return []store.ScoredRecord{}, nil
	}
	queryTotal := 0
	for _, n := range queryFreq {
		queryTotal += n
	}

	docs := t.store.All()
	scored := make([]store.ScoredRecord, 0, len(docs))
	for _, doc := range docs {
		docFreq := termFrequency(tokenize(doc.Text))

		overlap := 0
		for token, n := range queryFreq {
			if m, ok := docFreq[token]; ok {
				if m < n {
					overlap += m
				} else {
					overlap += n
				}
			}
		}

		scored = append(scored, store.ScoredRecord{
			Document: doc,
			Score:    float64(overlap) / float64(queryTotal),
		})
	}
	return scored, nil
}

func termFrequency(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}
	return freq
}
