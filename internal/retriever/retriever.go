// Package retriever ranks knowledge-base documents against a query.
package retriever

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"
	"react-rag-agent/internal/store"
)

const excerptLength = 200

// Strategy scores documents for a query. Implementations return candidates
// in any order; the Retriever owns ordering, tie-breaking and truncation.
type Strategy interface {
	Rank(ctx context.Context, query string, limit int) ([]store.ScoredRecord, error)
}

// Retriever turns a query string into an ordered list of retrieval hits.
// It is read-only over the document store.
type Retriever struct {
	strategy Strategy
}

// New creates a retriever using the given ranking strategy.
func New(strategy Strategy) *Retriever {
	return &Retriever{strategy: strategy}
}

// Search returns at most k hits, descending by score. Ties are broken by
// most recent ingestion time, then lexicographic ID, for determinism.
// Zero-score documents are never returned, so fewer than k hits is normal.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]models.RetrievalHit, error) {
	if k < 1 {
		return nil, errors.NewValidation("k must be at least 1")
	}

	candidates, err := r.strategy.Rank(ctx, query, k)
	if err != nil {
		return nil, err
	}

	matched := candidates[:0]
	for _, c := range candidates {
		if c.Score > 0 {
			matched = append(matched, c)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		if !matched[i].Document.IngestedAt.Equal(matched[j].Document.IngestedAt) {
			return matched[i].Document.IngestedAt.After(matched[j].Document.IngestedAt)
		}
		return matched[i].Document.ID.String() < matched[j].Document.ID.String()
	})

	if len(matched) > k {
		matched = matched[:k]
	}

	hits := make([]models.RetrievalHit, 0, len(matched))
	for _, c := range matched {
		hits = append(hits, models.RetrievalHit{
			DocumentID: c.Document.ID,
			Score:      c.Score,
			Excerpt:    buildExcerpt(c.Document.Text, query),
		})
	}
	return hits, nil
}

// buildExcerpt returns a window of the document text around the first query
// token occurrence, falling back to the document prefix.
func buildExcerpt(text, query string) string {
	lowered := strings.ToLower(text)
	start := 0
	for _, token := range tokenize(query) {
		if idx := strings.Index(lowered, token); idx >= 0 {
			start = idx
			break
		}
	}

	// Back up to show a little leading context.
	if start > excerptLength/4 {
		start -= excerptLength / 4
	} else {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}

	end := start + excerptLength
	if end >= len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	excerpt := strings.TrimSpace(text[start:end])
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(text) {
		excerpt += "..."
	}
	return excerpt
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
