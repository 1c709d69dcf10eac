// Package store provides document storage implementations for the knowledge base.
package store

import (
	"react-rag-agent/internal/models"

	"github.com/google/uuid"
)

// DocumentStore holds the ingested, searchable document records. Writers are
// serialized against readers; All returns a finite snapshot that never
// observes a concurrent Put mid-iteration.
type DocumentStore interface {
	// Put inserts or replaces by ID. A record with the same SourceURI but a
	// different ID is replaced rather than duplicated. Fails with a
	// validation error when the text is empty.
	Put(doc *models.DocumentRecord) error

	// Get returns the record or a not-found error.
	Get(id uuid.UUID) (*models.DocumentRecord, error)

	// All returns a snapshot of every record.
	All() []models.DocumentRecord

	// Remove is idempotent; absent IDs are not an error.
	Remove(id uuid.UUID) error
}

// VectorSearcher is implemented by stores that can rank documents against a
// query embedding. Scores are similarities, higher is more relevant.
type VectorSearcher interface {
	SearchSimilar(embedding []float32, topK int) ([]ScoredRecord, error)
}

// ScoredRecord pairs a document with its similarity to a query embedding.
type ScoredRecord struct {
	Document models.DocumentRecord
	Score    float64
}
