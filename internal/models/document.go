package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentRecord is one normalized entry in the knowledge base.
type DocumentRecord struct {
	ID         uuid.UUID         `json:"id"`
	SourceURI  string            `json:"source_uri"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IngestedAt time.Time         `json:"ingested_at"`
	Embedding  []float32         `json:"-"`
}

// NewDocumentRecord builds a record whose ID is derived from the source URI,
// so re-ingesting the same source replaces the earlier snapshot instead of
// duplicating it.
func NewDocumentRecord(sourceURI, text string, metadata map[string]string) *DocumentRecord {
	return &DocumentRecord{
		ID:         DocumentID(sourceURI),
		SourceURI:  sourceURI,
		Text:       text,
		Metadata:   metadata,
		IngestedAt: time.Now().UTC(),
	}
}

// DocumentID returns the deterministic UUID for a source URI.
func DocumentID(sourceURI string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceURI))
}
