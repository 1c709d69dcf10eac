// Package loader ingests external sources into document records.
//
// Each source type is handled by one Processor registered under a type tag;
// adding a new document format means registering a new implementation, not
// touching the agent.
package loader

import (
	"context"
	"net/http"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"
)

// Processor turns one source (a path or URL) into document records.
type Processor interface {
	Process(ctx context.Context, source string) ([]*models.DocumentRecord, error)
}

// Registry maps source-type tags to their processors.
type Registry map[string]Processor

// NewRegistry builds the default registry: local files, folders, and web
// pages.
func NewRegistry(client *http.Client) Registry {
	text := NewTextProcessor()
	return Registry{
		"file":    text,
		"folder":  NewFolderProcessor(text, nil),
		"website": NewWebPageProcessor(client),
	}
}

// Lookup returns the processor for a source-type tag.
func (r Registry) Lookup(sourceType string) (Processor, error) {
	p, ok := r[sourceType]
	if !ok {
		return nil, errors.NewValidation("unknown source type: " + sourceType)
	}
	return p, nil
}
