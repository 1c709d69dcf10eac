package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"
)

// textExtensions are the plain-text formats the file processor accepts.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".csv":  true,
}

// TextProcessor reads a single plain-text file into one document record.
type TextProcessor struct{}

func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

func (t *TextProcessor) Process(_ context.Context, source string) ([]*models.DocumentRecord, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if !textExtensions[ext] {
		return nil, errors.NewValidation("unsupported file extension: " + ext)
	}

	content, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file " + source)
		}
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	record := models.NewDocumentRecord(source, string(content), map[string]string{
		"path": source,
		"type": "text",
	})
	return []*models.DocumentRecord{record}, nil
}
