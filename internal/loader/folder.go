package loader

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"
)

// FolderProcessor walks a directory tree and ingests every supported file.
// Unsupported or empty files are skipped with a warning rather than failing
// the whole walk.
type FolderProcessor struct {
	files      *TextProcessor
	extensions map[string]bool // optional filter; nil means all supported
}

// NewFolderProcessor creates a folder processor. When extensions is
// non-empty, only files with those extensions (dot included) are ingested.
func NewFolderProcessor(files *TextProcessor, extensions []string) *FolderProcessor {
	var filter map[string]bool
	if len(extensions) > 0 {
		filter = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			filter[strings.ToLower(ext)] = true
		}
	}
	return &FolderProcessor{files: files, extensions: filter}
}

func (f *FolderProcessor) Process(ctx context.Context, source string) ([]*models.DocumentRecord, error) {
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("folder " + source)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.NewValidation(source + " is not a directory")
	}

	var records []*models.DocumentRecord
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if f.extensions != nil && !f.extensions[ext] {
			return nil
		}

		docs, err := f.files.Process(ctx, path)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			return nil
		}
		for _, doc := range docs {
			if strings.TrimSpace(doc.Text) == "" {
				log.Printf("Warning: skipping empty file %s", path)
				continue
			}
			records = append(records, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
