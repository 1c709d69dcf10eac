package agent

import (
	"context"
	"log"
	"strings"

	"react-rag-agent/internal/config"
	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/loader"
	"react-rag-agent/internal/models"
	"react-rag-agent/internal/store"

	"github.com/google/uuid"
)

// Embedder computes the embedding stored alongside ingested documents.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Agent is the facade callers interact with. It owns the document store and
// wires the loaders, retriever and reasoning controller together; multiple
// independent agents can coexist in one process.
type Agent struct {
	cfg        *config.Config
	store      store.DocumentStore
	loaders    loader.Registry
	controller *Controller
	embedder   Embedder
}

// New creates an agent facade. A nil embedder disables document embedding at
// ingestion; it is required when the embedding retrieval strategy is
// configured, since unembedded documents are invisible to vector search.
func New(cfg *config.Config, docStore store.DocumentStore, loaders loader.Registry, controller *Controller, embedder Embedder) *Agent {
	return &Agent{
		cfg:        cfg,
		store:      docStore,
		loaders:    loaders,
		controller: controller,
		embedder:   embedder,
	}
}

// Initialize processes every configured source into the document store.
// A failing source is logged and skipped so one bad path does not prevent
// startup.
func (a *Agent) Initialize(ctx context.Context) error {
	log.Println("Processing document sources...")

	count := 0
	for _, src := range a.cfg.Sources {
		processor, err := a.processorFor(src)
		if err != nil {
			log.Printf("Warning: skipping source %s: %v", src.Path, err)
			continue
		}

		records, err := processor.Process(ctx, src.Path)
		if err != nil {
			if errors.IsKind(err, errors.KindCancelled) || ctx.Err() != nil {
				return errors.NewCancelled(ctx.Err())
			}
			log.Printf("Warning: failed to process source %s: %v", src.Path, err)
			continue
		}

		for _, record := range records {
			if err := a.PutDocument(ctx, record); err != nil {
				log.Printf("Warning: failed to store %s: %v", record.SourceURI, err)
				continue
			}
			count++
		}
	}

	log.Printf("Initialization complete. Processed %d documents.", count)
	return nil
}

// processorFor resolves the loader for a configured source, honoring
// per-source extension filters for folders.
func (a *Agent) processorFor(src config.SourceConfig) (loader.Processor, error) {
	if src.Type == "folder" && len(src.Extensions) > 0 {
		return loader.NewFolderProcessor(loader.NewTextProcessor(), src.Extensions), nil
	}
	return a.loaders.Lookup(src.Type)
}

// Query answers a question through the reasoning loop.
func (a *Agent) Query(ctx context.Context, question string) (*models.QueryResult, error) {
	log.Printf("Processing query: %s", question)
	return a.controller.Query(ctx, question)
}

// AddDocument ingests one source through the matching loader and stores the
// resulting record. URLs go through the web-page loader, everything else
// through the file loader.
func (a *Agent) AddDocument(ctx context.Context, path string) (*models.DocumentRecord, error) {
	sourceType := "file"
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		sourceType = "website"
	}

	processor, err := a.loaders.Lookup(sourceType)
	if err != nil {
		return nil, err
	}

	records, err := processor.Process(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewValidation("source produced no documents: " + path)
	}

	for _, record := range records {
		if err := a.PutDocument(ctx, record); err != nil {
			return nil, err
		}
	}
	return records[0], nil
}

// PutDocument stores an already-built record, embedding its text first when
// an embedder is configured.
func (a *Agent) PutDocument(ctx context.Context, record *models.DocumentRecord) error {
	if a.embedder != nil && len(record.Embedding) == 0 {
		embedding, err := a.embedder.GetEmbedding(ctx, record.Text)
		if err != nil {
			return err
		}
		record.Embedding = embedding
	}
	return a.store.Put(record)
}

// RemoveDocument removes a record; absent IDs are not an error.
func (a *Agent) RemoveDocument(id uuid.UUID) error {
	return a.store.Remove(id)
}

// Documents returns a snapshot of the knowledge base.
func (a *Agent) Documents() []models.DocumentRecord {
	return a.store.All()
}
