package store

import (
	"math"
	"sort"
	"sync"
	"time"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"

	"github.com/google/uuid"
)

// MemoryDocumentStore is the default in-memory document store. Reads take a
// shared lock and copy, so snapshots stay stable while writers proceed.
type MemoryDocumentStore struct {
	mu       sync.RWMutex
	docs     map[uuid.UUID]*models.DocumentRecord
	bySource map[string]uuid.UUID
}

// NewMemoryDocumentStore creates an empty in-memory store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs:     make(map[uuid.UUID]*models.DocumentRecord),
		bySource: make(map[string]uuid.UUID),
	}
}

func (m *MemoryDocumentStore) Put(doc *models.DocumentRecord) error {
	if doc.Text == "" {
		return errors.NewValidation("document text must not be empty")
	}
	if doc.ID == uuid.Nil {
		doc.ID = models.DocumentID(doc.SourceURI)
	}
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-adding a source replaces the old record even when the caller picked
	// a different explicit ID.
	if doc.SourceURI != "" {
		if prev, ok := m.bySource[doc.SourceURI]; ok && prev != doc.ID {
			delete(m.docs, prev)
		}
		m.bySource[doc.SourceURI] = doc.ID
	}

	stored := *doc
	m.docs[doc.ID] = &stored
	return nil
}

func (m *MemoryDocumentStore) Get(id uuid.UUID) (*models.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, errors.NewNotFound("document " + id.String())
	}
	found := *doc
	return &found, nil
}

func (m *MemoryDocumentStore) All() []models.DocumentRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make([]models.DocumentRecord, 0, len(m.docs))
	for _, doc := range m.docs {
		snapshot = append(snapshot, *doc)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID.String() < snapshot[j].ID.String()
	})
	return snapshot
}

func (m *MemoryDocumentStore) Remove(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.docs[id]; ok {
		delete(m.bySource, doc.SourceURI)
		delete(m.docs, id)
	}
	return nil
}

// SearchSimilar ranks stored documents by cosine similarity to the query
// embedding. Documents without an embedding score zero.
func (m *MemoryDocumentStore) SearchSimilar(embedding []float32, topK int) ([]ScoredRecord, error) {
	if topK < 1 {
		return nil, errors.NewValidation("topK must be at least 1")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]ScoredRecord, 0, len(m.docs))
	for _, doc := range m.docs {
		scored = append(scored, ScoredRecord{
			Document: *doc,
			Score:    cosineSimilarity(embedding, doc.Embedding),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
