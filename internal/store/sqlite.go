package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"sync"
	"time"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteDocumentStore is a persistent document store backed by SQLite, with
// sqlite-vec KNN search over document embeddings.
type SQLiteDocumentStore struct {
	db *sql.DB

	// embeddingLength is the dimension of vec_documents, 0 until the first
	// embedded insert (or restored from an existing table at open). Written
	// during Put and read by concurrent searches, so it takes the mutex.
	mu              sync.Mutex
	embeddingLength int
}

// NewSQLiteDocumentStore opens or creates the store at the given DSN.
func NewSQLiteDocumentStore(dsn string) (*SQLiteDocumentStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers so concurrent Puts never trip
	// SQLITE_BUSY on a file database.
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteDocumentStore{db: db}

	if err := store.initDB(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initDB creates the documents table. The vec_documents virtual table is
// created lazily on the first embedded insert, once the dimension is known.
func (s *SQLiteDocumentStore) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source_uri TEXT NOT NULL,
		text TEXT NOT NULL,
		metadata TEXT,
		ingested_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source_uri);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	return s.restoreEmbeddingLength()
}

var vecDimensionRegex = regexp.MustCompile(`(?i)FLOAT\[(\d+)\]`)

// restoreEmbeddingLength recovers the embedding dimension from an existing
// vec_documents table so reopened databases keep their vector search.
func (s *SQLiteDocumentStore) restoreEmbeddingLength() error {
	var createSQL string
	err := s.db.QueryRow(`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'vec_documents'`).Scan(&createSQL)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect vec_documents table: %w", err)
	}

	m := vecDimensionRegex.FindStringSubmatch(createSQL)
	if len(m) != 2 {
		return fmt.Errorf("cannot determine embedding dimension from %q", createSQL)
	}
	dimension, err := strconv.Atoi(m[1])
	if err != nil || dimension < 1 {
		return fmt.Errorf("invalid embedding dimension in %q", createSQL)
	}

	s.mu.Lock()
	s.embeddingLength = dimension
	s.mu.Unlock()
	return nil
}

// embeddingDim reads the vec_documents dimension, 0 when the table does not
// exist yet.
func (s *SQLiteDocumentStore) embeddingDim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embeddingLength
}

// Close closes the database connection
func (s *SQLiteDocumentStore) Close() error {
	return s.db.Close()
}

// serializeFloat32Vector converts a float32 slice to the byte format expected by sqlite-vec
func serializeFloat32Vector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(v))
	}
	return buf
}

// Put inserts or replaces the record. Any earlier record with the same
// source URI is removed so re-ingesting a source is an upsert.
func (s *SQLiteDocumentStore) Put(doc *models.DocumentRecord) error {
	if doc.Text == "" {
		return errors.NewValidation("document text must not be empty")
	}
	if doc.ID == uuid.Nil {
		doc.ID = models.DocumentID(doc.SourceURI)
	}
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	if len(doc.Embedding) > 0 {
		if err := s.ensureVecTableExists(len(doc.Embedding)); err != nil {
			return fmt.Errorf("failed to ensure vec table exists: %w", err)
		}
	}

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Evict any record for the same source under a different ID.
	if doc.SourceURI != "" {
		rows, err := tx.Query(`SELECT id FROM documents WHERE source_uri = ? AND id != ?`, doc.SourceURI, doc.ID.String())
		if err != nil {
			return fmt.Errorf("failed to look up existing source records: %w", err)
		}
		var stale []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err == nil {
				stale = append(stale, id)
			}
		}
		_ = rows.Close()
		for _, id := range stale {
			if err := s.deleteRecord(tx, id); err != nil {
				return err
			}
		}
	}

	upsertQuery := `
		INSERT INTO documents (id, source_uri, text, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_uri = excluded.source_uri,
			text = excluded.text,
			metadata = excluded.metadata,
			ingested_at = excluded.ingested_at
	`
	if _, err := tx.Exec(upsertQuery, doc.ID.String(), doc.SourceURI, doc.Text, string(metadata), doc.IngestedAt); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	if len(doc.Embedding) > 0 {
		// Delete and insert since vec0 doesn't support UPDATE.
		if _, err := tx.Exec(`DELETE FROM vec_documents WHERE id = ?`, doc.ID.String()); err != nil {
			return fmt.Errorf("failed to delete old vector: %w", err)
		}
		embeddingBytes := serializeFloat32Vector(doc.Embedding)
		if _, err := tx.Exec(`INSERT INTO vec_documents (id, embedding) VALUES (?, ?)`, doc.ID.String(), embeddingBytes); err != nil {
			return fmt.Errorf("failed to insert document vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *SQLiteDocumentStore) deleteRecord(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if s.embeddingDim() > 0 {
		if _, err := tx.Exec(`DELETE FROM vec_documents WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete document vector: %w", err)
		}
	}
	return nil
}

// ensureVecTableExists creates the vec_documents table if it doesn't exist
func (s *SQLiteDocumentStore) ensureVecTableExists(embeddingLen int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingLength != 0 && s.embeddingLength != embeddingLen {
		return fmt.Errorf("cannot change embedding length from %d to %d with existing documents", s.embeddingLength, embeddingLen)
	}

	if s.embeddingLength == 0 {
		vecQuery := fmt.Sprintf(`
			CREATE VIRTUAL TABLE IF NOT EXISTS vec_documents USING vec0(
				id TEXT PRIMARY KEY,
				embedding FLOAT[%d]
			)
		`, embeddingLen)

		if _, err := s.db.Exec(vecQuery); err != nil {
			return fmt.Errorf("failed to create vec_documents table: %w", err)
		}
	}
	s.embeddingLength = embeddingLen

	return nil
}

// Get returns the record or a not-found error.
func (s *SQLiteDocumentStore) Get(id uuid.UUID) (*models.DocumentRecord, error) {
	query := `SELECT id, source_uri, text, metadata, ingested_at FROM documents WHERE id = ?`
	row := s.db.QueryRow(query, id.String())

	doc, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document " + id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return doc, nil
}

// All returns every record, without embeddings, newest first.
func (s *SQLiteDocumentStore) All() []models.DocumentRecord {
	query := `SELECT id, source_uri, text, metadata, ingested_at FROM documents ORDER BY ingested_at DESC, id`
	rows, err := s.db.Query(query)
	if err != nil {
		log.Printf("Error querying all documents: %v", err)
		return []models.DocumentRecord{}
	}
	defer func() { _ = rows.Close() }()

	var documents []models.DocumentRecord
	for rows.Next() {
		doc, err := scanRecord(rows.Scan)
		if err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		documents = append(documents, *doc)
	}

	return documents
}

// Remove deletes the record if present; absent IDs are not an error.
func (s *SQLiteDocumentStore) Remove(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.deleteRecord(tx, id.String()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SearchSimilar performs KNN vector search using sqlite-vec. Distances are
// converted to similarities so higher scores mean more relevant.
func (s *SQLiteDocumentStore) SearchSimilar(embedding []float32, topK int) ([]ScoredRecord, error) {
	if topK < 1 {
		return nil, errors.NewValidation("topK must be at least 1")
	}
	if s.embeddingDim() == 0 {
		// No embedded documents yet.
		return []ScoredRecord{}, nil
	}

	embeddingBytes := serializeFloat32Vector(embedding)

	// sqlite-vec requires the k parameter inside the MATCH expression.
	query := `
		SELECT
			d.id,
			d.source_uri,
			d.text,
			d.metadata,
			d.ingested_at,
			v.distance
		FROM vec_documents v
		JOIN documents d ON d.id = v.id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`

	rows, err := s.db.Query(query, embeddingBytes, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to perform vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []ScoredRecord
	for rows.Next() {
		var id, sourceURI, text string
		var metadata sql.NullString
		var ingestedAt time.Time
		var distance float64

		if err := rows.Scan(&id, &sourceURI, &text, &metadata, &ingestedAt, &distance); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		docID, err := uuid.Parse(id)
		if err != nil {
			log.Printf("Error parsing UUID %s: %v", id, err)
			continue
		}

		results = append(results, ScoredRecord{
			Document: models.DocumentRecord{
				ID:         docID,
				SourceURI:  sourceURI,
				Text:       text,
				Metadata:   decodeMetadata(metadata),
				IngestedAt: ingestedAt,
			},
			Score: 1 / (1 + distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

func scanRecord(scan func(dest ...any) error) (*models.DocumentRecord, error) {
	var id, sourceURI, text string
	var metadata sql.NullString
	var ingestedAt time.Time

	if err := scan(&id, &sourceURI, &text, &metadata, &ingestedAt); err != nil {
		return nil, err
	}

	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", id, err)
	}

	return &models.DocumentRecord{
		ID:         docID,
		SourceURI:  sourceURI,
		Text:       text,
		Metadata:   decodeMetadata(metadata),
		IngestedAt: ingestedAt,
	}, nil
}

func decodeMetadata(raw sql.NullString) map[string]string {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw.String), &metadata); err != nil {
		log.Printf("Error decoding metadata: %v", err)
		return nil
	}
	return metadata
}
