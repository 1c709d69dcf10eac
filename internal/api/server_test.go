package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"
	"react-rag-agent/internal/store"

	"github.com/google/uuid"
)

// mockAgent is a scripted AgentService for handler tests. PutDocument writes
// through to the same store the server lists from, mirroring the facade.
type mockAgent struct {
	docStore    store.DocumentStore
	queryResult *models.QueryResult
	queryErr    error
	addRecord   *models.DocumentRecord
	addErr      error
	putErr      error
	lastQuery   string
}

func (m *mockAgent) Query(_ context.Context, question string) (*models.QueryResult, error) {
	m.lastQuery = question
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.queryResult, nil
}

func (m *mockAgent) AddDocument(_ context.Context, _ string) (*models.DocumentRecord, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.addRecord, nil
}

func (m *mockAgent) PutDocument(_ context.Context, record *models.DocumentRecord) error {
	if m.putErr != nil {
		return m.putErr
	}
	return m.docStore.Put(record)
}

func newTestServer(agent *mockAgent) (*Server, store.DocumentStore) {
	docStore := store.NewMemoryDocumentStore()
	agent.docStore = docStore
	return NewServer(agent, docStore), docStore
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(&mockAgent{})

	w := doJSON(t, server.Handler(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy status, got %q", resp.Status)
	}
}

func TestRequestIDHeader(t *testing.T) {
	server, _ := newTestServer(&mockAgent{})

	w := doJSON(t, server.Handler(), http.MethodGet, "/health", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "upstream-id" {
		t.Errorf("Expected the supplied request ID to be honored, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestAddInlineDocument(t *testing.T) {
	server, docStore := newTestServer(&mockAgent{})

	w := doJSON(t, server.Handler(), http.MethodPost, "/documents", models.AddDocumentRequest{
		SourceURI: "notes.txt",
		Text:      "inline document content",
		Metadata:  map[string]string{"origin": "test"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.DocumentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.SourceURI != "notes.txt" {
		t.Errorf("Expected source URI in response, got %q", resp.SourceURI)
	}

	id, err := uuid.Parse(resp.ID)
	if err != nil {
		t.Fatalf("Expected a valid document ID, got %q", resp.ID)
	}
	if _, err := docStore.Get(id); err != nil {
		t.Errorf("Expected the document to be stored: %v", err)
	}
}

func TestAddDocumentByPath(t *testing.T) {
	record := models.NewDocumentRecord("/data/notes.txt", "loaded content", nil)
	server, _ := newTestServer(&mockAgent{addRecord: record})

	w := doJSON(t, server.Handler(), http.MethodPost, "/documents", models.AddDocumentRequest{
		Path: "/data/notes.txt",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.DocumentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ID != record.ID.String() {
		t.Errorf("Expected the loaded record ID, got %q", resp.ID)
	}
}

func TestAddDocumentValidation(t *testing.T) {
	server, _ := newTestServer(&mockAgent{})

	// Neither path nor source_uri.
	w := doJSON(t, server.Handler(), http.MethodPost, "/documents", models.AddDocumentRequest{Text: "orphan text"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing source, got %d", w.Code)
	}

	// Empty text on an inline document.
	w = doJSON(t, server.Handler(), http.MethodPost, "/documents", models.AddDocumentRequest{SourceURI: "notes.txt"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty text, got %d", w.Code)
	}
}

func TestAddInlineDocumentIngestionFailure(t *testing.T) {
	// Inline adds go through the agent so ingestion concerns like embedding
	// apply; an embedding outage surfaces as a bad gateway.
	server, _ := newTestServer(&mockAgent{putErr: apperrors.NewUpstream("embedding service down", nil)})

	w := doJSON(t, server.Handler(), http.MethodPost, "/documents", models.AddDocumentRequest{
		SourceURI: "notes.txt",
		Text:      "content",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListDocuments(t *testing.T) {
	server, docStore := newTestServer(&mockAgent{})
	if err := docStore.Put(models.NewDocumentRecord("a.txt", "alpha", nil)); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	if err := docStore.Put(models.NewDocumentRecord("b.txt", "beta", nil)); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	w := doJSON(t, server.Handler(), http.MethodGet, "/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp models.DocumentListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Documents) != 2 {
		t.Errorf("Expected 2 documents, got count=%d len=%d", resp.Count, len(resp.Documents))
	}
}

func TestGetDocumentByID(t *testing.T) {
	server, docStore := newTestServer(&mockAgent{})
	doc := models.NewDocumentRecord("a.txt", "alpha", nil)
	if err := docStore.Put(doc); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	w := doJSON(t, server.Handler(), http.MethodGet, "/documents/"+doc.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doJSON(t, server.Handler(), http.MethodGet, "/documents/"+uuid.New().String(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown ID, got %d", w.Code)
	}

	w = doJSON(t, server.Handler(), http.MethodGet, "/documents/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed ID, got %d", w.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	server, docStore := newTestServer(&mockAgent{})
	doc := models.NewDocumentRecord("a.txt", "alpha", nil)
	if err := docStore.Put(doc); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	w := doJSON(t, server.Handler(), http.MethodDelete, "/documents/"+doc.ID.String(), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if len(docStore.All()) != 0 {
		t.Error("Expected the document to be removed")
	}

	// Deleting again is idempotent.
	w = doJSON(t, server.Handler(), http.MethodDelete, "/documents/"+doc.ID.String(), nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on repeat delete, got %d", w.Code)
	}
}

func TestQueryEndpoint(t *testing.T) {
	citation := models.DocumentID("react.txt")
	agent := &mockAgent{queryResult: &models.QueryResult{
		Answer:    "ReAct interleaves reasoning with retrieval.",
		Citations: []uuid.UUID{citation},
		Trace: []models.ReActStep{
			{Index: 0, Action: "retrieve", ActionInput: "react"},
		},
	}}
	server, _ := newTestServer(agent)

	w := doJSON(t, server.Handler(), http.MethodPost, "/query", models.QueryRequest{Question: "What is ReAct?"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if agent.lastQuery != "What is ReAct?" {
		t.Errorf("Expected the question to reach the agent, got %q", agent.lastQuery)
	}

	var resp models.QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Answer != "ReAct interleaves reasoning with retrieval." {
		t.Errorf("Unexpected answer: %q", resp.Answer)
	}
	if len(resp.Citations) != 1 || resp.Citations[0] != citation.String() {
		t.Errorf("Expected citation IDs as strings, got %v", resp.Citations)
	}
	if resp.Trace != nil {
		t.Error("Expected trace to be omitted unless requested")
	}
}

func TestQueryIncludeTrace(t *testing.T) {
	agent := &mockAgent{queryResult: &models.QueryResult{
		Answer: "Answer.",
		Trace:  []models.ReActStep{{Index: 0, Action: "finish"}},
	}}
	server, _ := newTestServer(agent)

	w := doJSON(t, server.Handler(), http.MethodPost, "/query", models.QueryRequest{
		Question:     "Question?",
		IncludeTrace: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp models.QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Trace) != 1 {
		t.Errorf("Expected the trace in the response, got %v", resp.Trace)
	}
}

func TestQueryErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperrors.NewValidation("question must not be empty"), http.StatusBadRequest},
		{"upstream", apperrors.NewUpstream("ollama unreachable", nil), http.StatusBadGateway},
		{"cancelled", apperrors.NewCancelled(context.Canceled), apperrors.StatusClientClosedRequest},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, _ := newTestServer(&mockAgent{queryErr: tc.err})

			w := doJSON(t, server.Handler(), http.MethodPost, "/query", models.QueryRequest{Question: "q"})
			if w.Code != tc.code {
				t.Errorf("Expected %d, got %d: %s", tc.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(&mockAgent{})

	w := doJSON(t, server.Handler(), http.MethodGet, "/query", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /query, got %d", w.Code)
	}

	w = doJSON(t, server.Handler(), http.MethodPut, "/documents", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for PUT /documents, got %d", w.Code)
	}
}
