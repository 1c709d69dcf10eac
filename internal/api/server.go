package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	apperrors "react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"
	"react-rag-agent/internal/store"

	"github.com/google/uuid"
	"github.com/ory/herodot"
)

// AgentService is the facade surface the server depends on. Document writes
// go through it rather than straight to the store so ingestion concerns like
// embedding stay in one place.
type AgentService interface {
	Query(ctx context.Context, question string) (*models.QueryResult, error)
	AddDocument(ctx context.Context, path string) (*models.DocumentRecord, error)
	PutDocument(ctx context.Context, record *models.DocumentRecord) error
}

type Server struct {
	mux      *http.ServeMux
	agent    AgentService
	docStore store.DocumentStore
	writer   *herodot.JSONWriter
}

func NewServer(agent AgentService, docStore store.DocumentStore) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		agent:    agent,
		docStore: docStore,
		writer:   herodot.NewJSONWriter(nil),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/documents", s.handleDocuments)
	s.mux.HandleFunc("/documents/", s.handleDocumentByID)
	s.mux.HandleFunc("/query", s.handleQuery)
	s.mux.HandleFunc("/health", s.healthCheck)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return requestIDMiddleware(loggingMiddleware(s.mux))
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.addDocument(w, r)
	case http.MethodGet:
		s.listDocuments(w, r)
	default:
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) addDocument(w http.ResponseWriter, r *http.Request) {
	var req models.AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid request body"))
		return
	}

	// Either a path routed through a document loader, or an inline record.
	if req.Path != "" {
		record, err := s.agent.AddDocument(r.Context(), req.Path)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeCreated(w, r, record)
		return
	}

	if req.SourceURI == "" {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Either path or source_uri is required"))
		return
	}

	record := models.NewDocumentRecord(req.SourceURI, req.Text, req.Metadata)
	if err := s.agent.PutDocument(r.Context(), record); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeCreated(w, r, record)
}

func (s *Server) writeCreated(w http.ResponseWriter, r *http.Request, record *models.DocumentRecord) {
	response := &models.DocumentResponse{
		ID:        record.ID.String(),
		SourceURI: record.SourceURI,
		Message:   "Document added successfully",
	}
	s.writer.WriteCreated(w, r, "/documents/"+record.ID.String(), response)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.docStore.All()
	response := &models.DocumentListResponse{
		Documents: docs,
		Count:     len(docs),
	}
	s.writer.Write(w, r, response)
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	idPart := strings.TrimPrefix(r.URL.Path, "/documents/")
	id, err := uuid.Parse(idPart)
	if err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid document id"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := s.docStore.Get(id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writer.Write(w, r, doc)
	case http.MethodDelete:
		if err := s.docStore.Remove(id); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid request body"))
		return
	}

	result, err := s.agent.Query(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	response := &models.QueryResponse{
		Answer:    result.Answer,
		Degraded:  result.Degraded,
		Citations: make([]string, 0, len(result.Citations)),
	}
	for _, id := range result.Citations {
		response.Citations = append(response.Citations, id.String())
	}
	if req.IncludeTrace {
		response.Trace = result.Trace
	}
	s.writer.Write(w, r, response)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	response := &models.HealthResponse{Status: "healthy"}
	s.writer.Write(w, r, response)
}

// writeError maps taxonomy errors onto HTTP responses. Raw upstream details
// stay out of the response body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason(err.Error()))
	case apperrors.KindNotFound:
		s.writer.WriteError(w, r, herodot.ErrNotFound.WithReason(err.Error()))
	case apperrors.KindUpstream:
		s.writer.WriteError(w, r, &herodot.DefaultError{
			CodeField:   http.StatusBadGateway,
			StatusField: http.StatusText(http.StatusBadGateway),
			ErrorField:  "External service unavailable",
		})
	case apperrors.KindCancelled:
		s.writer.WriteError(w, r, &herodot.DefaultError{
			CodeField:   apperrors.StatusClientClosedRequest,
			StatusField: "Client Closed Request",
			ErrorField:  "Query cancelled",
		})
	default:
		log.Printf("Internal error: %v", err)
		s.writer.WriteError(w, r, herodot.ErrInternalServerError.WithReason("An internal error occurred"))
	}
}
