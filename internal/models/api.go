package models

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question     string `json:"question"`
	IncludeTrace bool   `json:"include_trace"`
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	Answer    string      `json:"answer"`
	Degraded  bool        `json:"degraded"`
	Citations []string    `json:"citations"`
	Trace     []ReActStep `json:"trace,omitempty"`
}

// AddDocumentRequest is the body of POST /documents. Either Path references
// a local source routed through a document loader, or SourceURI plus Text
// supply the record inline.
type AddDocumentRequest struct {
	Path      string            `json:"path,omitempty"`
	SourceURI string            `json:"source_uri,omitempty"`
	Text      string            `json:"text,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DocumentResponse is returned after a document is stored.
type DocumentResponse struct {
	ID        string `json:"id"`
	SourceURI string `json:"source_uri"`
	Message   string `json:"message"`
}

// DocumentListResponse is the body returned by GET /documents.
type DocumentListResponse struct {
	Documents []DocumentRecord `json:"documents"`
	Count     int              `json:"count"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
