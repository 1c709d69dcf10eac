package models

import "github.com/google/uuid"

// RetrievalHit is a scored reference from a search query to a stored
// document. Scores are comparable only within a single retrieval call.
type RetrievalHit struct {
	DocumentID uuid.UUID `json:"document_id"`
	Score      float64   `json:"score"`
	Excerpt    string    `json:"excerpt"`
}

// ReActStep is one reason/act/observe iteration in a query's trace.
type ReActStep struct {
	Index       int    `json:"index"`
	Thought     string `json:"thought"`
	Action      string `json:"action"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation,omitempty"`
}

// QueryResult carries the final answer for one query together with the
// documents it was grounded in. Degraded marks best-effort answers produced
// after exhausting retries or hitting the step cap.
type QueryResult struct {
	Answer    string      `json:"answer"`
	Degraded  bool        `json:"degraded"`
	Citations []uuid.UUID `json:"citations"`
	Trace     []ReActStep `json:"trace,omitempty"`
}

// CompletionOptions configure a single LLM completion call.
type CompletionOptions struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}
