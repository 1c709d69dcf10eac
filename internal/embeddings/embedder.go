// Package embeddings provides an Ollama-backed embedding client.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"react-rag-agent/internal/errors"
)

type Embedder struct {
	ollamaURL string
	model     string
	client    *http.Client
}

func NewEmbedder(ollamaURL, model string, timeout time.Duration) *Embedder {
	return &Embedder{
		ollamaURL: ollamaURL,
		model:     model,
		client:    &http.Client{Timeout: timeout},
	}
}

func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"model":  e.model,
		"prompt": text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.ollamaURL+"/api/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.NewUpstream("embedding request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewUpstream("failed to read embedding response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstream(fmt.Sprintf("embedding service returned status %d", resp.StatusCode), nil)
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.NewUpstream("invalid embedding response", err)
	}

	if len(result.Embedding) == 0 {
		return nil, errors.NewUpstream("no embedding returned", nil)
	}

	return result.Embedding, nil
}
