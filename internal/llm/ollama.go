// Package llm provides the completion client for the reasoning loop.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"
)

// OllamaClient talks to a local Ollama server. It satisfies the collaborator
// contract Complete(ctx, prompt, options); all network, status and timeout
// failures surface as upstream errors so the controller can retry with
// backoff.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *OllamaClient) Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	reqBody := map[string]interface{}{
		"model":  opts.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", errors.NewUpstream("completion request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewUpstream("failed to read completion response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewUpstream(fmt.Sprintf("completion service returned status %d", resp.StatusCode), nil)
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", errors.NewUpstream("invalid completion response", err)
	}

	return result.Response, nil
}
