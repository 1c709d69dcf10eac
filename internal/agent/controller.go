// Package agent implements the reason-act-observe loop over the knowledge
// base and the facade that wires it to document loaders and storage.
package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"react-rag-agent/internal/errors"
	"react-rag-agent/internal/models"

	"github.com/google/uuid"
)

// LLMClient is the external reasoning collaborator.
type LLMClient interface {
	Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error)
}

// Searcher is the retrieval action available to the loop.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.RetrievalHit, error)
}

// ControllerConfig bounds the reasoning loop.
type ControllerConfig struct {
	// MaxSteps is the hard cap on reason-act-observe iterations.
	MaxSteps int

	// ReasoningRetries bounds immediate re-asks after unparseable output.
	ReasoningRetries int

	// Retry is the backoff policy for transient upstream failures.
	Retry RetryConfig

	// TopK is the number of hits requested per retrieval.
	TopK int

	// Completion is passed through to every LLM call.
	Completion models.CompletionOptions
}

// DefaultControllerConfig returns the standard loop bounds.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxSteps:         5,
		ReasoningRetries: 1,
		Retry:            DefaultRetryConfig(),
		TopK:             3,
	}
}

// Controller runs one query through the reasoning loop. Steps execute
// strictly sequentially; each LLM and retrieval call must resolve before the
// next step starts. Independent queries may run concurrently on the same
// controller.
type Controller struct {
	llm      LLMClient
	searcher Searcher
	cfg      ControllerConfig
}

// NewController creates a controller over the given collaborators.
func NewController(llm LLMClient, searcher Searcher, cfg ControllerConfig) *Controller {
	if cfg.MaxSteps < 1 {
		cfg.MaxSteps = 1
	}
	if cfg.TopK < 1 {
		cfg.TopK = 1
	}
	return &Controller{llm: llm, searcher: searcher, cfg: cfg}
}

// Query answers a question. It returns a degraded, flagged result when
// reasoning retries are exhausted or the step cap forces finalization; it
// never hangs past the cap and never returns a partial result on
// cancellation.
func (c *Controller) Query(ctx context.Context, question string) (*models.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.NewValidation("question must not be empty")
	}

	var trace []models.ReActStep
	var citations []uuid.UUID
	seen := make(map[uuid.UUID]bool)

	for step := 0; step < c.cfg.MaxSteps; step++ {
		// Cancellation is cooperative: checked between steps, never mid-call.
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled(err)
		}

		action, err := c.reason(ctx, buildStepPrompt(question, trace))
		if err != nil {
			if errors.IsKind(err, errors.KindReasoning) {
				log.Printf("Reasoning retries exhausted at step %d: %v", step, err)
				return degradedResult(trace, citations), nil
			}
			return nil, err
		}

		if action.Kind == ActionFinish {
			trace = append(trace, models.ReActStep{
				Index:   step,
				Thought: action.Thought,
				Action:  string(ActionFinish),
			})
			return &models.QueryResult{
				Answer:    action.Answer,
				Citations: citations,
				Trace:     trace,
			}, nil
		}

		hits, err := c.searcher.Search(ctx, action.Query, c.cfg.TopK)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			if !seen[hit.DocumentID] {
				seen[hit.DocumentID] = true
				citations = append(citations, hit.DocumentID)
			}
		}
		trace = append(trace, models.ReActStep{
			Index:       step,
			Thought:     action.Thought,
			Action:      string(ActionRetrieve),
			ActionInput: action.Query,
			Observation: formatObservation(hits),
		})
	}

	// Step cap reached: force a best-effort finalization from whatever was
	// gathered instead of looping further.
	log.Printf("Step cap (%d) reached, finalizing with partial context", c.cfg.MaxSteps)
	answer, err := c.complete(ctx, buildFinalizePrompt(question, trace))
	if err != nil {
		if errors.IsKind(err, errors.KindCancelled) {
			return nil, err
		}
		log.Printf("Finalization failed, returning observation summary: %v", err)
		result := degradedResult(trace, citations)
		return result, nil
	}

	return &models.QueryResult{
		Answer:    strings.TrimSpace(answer),
		Degraded:  true,
		Citations: citations,
		Trace:     trace,
	}, nil
}

// reason asks the LLM for the next action. Unparseable output is retried
// immediately up to the configured bound; upstream failures are handled
// inside complete with backoff and surface here once exhausted.
func (c *Controller) reason(ctx context.Context, prompt string) (Action, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.ReasoningRetries; attempt++ {
		raw, err := c.complete(ctx, prompt)
		if err != nil {
			return Action{}, err
		}

		action, err := parseAction(raw)
		if err == nil {
			return action, nil
		}
		lastErr = err
	}
	return Action{}, lastErr
}

// complete calls the LLM, retrying transient upstream failures with
// exponential backoff. Timed-out calls surface as upstream errors from the
// client and follow the same policy.
func (c *Controller) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		raw, err := c.llm.Complete(ctx, prompt, c.cfg.Completion)
		if err == nil {
			return raw, nil
		}
		if !errors.IsKind(err, errors.KindUpstream) {
			return "", err
		}
		lastErr = err

		if attempt >= c.cfg.Retry.MaxRetries {
			break
		}

		wait := c.cfg.Retry.Backoff(attempt)
		log.Printf("Upstream failure (attempt %d/%d), retrying in %s: %v",
			attempt+1, c.cfg.Retry.MaxRetries, wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", errors.NewCancelled(ctx.Err())
		case <-timer.C:
		}
	}
	return "", lastErr
}

// degradedResult summarizes gathered observations when a proper answer could
// not be produced. The result is explicitly flagged.
func degradedResult(trace []models.ReActStep, citations []uuid.UUID) *models.QueryResult {
	var b strings.Builder
	b.WriteString("I could not complete the reasoning process for this question.")

	var observations []string
	for _, step := range trace {
		if step.Observation != "" && step.Observation != "no matching documents found" {
			observations = append(observations, truncate(step.Observation, maxObservationChars))
		}
	}
	if len(observations) == 0 {
		b.WriteString(" No relevant information was gathered from the knowledge base.")
	} else {
		b.WriteString(" Information gathered so far:\n")
		b.WriteString(strings.Join(observations, "\n"))
	}

	return &models.QueryResult{
		Answer:    b.String(),
		Degraded:  true,
		Citations: citations,
		Trace:     trace,
	}
}
