package agent

import (
	"fmt"
	"regexp"
	"strings"

	"react-rag-agent/internal/errors"
)

// ActionKind tags the parsed reasoning output.
type ActionKind string

const (
	ActionRetrieve ActionKind = "retrieve"
	ActionFinish   ActionKind = "finish"
)

// Action is the structured form of one reasoning step. The LLM's free-text
// output is parsed into this tagged variant before the controller branches
// on it; anything unparseable becomes a reasoning error.
type Action struct {
	Kind    ActionKind
	Thought string
	Query   string // set for retrieve
	Answer  string // set for finish
}

var (
	thoughtRegex = regexp.MustCompile(`(?i)thought\s*[:\-]\s*(.+)`)
	queryRegex   = regexp.MustCompile(`(?i)query\s*[:\-]\s*(.+)`)
	answerRegex  = regexp.MustCompile(`(?is)answer\s*[:\-]\s*(.+)`)
)

// parseAction reads the model output into an Action.
func parseAction(raw string) (Action, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Action{}, errors.NewReasoning("empty reasoning output", nil)
	}
	lower := strings.ToLower(trimmed)

	action := Action{}
	if m := thoughtRegex.FindStringSubmatch(trimmed); len(m) == 2 {
		action.Thought = strings.TrimSpace(m[1])
	}

	switch {
	case strings.Contains(lower, "action: finish") || strings.Contains(lower, "action:finish"):
		m := answerRegex.FindStringSubmatch(trimmed)
		if len(m) != 2 || strings.TrimSpace(m[1]) == "" {
			return Action{}, errors.NewReasoning("finish action without an answer", nil)
		}
		action.Kind = ActionFinish
		action.Answer = strings.TrimSpace(m[1])
		return action, nil

	case strings.Contains(lower, "action: retrieve") || strings.Contains(lower, "action:retrieve"):
		m := queryRegex.FindStringSubmatch(trimmed)
		if len(m) != 2 || strings.TrimSpace(m[1]) == "" {
			return Action{}, errors.NewReasoning("retrieve action without a query", nil)
		}
		action.Kind = ActionRetrieve
		action.Query = strings.TrimSpace(m[1])
		return action, nil

	default:
		return Action{}, errors.NewReasoning(fmt.Sprintf("unable to parse action from output: %.120q", raw), nil)
	}
}
