package agent

import (
	"testing"

	"react-rag-agent/internal/errors"
)

func TestParseActionRetrieve(t *testing.T) {
	raw := `Thought: I need background on the ReAct pattern.
Action: Retrieve
Query: ReAct reasoning pattern`

	action, err := parseAction(raw)
	if err != nil {
		t.Fatalf("Failed to parse action: %v", err)
	}
	if action.Kind != ActionRetrieve {
		t.Errorf("Expected retrieve action, got %s", action.Kind)
	}
	if action.Query != "ReAct reasoning pattern" {
		t.Errorf("Expected query to be extracted, got %q", action.Query)
	}
	if action.Thought != "I need background on the ReAct pattern." {
		t.Errorf("Expected thought to be extracted, got %q", action.Thought)
	}
}

func TestParseActionFinish(t *testing.T) {
	raw := `Thought: The observations answer the question.
Action: Finish
Answer: ReAct interleaves reasoning with retrieval actions.`

	action, err := parseAction(raw)
	if err != nil {
		t.Fatalf("Failed to parse action: %v", err)
	}
	if action.Kind != ActionFinish {
		t.Errorf("Expected finish action, got %s", action.Kind)
	}
	if action.Answer != "ReAct interleaves reasoning with retrieval actions." {
		t.Errorf("Expected answer to be extracted, got %q", action.Answer)
	}
}

func TestParseActionMultilineAnswer(t *testing.T) {
	raw := `Thought: Ready to answer.
Action: Finish
Answer: First line of the answer.
Second line with more detail.`

	action, err := parseAction(raw)
	if err != nil {
		t.Fatalf("Failed to parse action: %v", err)
	}
	if action.Answer != "First line of the answer.\nSecond line with more detail." {
		t.Errorf("Expected multi-line answer to be preserved, got %q", action.Answer)
	}
}

func TestParseActionCaseAndSpacing(t *testing.T) {
	raw := "thought: lowercase works\naction:retrieve\nquery: sqlite vector search"

	action, err := parseAction(raw)
	if err != nil {
		t.Fatalf("Failed to parse action: %v", err)
	}
	if action.Kind != ActionRetrieve {
		t.Errorf("Expected retrieve action, got %s", action.Kind)
	}
	if action.Query != "sqlite vector search" {
		t.Errorf("Expected query to be extracted, got %q", action.Query)
	}
}

func TestParseActionMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty output", ""},
		{"no action line", "Thought: just musing with no decision"},
		{"retrieve without query", "Thought: searching\nAction: Retrieve"},
		{"finish without answer", "Thought: done\nAction: Finish"},
		{"unknown action", "Thought: confused\nAction: Dance"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseAction(tc.raw)
			if !errors.IsKind(err, errors.KindReasoning) {
				t.Errorf("Expected reasoning error, got %v", err)
			}
		})
	}
}
