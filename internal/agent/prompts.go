package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"react-rag-agent/internal/models"
)

// maxObservationChars bounds how much of each observation is replayed into
// prompts so long documents cannot blow up the context.
const maxObservationChars = 1000

const stepInstructions = `You are a research assistant that answers questions using a document knowledge base.
You work in steps. In each step you either retrieve more information or finish with an answer.
All facts in your answer must be grounded in retrieved observations. Never answer from internal knowledge alone.

Respond in exactly one of these two formats and nothing else:

Thought: <your reasoning about what to do next>
Action: Retrieve
Query: <search query for the knowledge base>

Thought: <your reasoning about why you can answer now>
Action: Finish
Answer: <the final answer>

If the observations show the knowledge base has no relevant information, finish with an answer saying you could not find the information.`

const finalizeInstructions = `You are a research assistant. The step limit for this question has been reached.
Write the best possible direct answer using ONLY the observations below.
If they are insufficient, say "I could not find enough information to answer this question."`

func buildStepPrompt(question string, trace []models.ReActStep) string {
	var b strings.Builder
	b.WriteString(stepInstructions)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	if len(trace) == 0 {
		b.WriteString("No steps taken yet. The knowledge base has not been searched.\n")
	} else {
		b.WriteString("Steps so far:\n")
		b.WriteString(renderTrace(trace))
	}
	b.WriteString("\nNext step:\n")
	return b.String()
}

func buildFinalizePrompt(question string, trace []models.ReActStep) string {
	var b strings.Builder
	b.WriteString(finalizeInstructions)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nObservations:\n")
	if len(trace) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(renderTrace(trace))
	}
	b.WriteString("\nAnswer: ")
	return b.String()
}

func renderTrace(trace []models.ReActStep) string {
	var b strings.Builder
	for _, step := range trace {
		fmt.Fprintf(&b, "Step %d:\n", step.Index+1)
		if step.Thought != "" {
			fmt.Fprintf(&b, "  Thought: %s\n", step.Thought)
		}
		fmt.Fprintf(&b, "  Action: %s", step.Action)
		if step.ActionInput != "" {
			fmt.Fprintf(&b, " %q", step.ActionInput)
		}
		b.WriteString("\n")
		if step.Observation != "" {
			fmt.Fprintf(&b, "  Observation: %s\n", truncate(step.Observation, maxObservationChars))
		}
	}
	return b.String()
}

// formatObservation renders retrieval hits into the observation recorded in
// the trace.
func formatObservation(hits []models.RetrievalHit) string {
	if len(hits) == 0 {
		return "no matching documents found"
	}
	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] (score %.3f) %s", hit.DocumentID, hit.Score, hit.Excerpt)
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
