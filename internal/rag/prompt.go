package rag

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// InsufficientMarker is the reply the model gives when the passages do not
// cover the question.
const InsufficientMarker = "INSUFFICIENT_CONTEXT"

var groundedSystemPrompt = `You are an IT support specialist. Answer the employee's question using ONLY the knowledge base passages provided.

Rules:
- Give clear, step-by-step instructions that are specific and actionable.
- Cite every passage you rely on by its id in square brackets, for example [kb-vpn].
- Do not use knowledge that is not in the passages.
- Keep the answer under 200 words.
- If the passages do not answer the question, reply with exactly ` + InsufficientMarker + ` and nothing else.`

var ungroundedSystemPrompt = `You are an IT support specialist. No knowledge base article matched this ticket.
Give brief, general troubleshooting guidance and state that it is not based on company documentation.
If you cannot help, reply with exactly ` + InsufficientMarker + `.`

func groundedPrompt(question string, passages []domain.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString("KNOWLEDGE BASE PASSAGES:\n\n")
	for _, p := range passages {
		fmt.Fprintf(&b, "[%s] %s\n%s\n\n", p.DocumentID, p.Title, strings.TrimSpace(p.Text))
	}
	b.WriteString("QUESTION:\n")
	b.WriteString(question)
	return b.String()
}

func ungroundedPrompt(question string) string {
	return "QUESTION:\n" + question
}

// IsInsufficient reports whether answer is the insufficient-context marker.
func IsInsufficient(answer string) bool {
	return strings.Contains(strings.ToUpper(answer), InsufficientMarker)
}
