package rag

import (
	"regexp"
	"strings"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

var bracketPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// ExtractCitations returns the ids of passages cited in answer as [id] or
// [id1, id2], in order of first mention. Ids that were not retrieved are
// ignored.
func ExtractCitations(answer string, passages []domain.RetrievedPassage) []string {
	known := make(map[string]string, len(passages))
	for _, p := range passages {
		known[strings.ToLower(p.DocumentID)] = p.DocumentID
	}

	var out []string
	seen := make(map[string]bool)
	for _, m := range bracketPattern.FindAllStringSubmatch(answer, -1) {
		for _, part := range strings.Split(m[1], ",") {
			id, ok := known[strings.ToLower(strings.TrimSpace(part))]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
