// Package retrieval finds knowledge-base passages relevant to a ticket.
package retrieval

import (
	"context"
	"sort"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Searcher returns up to k passages for query. Implementations may return
// them in any order; callers normalize with SortPassages.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.RetrievedPassage, error)
}

// Document is a knowledge-base article before indexing.
type Document struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Text     string `yaml:"text"`
}

// SortPassages returns a copy ordered by score descending then document id
// ascending, truncated to k when k > 0.
func SortPassages(passages []domain.RetrievedPassage, k int) []domain.RetrievedPassage {
	out := make([]domain.RetrievedPassage, len(passages))
	copy(out, passages)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
