package retrieval

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Okapi BM25 parameters.
const (
	bm25K1      = 1.2
	bm25B       = 0.75
	bm25Epsilon = 0.25

	titleWeight    = 3
	categoryWeight = 2
	textWeight     = 1
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// LexicalIndex is an immutable in-process BM25 index over a small
// knowledge base. Safe for concurrent reads.
type LexicalIndex struct {
	docs    []Document
	tf      []map[string]int
	lengths []int
	avgLen  float64
	idf     map[string]float64
}

// NewLexicalIndex indexes docs. Title and category tokens are weighted
// above body text.
func NewLexicalIndex(docs []Document) *LexicalIndex {
	idx := &LexicalIndex{
		docs:    docs,
		tf:      make([]map[string]int, len(docs)),
		lengths: make([]int, len(docs)),
		idf:     make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0
	for i, d := range docs {
		tokens := weightedTokens(d)
		idx.lengths[i] = len(tokens)
		total += len(tokens)

		freq := make(map[string]int)
		for _, tok := range tokens {
			if freq[tok] == 0 {
				df[tok]++
			}
			freq[tok]++
		}
		idx.tf[i] = freq
	}
	if len(docs) > 0 {
		idx.avgLen = float64(total) / float64(len(docs))
	}

	n := float64(len(docs))
	for term, f := range df {
		v := math.Log(1 + (n-float64(f)+0.5)/(float64(f)+0.5))
		if v < 0 {
			v = bm25Epsilon
		}
		idx.idf[term] = v
	}
	return idx
}

// Search implements Searcher.
func (idx *LexicalIndex) Search(ctx context.Context, query string, k int) ([]domain.RetrievedPassage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []domain.RetrievedPassage
	for i, d := range idx.docs {
		if s := idx.score(i, terms); s > 0 {
			hits = append(hits, domain.RetrievedPassage{
				DocumentID: d.ID,
				Title:      d.Title,
				Text:       d.Text,
				Score:      s,
			})
		}
	}
	return SortPassages(hits, k), nil
}

// Len returns the number of indexed documents.
func (idx *LexicalIndex) Len() int { return len(idx.docs) }

func (idx *LexicalIndex) score(i int, terms []string) float64 {
	freq := idx.tf[i]
	dl := float64(idx.lengths[i])

	var s float64
	for _, term := range terms {
		idf, ok := idx.idf[term]
		if !ok {
			continue
		}
		f := float64(freq[term])
		if f == 0 {
			continue
		}
		s += idf * (f * (bm25K1 + 1)) / (f + bm25K1*(1-bm25B+bm25B*dl/idx.avgLen))
	}
	return s
}

func weightedTokens(d Document) []string {
	var out []string
	for _, field := range []struct {
		text   string
		weight int
	}{
		{d.Title, titleWeight},
		{strings.ReplaceAll(d.Category, "_", " "), categoryWeight},
		{d.Text, textWeight},
	} {
		toks := tokenize(field.text)
		for i := 0; i < field.weight; i++ {
			out = append(out, toks...)
		}
	}
	return out
}

// tokenize lower-cases text and keeps alphanumeric runs of two or more
// characters.
func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := matches[:0]
	for _, m := range matches {
		if len(m) >= 2 {
			out = append(out, m)
		}
	}
	return out
}

type knowledgeBaseFile struct {
	Documents []Document `yaml:"documents"`
}

// LoadKnowledgeBase reads documents from a YAML file. Ids must be unique
// and non-empty.
func LoadKnowledgeBase(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("read knowledge base %s: %v", path, err))
	}

	var file knowledgeBaseFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("decode knowledge base %s: %v", path, err))
	}

	var problems []string
	seen := make(map[string]bool, len(file.Documents))
	for i, d := range file.Documents {
		id := strings.TrimSpace(d.ID)
		switch {
		case id == "":
			problems = append(problems, fmt.Sprintf("document %d: id is required", i+1))
		case seen[id]:
			problems = append(problems, fmt.Sprintf("document %q: duplicate id", id))
		}
		seen[id] = true
		file.Documents[i].ID = id
	}
	if len(problems) > 0 {
		return nil, domain.NewConfigurationError(problems...)
	}
	return file.Documents, nil
}
