// Package rag answers authorized tickets from retrieved knowledge-base
// passages.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/llm"
	"github.com/spec-kit/ticket-copilot/internal/retrieval"
)

const (
	defaultTopK      = 4
	defaultMaxTokens = 400
	answerTemp       = 0.2
)

// Options configures an Engine.
type Options struct {
	TopK            int
	MinRelevance    float64
	AllowUngrounded bool
	MaxTokens       int
}

// Engine retrieves passages and synthesizes a cited answer.
type Engine struct {
	searcher retrieval.Searcher
	model    llm.Completer
	opts     Options
	logger   *zap.Logger
}

// NewEngine constructs an Engine. Zero TopK and MaxTokens take defaults.
func NewEngine(searcher retrieval.Searcher, model llm.Completer, opts Options, logger *zap.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{searcher: searcher, model: model, opts: opts, logger: logger}
}

// Resolve answers ticket. It returns domain.ErrNoEvidence when the knowledge
// base cannot support an answer, and wraps every searcher or model failure
// in domain.ErrProvider.
func (e *Engine) Resolve(ctx context.Context, ticket domain.TicketRequest) (domain.Resolution, error) {
	question := ticket.Text()

	start := time.Now()
	hits, err := e.searcher.Search(ctx, question, e.opts.TopK)
	if err != nil {
		return domain.Resolution{}, providerError("search knowledge base", err)
	}
	passages := e.relevant(hits)

	e.logger.Debug("passages retrieved",
		zap.Int("hits", len(hits)),
		zap.Int("kept", len(passages)),
		zap.Duration("duration", time.Since(start)))

	if len(passages) == 0 {
		if !e.opts.AllowUngrounded {
			return domain.Resolution{}, fmt.Errorf("%w: no passage above relevance %.2f", domain.ErrNoEvidence, e.opts.MinRelevance)
		}
		answer, err := e.complete(ctx, ungroundedPrompt(question), ungroundedSystemPrompt)
		if err != nil {
			return domain.Resolution{}, err
		}
		return domain.Resolution{Answer: answer, Ungrounded: true}, nil
	}

	answer, err := e.complete(ctx, groundedPrompt(question, passages), groundedSystemPrompt)
	if err != nil {
		return domain.Resolution{}, err
	}

	citations := ExtractCitations(answer, passages)
	if len(citations) == 0 && !e.opts.AllowUngrounded {
		return domain.Resolution{}, fmt.Errorf("%w: answer cites no retrieved passage", domain.ErrNoEvidence)
	}
	res := domain.Resolution{
		Answer:     answer,
		Citations:  citations,
		Ungrounded: len(citations) == 0,
		Passages:   passages,
	}
	if res.Ungrounded {
		e.logger.Warn("answer cites no retrieved passage", zap.Int("passages", len(passages)))
	}
	return res, nil
}

func (e *Engine) relevant(hits []domain.RetrievedPassage) []domain.RetrievedPassage {
	kept := hits[:0:0]
	for _, p := range hits {
		if p.Score >= e.opts.MinRelevance {
			kept = append(kept, p)
		}
	}
	return retrieval.SortPassages(kept, e.opts.TopK)
}

func (e *Engine) complete(ctx context.Context, prompt, system string) (string, error) {
	answer, err := e.model.Complete(ctx, prompt, llm.Params{
		System:      system,
		Temperature: answerTemp,
		MaxTokens:   e.opts.MaxTokens,
	})
	if err != nil {
		return "", providerError("generate answer", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" || IsInsufficient(answer) {
		return "", fmt.Errorf("%w: model reported insufficient context", domain.ErrNoEvidence)
	}
	return answer, nil
}

func providerError(op string, err error) error {
	if errors.Is(err, domain.ErrProvider) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrProvider, err)
}
