// Package llm exposes the narrow completion and embedding capabilities the
// classifier and RAG stages depend on, backed by langchaingo providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Params tunes a single completion call.
type Params struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// Completer turns a prompt into text.
type Completer interface {
	Complete(ctx context.Context, prompt string, params Params) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, params Params) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string, params Params) (string, error) {
	return f(ctx, prompt, params)
}

// ErrRateLimited marks provider throttling, local or remote.
var ErrRateLimited = fmt.Errorf("%w: rate limited", domain.ErrProvider)

var rateLimitPatterns = []string{
	"rate limit",
	"too many requests",
	"429",
	"quota exceeded",
}

// wrapProviderError tags err as a provider failure, adding ErrRateLimited
// when the message indicates throttling.
func wrapProviderError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrProvider) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(msg, pattern) {
			return fmt.Errorf("%s: %w: %v", op, ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrProvider, err)
}
