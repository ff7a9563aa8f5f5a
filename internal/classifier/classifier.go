// Package classifier labels ticket text as in scope, out of scope or unsafe
// before any identity or retrieval work happens.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/llm"
)

// Classifier asks the completion model for an appropriateness label.
type Classifier struct {
	model  llm.Completer
	logger *zap.Logger
}

// New constructs a Classifier.
func New(model llm.Completer, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{model: model, logger: logger}
}

type reply struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
	Category   string   `json:"category"`
	Rationale  string   `json:"rationale"`
}

// Classify labels text. Any model failure or unparsable reply is reported as
// domain.ErrClassifierUnavailable; there is no default label.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.ClassificationResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ClassificationResult{}, fmt.Errorf("%w: empty ticket text", domain.ErrClassifierUnavailable)
	}

	raw, err := c.model.Complete(ctx, userPrompt(text), llm.Params{System: systemPrompt, Temperature: 0})
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %w", domain.ErrClassifierUnavailable, err)
	}

	result, err := Parse(raw)
	if err != nil {
		c.logger.Warn("unparsable classifier reply", zap.Error(err), zap.Int("reply_len", len(raw)))
		return domain.ClassificationResult{}, fmt.Errorf("%w: %w", domain.ErrClassifierUnavailable, err)
	}
	return result, nil
}

// Parse decodes a classifier reply. The JSON object may be wrapped in a
// markdown code fence.
func Parse(raw string) (domain.ClassificationResult, error) {
	var r reply
	if err := json.Unmarshal([]byte(extractJSON(raw)), &r); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("decode reply: %w", err)
	}

	label := domain.ClassificationLabel(strings.ToUpper(strings.TrimSpace(r.Label)))
	if !label.Valid() {
		return domain.ClassificationResult{}, fmt.Errorf("unknown label %q", r.Label)
	}
	if r.Confidence == nil {
		return domain.ClassificationResult{}, fmt.Errorf("missing confidence")
	}

	return domain.ClassificationResult{
		Label:      label,
		Confidence: clamp(*r.Confidence),
		Category:   domain.NormalizeCategory(r.Category),
		Rationale:  strings.TrimSpace(r.Rationale),
	}, nil
}

func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		return strings.TrimSpace(s)
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
		return strings.TrimSpace(s)
	}
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		return s[i : j+1]
	}
	return s
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
