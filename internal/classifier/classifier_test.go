package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/llm"
)

func stubModel(reply string, err error) (llm.Completer, *[]string) {
	var prompts []string
	return llm.CompleterFunc(func(_ context.Context, prompt string, params llm.Params) (string, error) {
		prompts = append(prompts, prompt)
		return reply, err
	}), &prompts
}

func TestClassifyOutOfScope(t *testing.T) {
	model, prompts := stubModel(`{"label":"OUT_OF_SCOPE","confidence":0.97,"category":"off_scope","rationale":"pets are not IT"}`, nil)
	c := New(model, nil)

	result, err := c.Classify(context.Background(), "Can I get a pet octopus for the office?")
	require.NoError(t, err)

	assert.Equal(t, domain.LabelOutOfScope, result.Label)
	assert.Equal(t, 0.97, result.Confidence)
	assert.Equal(t, domain.CategoryOffScope, result.Category)
	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "pet octopus")
}

func TestClassifyModelFailureIsUnavailable(t *testing.T) {
	model, _ := stubModel("", context.DeadlineExceeded)
	c := New(model, nil)

	_, err := c.Classify(context.Background(), "VPN is down")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifyMalformedReplyFailsClosed(t *testing.T) {
	for _, reply := range []string{
		"I think this is probably fine",
		`{"label":"MAYBE","confidence":0.4}`,
		`{"label":"IN_SCOPE"}`,
	} {
		model, _ := stubModel(reply, nil)
		_, err := New(model, nil).Classify(context.Background(), "Outlook crashes")
		assert.ErrorIs(t, err, domain.ErrClassifierUnavailable, reply)
	}
}

func TestClassifyEmptyText(t *testing.T) {
	model, prompts := stubModel(`{"label":"IN_SCOPE","confidence":1}`, nil)
	_, err := New(model, nil).Classify(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
	assert.Empty(t, *prompts)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.ClassificationResult
	}{
		{
			name: "fenced json",
			raw:  "```json\n{\"label\":\"in_scope\",\"confidence\":0.8,\"category\":\"Network_Issue\"}\n```",
			want: domain.ClassificationResult{Label: domain.LabelInScope, Confidence: 0.8, Category: domain.CategoryNetworkIssue},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"label\":\"UNSAFE\",\"confidence\":0.9,\"rationale\":\" impersonation \"}\n```",
			want: domain.ClassificationResult{Label: domain.LabelUnsafe, Confidence: 0.9, Rationale: "impersonation"},
		},
		{
			name: "prose around object",
			raw:  "Here you go: {\"label\":\"IN_SCOPE\",\"confidence\":1.7} hope it helps",
			want: domain.ClassificationResult{Label: domain.LabelInScope, Confidence: 1},
		},
		{
			name: "negative confidence clamps",
			raw:  `{"label":"OUT_OF_SCOPE","confidence":-0.2}`,
			want: domain.ClassificationResult{Label: domain.LabelOutOfScope, Confidence: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
	_, err = Parse(`{"label":"SPAM","confidence":0.5}`)
	assert.True(t, err != nil && !errors.Is(err, domain.ErrProvider))
}
