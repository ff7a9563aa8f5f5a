package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/llm"
)

type fakeSearcher struct {
	passages []domain.RetrievedPassage
	err      error
	calls    int
	lastK    int
}

func (s *fakeSearcher) Search(_ context.Context, _ string, k int) ([]domain.RetrievedPassage, error) {
	s.calls++
	s.lastK = k
	return s.passages, s.err
}

type scriptedModel struct {
	answer  string
	err     error
	calls   int
	prompts []string
	params  []llm.Params
}

func (m *scriptedModel) Complete(_ context.Context, prompt string, params llm.Params) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.params = append(m.params, params)
	return m.answer, m.err
}

var vpnTicket = domain.TicketRequest{RequesterID: "E001", Subject: "VPN", Body: "VPN drops every 10 minutes"}

func TestResolveGroundedAnswer(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{
		{DocumentID: "kb-wifi", Title: "Wi-Fi", Text: "Forget and reconnect.", Score: 0.4},
		{DocumentID: "kb-vpn", Title: "VPN Connection Problems", Text: "Update the VPN client.", Score: 0.8},
	}}
	model := &scriptedModel{answer: "Update your VPN client [kb-vpn]. If it persists see [kb-wifi] and [kb-vpn]."}

	res, err := NewEngine(searcher, model, Options{TopK: 2}, nil).Resolve(context.Background(), vpnTicket)
	require.NoError(t, err)

	assert.Equal(t, []string{"kb-vpn", "kb-wifi"}, res.Citations)
	assert.False(t, res.Ungrounded)
	require.Len(t, res.Passages, 2)
	assert.Equal(t, "kb-vpn", res.Passages[0].DocumentID)
	assert.Equal(t, 2, searcher.lastK)

	require.Equal(t, 1, model.calls)
	assert.Contains(t, model.prompts[0], "[kb-vpn] VPN Connection Problems")
	assert.Contains(t, model.prompts[0], "VPN drops every 10 minutes")
	assert.Equal(t, 400, model.params[0].MaxTokens)
}

func TestResolveNoPassagesFailsClosed(t *testing.T) {
	model := &scriptedModel{answer: "try turning it off and on"}
	_, err := NewEngine(&fakeSearcher{}, model, Options{}, nil).Resolve(context.Background(), vpnTicket)

	assert.ErrorIs(t, err, domain.ErrNoEvidence)
	assert.Zero(t, model.calls)
}

func TestResolveMinRelevanceFilters(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{{DocumentID: "kb-1", Score: 0.1}}}
	model := &scriptedModel{answer: "x [kb-1]"}

	_, err := NewEngine(searcher, model, Options{MinRelevance: 0.25}, nil).Resolve(context.Background(), vpnTicket)
	assert.ErrorIs(t, err, domain.ErrNoEvidence)
	assert.Zero(t, model.calls)
}

func TestResolveUngroundedAllowed(t *testing.T) {
	model := &scriptedModel{answer: "Restart your router."}
	res, err := NewEngine(&fakeSearcher{}, model, Options{AllowUngrounded: true}, nil).
		Resolve(context.Background(), vpnTicket)
	require.NoError(t, err)

	assert.True(t, res.Ungrounded)
	assert.Empty(t, res.Citations)
	assert.Equal(t, "Restart your router.", res.Answer)
}

func TestResolveUncitedAnswer(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{{DocumentID: "kb-vpn", Score: 0.9}}}
	model := &scriptedModel{answer: "Try turning it off and on again."}

	_, err := NewEngine(searcher, model, Options{}, nil).Resolve(context.Background(), vpnTicket)
	assert.ErrorIs(t, err, domain.ErrNoEvidence)

	res, err := NewEngine(searcher, model, Options{AllowUngrounded: true}, nil).Resolve(context.Background(), vpnTicket)
	require.NoError(t, err)
	assert.True(t, res.Ungrounded)
	assert.Empty(t, res.Citations)
	assert.Equal(t, "Try turning it off and on again.", res.Answer)
}

func TestResolveInsufficientContext(t *testing.T) {
	searcher := &fakeSearcher{passages: []domain.RetrievedPassage{{DocumentID: "kb-vpn", Score: 1}}}
	for _, answer := range []string{"INSUFFICIENT_CONTEXT", "  insufficient_context.", ""} {
		model := &scriptedModel{answer: answer}
		_, err := NewEngine(searcher, model, Options{}, nil).Resolve(context.Background(), vpnTicket)
		assert.ErrorIs(t, err, domain.ErrNoEvidence, "answer %q", answer)
	}
}

func TestResolveProviderErrors(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection reset")}
	_, err := NewEngine(searcher, &scriptedModel{}, Options{}, nil).Resolve(context.Background(), vpnTicket)
	assert.ErrorIs(t, err, domain.ErrProvider)

	searcher = &fakeSearcher{passages: []domain.RetrievedPassage{{DocumentID: "kb-vpn", Score: 1}}}
	model := &scriptedModel{err: llm.ErrRateLimited}
	_, err = NewEngine(searcher, model, Options{}, nil).Resolve(context.Background(), vpnTicket)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.ErrorIs(t, err, llm.ErrRateLimited)
	assert.False(t, errors.Is(err, domain.ErrNoEvidence))
}

func TestExtractCitations(t *testing.T) {
	passages := []domain.RetrievedPassage{{DocumentID: "kb-vpn"}, {DocumentID: "KB-Mail"}, {DocumentID: "kb-wifi"}}

	tests := []struct {
		answer string
		want   []string
	}{
		{"see [kb-wifi] then [kb-vpn]", []string{"kb-wifi", "kb-vpn"}},
		{"see [kb-vpn, kb-mail]", []string{"kb-vpn", "KB-Mail"}},
		{"[kb-unknown] and [1]", nil},
		{"no citations", nil},
		{"[kb-vpn][kb-vpn]", []string{"kb-vpn"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractCitations(tt.answer, passages), tt.answer)
	}
}
