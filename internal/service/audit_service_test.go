package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/events"
)

type memoryRuns struct {
	runs []domain.TicketRun
	err  error
}

func (m *memoryRuns) Create(_ context.Context, run *domain.TicketRun) error {
	if m.err != nil {
		return m.err
	}
	run.ID = int64(len(m.runs) + 1)
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memoryRuns) ListByRequester(_ context.Context, requesterID string, limit int) ([]domain.TicketRun, error) {
	var out []domain.TicketRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.runs[i].RequesterID == requesterID {
			out = append(out, m.runs[i])
		}
	}
	return out, nil
}

func TestAuditServiceRecordsProcessedRuns(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	runs := &memoryRuns{}
	NewAuditService(d, runs, nil).RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		Pipeline: fixedPipeline{
			outcome:  domain.Denied{Reason: "contractors cannot", RuleID: "R9"},
			category: "access_request",
		},
		Dispatcher: d,
	})
	// no declared category: the run records the one the pipeline inferred
	res := svc.Process(context.Background(), domain.TicketRequest{RequesterID: "E008", Body: "admin rights"})
	assert.Equal(t, "access_request", res.Category)

	require.Len(t, runs.runs, 1)
	got := runs.runs[0]
	assert.Equal(t, res.RunID, got.RunID)
	assert.Equal(t, "E008", got.RequesterID)
	assert.Equal(t, "access_request", got.Category)
	assert.Equal(t, domain.OutcomeDenied, got.Outcome)
	assert.Equal(t, "contractors cannot", got.Reason)
}

func TestAuditServiceHistoryNewestFirst(t *testing.T) {
	runs := &memoryRuns{runs: []domain.TicketRun{
		{RunID: "a", RequesterID: "E001"},
		{RunID: "b", RequesterID: "E002"},
		{RunID: "c", RequesterID: "E001"},
	}}
	got, err := NewAuditService(nil, runs, nil).History(context.Background(), "E001", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].RunID)
}

func TestAuditServiceFailureDoesNotChangeOutcome(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	NewAuditService(d, &memoryRuns{err: errors.New("db down")}, nil).RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		Pipeline:   fixedPipeline{outcome: domain.Resolved{Answer: "ok"}},
		Dispatcher: d,
	})
	res := svc.Process(context.Background(), domain.TicketRequest{RequesterID: "E001", Body: "x"})
	assert.Equal(t, domain.OutcomeResolved, res.Outcome.Kind())
}

func TestAuditServiceRejectsForeignPayload(t *testing.T) {
	a := NewAuditService(nil, &memoryRuns{}, nil)
	err := a.record(context.Background(), events.Event{Type: events.EventTicketProcessed, Payload: "nope"})
	require.Error(t, err)
}
