package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/events"
	"github.com/spec-kit/ticket-copilot/internal/repository"
)

// AuditService records every finished run in the run repository.
type AuditService struct {
	dispatcher events.Dispatcher
	runs       repository.RunRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, runs repository.RunRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{dispatcher: dispatcher, runs: runs, logger: logger}
}

// RegisterHandlers subscribes to processed tickets.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil || a.runs == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketProcessed, a.record)
}

// History lists the latest runs of one requester, newest first.
func (a *AuditService) History(ctx context.Context, requesterID string, limit int) ([]domain.TicketRun, error) {
	return a.runs.ListByRequester(ctx, requesterID, limit)
}

func (a *AuditService) record(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketProcessedPayload)
	if !ok {
		return fmt.Errorf("audit: unexpected payload %T", event.Payload)
	}
	run := &domain.TicketRun{
		RunID:       event.RunID,
		RequesterID: event.RequesterID,
		Category:    payload.Category,
		Outcome:     payload.Outcome,
		Reason:      payload.Reason,
		DurationMs:  payload.DurationMs,
	}
	if err := a.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("audit: record run %s: %w", event.RunID, err)
	}
	a.logger.Debug("ticket run recorded", zap.String("run_id", event.RunID), zap.Int64("id", run.ID))
	return nil
}
