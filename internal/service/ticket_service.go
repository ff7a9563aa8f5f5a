package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/events"
	"github.com/spec-kit/ticket-copilot/internal/observability"
	"github.com/spec-kit/ticket-copilot/internal/pipeline"
)

// Processor runs one ticket through the guardrail pipeline.
type Processor interface {
	Run(ctx context.Context, ticket domain.TicketRequest) pipeline.Result
}

// TicketService wraps the pipeline with run ids, metrics and events.
type TicketService struct {
	pipeline   Processor
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Pipeline   Processor
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// ProcessResult is a finished run.
type ProcessResult struct {
	RunID    string
	Outcome  domain.TicketOutcome
	Category string
	Duration time.Duration
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		pipeline:   deps.Pipeline,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Process runs ticket and publishes the resulting events. Event handler
// failures are logged and never change the outcome.
func (s *TicketService) Process(ctx context.Context, ticket domain.TicketRequest) ProcessResult {
	runID := uuid.NewString()
	start := s.now()

	result := s.pipeline.Run(ctx, ticket)
	outcome := result.Outcome
	duration := s.now().Sub(start)
	s.metrics.RecordOutcome(outcome, duration)

	s.logger.Info("ticket run finished",
		zap.String("run_id", runID),
		zap.String("requester_id", ticket.RequesterID),
		zap.String("outcome", string(outcome.Kind())),
		zap.Duration("duration", duration))

	s.publish(ctx, runID, ticket, events.EventTicketProcessed, events.TicketProcessedPayload{
		Outcome:    outcome.Kind(),
		Reason:     domain.OutcomeReason(outcome),
		Category:   result.Category,
		DurationMs: duration.Milliseconds(),
	})

	switch o := outcome.(type) {
	case domain.Escalated:
		s.publish(ctx, runID, ticket, events.EventTicketEscalated, events.TicketEscalatedPayload{
			Subject: ticket.Subject, Reason: o.Reason, RuleID: o.RuleID,
		})
	case domain.ResolutionFailed:
		if o.Cause == domain.CauseNoEvidence {
			s.publish(ctx, runID, ticket, events.EventTicketEscalated, events.TicketEscalatedPayload{
				Subject: ticket.Subject, Reason: o.Reason, Cause: o.Cause,
			})
		}
	case domain.Denied:
		s.publish(ctx, runID, ticket, events.EventTicketDenied, events.TicketDeniedPayload{
			Reason: o.Reason, RuleID: o.RuleID,
		})
	}

	return ProcessResult{RunID: runID, Outcome: outcome, Category: result.Category, Duration: duration}
}

func (s *TicketService) publish(ctx context.Context, runID string, ticket domain.TicketRequest, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		RunID:       runID,
		RequesterID: ticket.RequesterID,
		Timestamp:   s.now().UTC(),
		Payload:     payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.String("run_id", runID), zap.Error(err))
	}
}
