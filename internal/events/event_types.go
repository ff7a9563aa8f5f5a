package events

import (
	"time"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketProcessed EventType = "ticket_processed"
	EventTicketEscalated EventType = "ticket_escalated"
	EventTicketDenied    EventType = "ticket_denied"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	RunID       string      `json:"run_id"`
	RequesterID string      `json:"requester_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketProcessedPayload payload.
type TicketProcessedPayload struct {
	Outcome    domain.OutcomeKind `json:"outcome"`
	Reason     string             `json:"reason,omitempty"`
	Category   string             `json:"category,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// TicketEscalatedPayload payload. Cause is set for evidence escalations,
// RuleID for authorization escalations.
type TicketEscalatedPayload struct {
	Subject string              `json:"subject"`
	Reason  string              `json:"reason"`
	RuleID  string              `json:"rule_id,omitempty"`
	Cause   domain.FailureCause `json:"cause,omitempty"`
}

// TicketDeniedPayload payload.
type TicketDeniedPayload struct {
	Reason string `json:"reason"`
	RuleID string `json:"rule_id"`
}
