package domain

import "time"

// TicketRun is the audit record of one pipeline run.
type TicketRun struct {
	ID          int64       `json:"id"`
	RunID       string      `json:"run_id"`
	RequesterID string      `json:"requester_id"`
	Category    string      `json:"category,omitempty"`
	Outcome     OutcomeKind `json:"outcome"`
	Reason      string      `json:"reason,omitempty"`
	DurationMs  int64       `json:"duration_ms"`
	CreatedAt   time.Time   `json:"created_at"`
}
