package dto

import (
	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// ProcessTicketRequest payload. RequesterID is ignored in favor of the token
// subject when the caller is authenticated.
type ProcessTicketRequest struct {
	RequesterID string `json:"requester_id"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Category    string `json:"category"`
}

// TicketOutcomeResponse is the flattened TicketOutcome returned to callers.
type TicketOutcomeResponse struct {
	RunID      string             `json:"run_id"`
	Outcome    domain.OutcomeKind `json:"outcome"`
	Message    string             `json:"message"`
	Reason     string             `json:"reason,omitempty"`
	Answer     string             `json:"answer,omitempty"`
	Citations  []string           `json:"citations,omitempty"`
	Ungrounded bool               `json:"ungrounded,omitempty"`
	RuleID     string             `json:"rule_id,omitempty"`
	Label      string             `json:"label,omitempty"`
	Cause      string             `json:"cause,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// NewTicketOutcomeResponse flattens an outcome.
func NewTicketOutcomeResponse(runID string, o domain.TicketOutcome, durationMs int64) TicketOutcomeResponse {
	resp := TicketOutcomeResponse{
		RunID:      runID,
		Outcome:    o.Kind(),
		Message:    o.Message(),
		Reason:     domain.OutcomeReason(o),
		DurationMs: durationMs,
	}
	switch v := o.(type) {
	case domain.Resolved:
		resp.Answer = v.Answer
		resp.Citations = v.Citations
		resp.Ungrounded = v.Ungrounded
	case domain.Rejected:
		resp.Label = string(v.Label)
	case domain.Denied:
		resp.RuleID = v.RuleID
	case domain.Escalated:
		resp.RuleID = v.RuleID
	case domain.ResolutionFailed:
		resp.Cause = string(v.Cause)
	}
	return resp
}
