package domain

// OutcomeKind identifies which TicketOutcome variant was produced.
type OutcomeKind string

const (
	OutcomeResolved         OutcomeKind = "RESOLVED"
	OutcomeRejected         OutcomeKind = "REJECTED"
	OutcomeDenied           OutcomeKind = "DENIED"
	OutcomeEscalated        OutcomeKind = "ESCALATED"
	OutcomeIdentityError    OutcomeKind = "IDENTITY_ERROR"
	OutcomeResolutionFailed OutcomeKind = "RESOLUTION_FAILED"
)

// FailureCause qualifies a ResolutionFailed outcome.
type FailureCause string

const (
	CauseClassifierUnavailable FailureCause = "CLASSIFIER_UNAVAILABLE"
	CauseProviderError         FailureCause = "PROVIDER_ERROR"
	CauseNoEvidence            FailureCause = "NO_EVIDENCE"
	CauseCancelled             FailureCause = "CANCELLED"
)

// TicketOutcome is the single result of a pipeline run. The set of
// implementations is closed: Resolved, Rejected, Denied, Escalated,
// IdentityError and ResolutionFailed.
type TicketOutcome interface {
	Kind() OutcomeKind
	// Message is the text shown to the requester.
	Message() string
	outcome()
}

// Resolved carries a synthesized answer.
type Resolved struct {
	Answer     string
	Citations  []string
	Ungrounded bool
}

// Rejected means the guardrail classified the ticket out of scope or unsafe.
type Rejected struct {
	Reason string
	Label  ClassificationLabel
}

// Denied means an authorization rule denied the request.
type Denied struct {
	Reason string
	RuleID string
}

// Escalated means an authorization rule requires human review.
type Escalated struct {
	Reason string
	RuleID string
}

// IdentityError means the requester could not be resolved.
type IdentityError struct {
	Reason string
}

// ResolutionFailed means a collaborator failed or no answer could be given.
type ResolutionFailed struct {
	Reason string
	Cause  FailureCause
}

func (Resolved) Kind() OutcomeKind         { return OutcomeResolved }
func (Rejected) Kind() OutcomeKind         { return OutcomeRejected }
func (Denied) Kind() OutcomeKind           { return OutcomeDenied }
func (Escalated) Kind() OutcomeKind        { return OutcomeEscalated }
func (IdentityError) Kind() OutcomeKind    { return OutcomeIdentityError }
func (ResolutionFailed) Kind() OutcomeKind { return OutcomeResolutionFailed }

func (o Resolved) Message() string { return o.Answer }

func (Rejected) Message() string {
	return "Your request cannot be processed as it is not appropriate for this support channel."
}

func (Denied) Message() string {
	return "You are not authorized to perform this action."
}

func (Escalated) Message() string {
	return "Your request requires manager approval before it can be processed."
}

func (IdentityError) Message() string {
	return "We could not find your employee record. Please check your employee ID."
}

func (o ResolutionFailed) Message() string {
	if o.Cause == CauseNoEvidence {
		return "This issue requires human attention. Your ticket has been escalated to the IT support team."
	}
	return "We could not process your request right now. Please try again later."
}

func (Resolved) outcome()         {}
func (Rejected) outcome()         {}
func (Denied) outcome()           {}
func (Escalated) outcome()        {}
func (IdentityError) outcome()    {}
func (ResolutionFailed) outcome() {}

// OutcomeReason returns the internal reason recorded on a non-resolved
// outcome, or "" for Resolved.
func OutcomeReason(o TicketOutcome) string {
	switch v := o.(type) {
	case Rejected:
		return v.Reason
	case Denied:
		return v.Reason
	case Escalated:
		return v.Reason
	case IdentityError:
		return v.Reason
	case ResolutionFailed:
		return v.Reason
	}
	return ""
}
