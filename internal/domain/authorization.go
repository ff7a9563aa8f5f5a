package domain

// Verdict is the outcome of evaluating the authorization rule set.
type Verdict string

const (
	VerdictAllow    Verdict = "ALLOW"
	VerdictDeny     Verdict = "DENY"
	VerdictEscalate Verdict = "ESCALATE"
)

// AuthorizationDecision names the verdict and the rule that produced it.
type AuthorizationDecision struct {
	Verdict   Verdict
	RuleID    string
	Rationale string
}
