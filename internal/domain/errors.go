package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the pipeline stages and their callers.
var (
	ErrGuardrailRejection      = errors.New("guardrail rejection")
	ErrIdentityResolution      = errors.New("identity resolution failed")
	ErrAuthorizationDenial     = errors.New("authorization denied")
	ErrAuthorizationEscalation = errors.New("authorization requires escalation")
	ErrProvider                = errors.New("provider error")

	// ErrEmployeeNotFound is returned by directories for unknown ids.
	ErrEmployeeNotFound = fmt.Errorf("%w: employee not found", ErrIdentityResolution)
	// ErrClassifierUnavailable covers classifier call failures and malformed replies.
	ErrClassifierUnavailable = fmt.Errorf("%w: classifier unavailable", ErrProvider)
	// ErrNoEvidence means the knowledge base could not support an answer.
	ErrNoEvidence = errors.New("no evidence")
)

// ConfigurationError reports malformed or missing static configuration.
// It is only ever raised at startup.
type ConfigurationError struct {
	Problems []string
}

// NewConfigurationError builds a ConfigurationError from formatted problems.
func NewConfigurationError(problems ...string) *ConfigurationError {
	return &ConfigurationError{Problems: problems}
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + strings.Join(e.Problems, "; ")
}

// OutcomeError maps an outcome to its taxonomy error. Resolved yields nil.
func OutcomeError(o TicketOutcome) error {
	switch v := o.(type) {
	case Rejected:
		return fmt.Errorf("%w: %s", ErrGuardrailRejection, v.Reason)
	case IdentityError:
		return fmt.Errorf("%w: %s", ErrIdentityResolution, v.Reason)
	case Denied:
		return fmt.Errorf("%w: %s", ErrAuthorizationDenial, v.Reason)
	case Escalated:
		return fmt.Errorf("%w: %s", ErrAuthorizationEscalation, v.Reason)
	case ResolutionFailed:
		if v.Cause == CauseNoEvidence {
			return fmt.Errorf("%w: %s", ErrNoEvidence, v.Reason)
		}
		return fmt.Errorf("%w: %s", ErrProvider, v.Reason)
	}
	return nil
}
