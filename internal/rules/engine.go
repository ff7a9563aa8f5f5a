package rules

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Engine authorizes (employee, category) pairs against a RuleSet. It is
// safe for concurrent use.
type Engine struct {
	set    *RuleSet
	logger *zap.Logger
}

// NewEngine constructs an Engine. A nil set denies everything.
func NewEngine(set *RuleSet, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if set == nil {
		set = &RuleSet{}
	}
	return &Engine{set: set, logger: logger}
}

// Authorize picks the most specific matching rule, the earliest declared one
// on ties, and falls back to default-deny. A condition that fails to
// evaluate counts as a DENY match for its rule.
func (e *Engine) Authorize(ctx context.Context, emp domain.EmployeeRecord, category string) (domain.AuthorizationDecision, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuthorizationDecision{}, err
	}

	category = domain.NormalizeCategory(category)
	var (
		best     domain.AuthorizationDecision
		bestSpec = -1
		input    map[string]any
	)

	for _, r := range e.set.rules {
		if r.specificity <= bestSpec || !r.matches(emp, category) {
			continue
		}

		decision := r.decision()
		if r.condition != nil {
			if input == nil {
				input = conditionInput(emp, category)
			}
			ok, err := evalCondition(r.condition, input)
			if err != nil {
				e.logger.Warn("rule condition failed",
					zap.String("rule_id", r.ID), zap.Error(err))
				decision = domain.AuthorizationDecision{
					Verdict:   domain.VerdictDeny,
					RuleID:    r.ID,
					Rationale: "rule condition could not be evaluated",
				}
			} else if !ok {
				continue
			}
		}

		best, bestSpec = decision, r.specificity
	}

	if bestSpec < 0 {
		best = domain.AuthorizationDecision{
			Verdict:   domain.VerdictDeny,
			RuleID:    DefaultRuleID,
			Rationale: "no applicable authorization rule",
		}
	}

	e.logger.Debug("authorization decided",
		zap.String("employee_id", emp.ID),
		zap.String("category", category),
		zap.String("verdict", string(best.Verdict)),
		zap.String("rule_id", best.RuleID))
	return best, nil
}
