// Package rules evaluates the static authorization rule set that decides
// whether an employee may raise a ticket of a given category.
package rules

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Wildcard matches any value of a selector.
const Wildcard = "*"

// DefaultRuleID names the built-in fallback applied when no rule matches.
const DefaultRuleID = "default-deny"

// Rule is one authorization entry as written in the rules file.
type Rule struct {
	ID         string `yaml:"id"`
	Category   string `yaml:"category"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
	Permission string `yaml:"permission,omitempty"`
	When       string `yaml:"when,omitempty"`
	Verdict    string `yaml:"verdict"`
	Rationale  string `yaml:"rationale"`
}

// Specificity counts the constraints a rule places on a request.
func (r Rule) Specificity() int {
	n := 0
	for _, s := range []string{r.Category, r.Role, r.Department} {
		if !isWildcard(s) {
			n++
		}
	}
	if strings.TrimSpace(r.Permission) != "" {
		n++
	}
	if strings.TrimSpace(r.When) != "" {
		n++
	}
	return n
}

// ParseVerdict accepts the canonical verdict names and the legacy
// allowed / blocked_by_auth / needs_approval spellings.
func ParseVerdict(raw string) (domain.Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "allow", "allowed":
		return domain.VerdictAllow, nil
	case "deny", "denied", "blocked", "blocked_by_auth":
		return domain.VerdictDeny, nil
	case "escalate", "escalated", "needs_approval":
		return domain.VerdictEscalate, nil
	}
	return "", fmt.Errorf("unknown verdict %q", raw)
}

func isWildcard(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == Wildcard
}

// compiledRule is a validated Rule with normalized selectors.
type compiledRule struct {
	Rule
	category    string
	role        domain.Role
	department  string
	verdict     domain.Verdict
	specificity int
	condition   cel.Program
}

func (c *compiledRule) matches(emp domain.EmployeeRecord, category string) bool {
	if c.category != Wildcard && c.category != category {
		return false
	}
	if c.role != Wildcard && c.role != domain.NormalizeRole(string(emp.Role)) {
		return false
	}
	if c.department != Wildcard && !strings.EqualFold(c.department, strings.TrimSpace(emp.Department)) {
		return false
	}
	if c.Permission != "" && !emp.HasPermission(c.Permission) {
		return false
	}
	return true
}

func (c *compiledRule) decision() domain.AuthorizationDecision {
	return domain.AuthorizationDecision{Verdict: c.verdict, RuleID: c.ID, Rationale: c.Rationale}
}
