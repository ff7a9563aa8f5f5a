package rules

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// RuleSet is an immutable, validated list of rules in declaration order.
type RuleSet struct {
	rules []*compiledRule
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML rules file.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("read rules file %s: %v", path, err))
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rules document.
func Parse(data []byte) (*RuleSet, error) {
	var file ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("decode rules: %v", err))
	}
	return NewRuleSet(file.Rules)
}

// NewRuleSet validates rules and compiles their conditions. All problems
// are reported together in a *domain.ConfigurationError.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	env, err := newConditionEnv()
	if err != nil {
		return nil, err
	}

	var problems []string
	seen := make(map[string]bool, len(rules))
	compiled := make([]*compiledRule, 0, len(rules))

	for i, r := range rules {
		r.ID = strings.TrimSpace(r.ID)
		label := fmt.Sprintf("rule %d", i+1)
		if r.ID != "" {
			label = fmt.Sprintf("rule %q", r.ID)
		}

		switch {
		case r.ID == "":
			problems = append(problems, label+": id is required")
		case r.ID == DefaultRuleID:
			problems = append(problems, label+": id is reserved")
		case seen[r.ID]:
			problems = append(problems, label+": duplicate id")
		}
		seen[r.ID] = true

		verdict, err := ParseVerdict(r.Verdict)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
		}

		c := &compiledRule{
			Rule:        r,
			category:    selector(domain.NormalizeCategory(r.Category)),
			role:        domain.Role(selector(string(domain.NormalizeRole(r.Role)))),
			department:  selector(strings.TrimSpace(r.Department)),
			verdict:     verdict,
			specificity: r.Specificity(),
		}
		c.Permission = strings.TrimSpace(r.Permission)

		if when := strings.TrimSpace(r.When); when != "" {
			prg, err := compileCondition(env, when)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: when: %v", label, err))
			}
			c.condition = prg
		}
		compiled = append(compiled, c)
	}

	if len(problems) > 0 {
		return nil, domain.NewConfigurationError(problems...)
	}
	return &RuleSet{rules: compiled}, nil
}

func selector(s string) string {
	if isWildcard(s) {
		return Wildcard
	}
	return s
}

// Len returns the number of declared rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Rules returns a copy of the declared rules.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	for i, c := range s.rules {
		out[i] = c.Rule
	}
	return out
}
