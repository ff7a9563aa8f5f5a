package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// newConditionEnv declares the variables visible to `when` expressions:
//
//	employee  map with id, name, role, department, seniority, permissions
//	category  the ticket category being authorized
func newConditionEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("employee", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("category", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL env: %w", err)
	}
	return env, nil
}

func compileCondition(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("condition must be boolean, got %s", out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	return prg, nil
}

func conditionInput(emp domain.EmployeeRecord, category string) map[string]any {
	perms := make([]string, len(emp.Permissions))
	copy(perms, emp.Permissions)
	return map[string]any{
		"employee": map[string]any{
			"id":          emp.ID,
			"name":        emp.Name,
			"role":        string(domain.NormalizeRole(string(emp.Role))),
			"department":  emp.Department,
			"seniority":   emp.Seniority,
			"permissions": perms,
		},
		"category": category,
	}
}

func evalCondition(prg cel.Program, input map[string]any) (bool, error) {
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", out.Value())
	}
	return v, nil
}
