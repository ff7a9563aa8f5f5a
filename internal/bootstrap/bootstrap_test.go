package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/llm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("REDIS_ADDR", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Rules.Path = "../../config/auth_rules.yaml"
	cfg.Directory.Backend = config.DirectoryFile
	cfg.Directory.FilePath = "../../config/employees.yaml"
	cfg.Retrieval.Backend = config.RetrievalLexical
	cfg.Retrieval.KnowledgeBasePath = "../../config/knowledge_base.yaml"
	return cfg
}

// scriptedModel answers the classifier with label/category and every other
// prompt with answer.
func scriptedModel(label, category, answer string) llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, _ string, params llm.Params) (string, error) {
		if strings.Contains(params.System, "ticket classifier") {
			return `{"label":"` + label + `","confidence":0.93,"category":"` + category + `","rationale":"test"}`, nil
		}
		return answer, nil
	})
}

func TestBuildResolvesTicketEndToEnd(t *testing.T) {
	model := scriptedModel("IN_SCOPE", "network_issue",
		"Flush the DNS cache with ipconfig /flushdns and reconnect the VPN [kb-vpn-connection-problems].")

	rt, err := Build(context.Background(), testConfig(t), nil, WithCompleter(model))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	outcome := rt.Pipeline.ProcessTicket(context.Background(), domain.TicketRequest{
		RequesterID: "e007",
		Subject:     "VPN connected but internal sites unreachable",
		Body:        "The VPN client says connected but I cannot reach the intranet.",
	})

	resolved, ok := outcome.(domain.Resolved)
	require.True(t, ok, "got %T: %s", outcome, outcome.Message())
	assert.Equal(t, []string{"kb-vpn-connection-problems"}, resolved.Citations)
	assert.False(t, resolved.Ungrounded)
}

func TestBuildShippedRulesEscalateStaffAccessRequests(t *testing.T) {
	model := scriptedModel("IN_SCOPE", "access_request", "unused")

	rt, err := Build(context.Background(), testConfig(t), nil, WithCompleter(model))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	outcome := rt.Pipeline.ProcessTicket(context.Background(), domain.TicketRequest{
		RequesterID: "E004",
		Subject:     "Finance data access",
		Body:        "I need read access to the quarterly finance reports share.",
	})

	escalated, ok := outcome.(domain.Escalated)
	require.True(t, ok, "got %T", outcome)
	assert.Equal(t, "R6", escalated.RuleID)
}

func TestBuildShippedRulesDenyContractorAccessRequests(t *testing.T) {
	model := scriptedModel("IN_SCOPE", "access_request", "unused")

	rt, err := Build(context.Background(), testConfig(t), nil, WithCompleter(model))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	outcome := rt.Pipeline.ProcessTicket(context.Background(), domain.TicketRequest{
		RequesterID: "E008",
		Body:        "Please add me to the production database admins group.",
	})

	denied, ok := outcome.(domain.Denied)
	require.True(t, ok, "got %T", outcome)
	assert.Equal(t, "R9", denied.RuleID)
}

func TestBuildRejectsOffScopeTickets(t *testing.T) {
	model := scriptedModel("OUT_OF_SCOPE", "off_scope", "unused")

	rt, err := Build(context.Background(), testConfig(t), nil, WithCompleter(model))
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	outcome := rt.Pipeline.ProcessTicket(context.Background(), domain.TicketRequest{
		RequesterID: "E008",
		Body:        "There are ants near the pantry, can someone call pest control?",
	})
	assert.Equal(t, domain.OutcomeRejected, outcome.Kind())
}

func TestBuildReportsMissingRulesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rules.Path = "../../config/does-not-exist.yaml"

	rt, err := Build(context.Background(), cfg, nil, WithCompleter(scriptedModel("IN_SCOPE", "x", "y")))
	require.Error(t, err)
	assert.Nil(t, rt)
}

func TestBuildValidatesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.TopK = 0

	_, err := Build(context.Background(), cfg, nil, WithCompleter(scriptedModel("IN_SCOPE", "x", "y")))
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}
