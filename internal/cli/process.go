package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-copilot/internal/api/dto"
	"github.com/spec-kit/ticket-copilot/internal/bootstrap"
	"github.com/spec-kit/ticket-copilot/internal/domain"
	"github.com/spec-kit/ticket-copilot/internal/events"
	"github.com/spec-kit/ticket-copilot/internal/observability"
	"github.com/spec-kit/ticket-copilot/internal/repository"
	"github.com/spec-kit/ticket-copilot/internal/service"
)

type processOptions struct {
	requester string
	subject   string
	body      string
	category  string
	asJSON    bool
	strict    bool
}

func newProcessCmd(a *app) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process [body]",
		Short: "Run one ticket through the pipeline",
		Long: `Run one ticket through the pipeline and print its outcome.

The body can be given with --body or as the positional argument.

Examples:
  ticketctl process --requester E007 "VPN connects but internal sites do not load"
  ticketctl process --requester E004 --subject "Finance share" --category access_request --body "Need read access"
  ticketctl process --requester E002 --json "My keyboard types double letters"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.body = args[0]
			}
			return a.runProcess(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.requester, "requester", "r", "", "employee id of the requester (required)")
	cmd.Flags().StringVarP(&opts.subject, "subject", "s", "", "ticket subject")
	cmd.Flags().StringVarP(&opts.body, "body", "b", "", "ticket body")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "declared category, overrides the classifier")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the outcome as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero unless the ticket is resolved")
	_ = cmd.MarkFlagRequired("requester")
	return cmd
}

func (a *app) runProcess(cmd *cobra.Command, opts processOptions) error {
	ctx := cmd.Context()

	rt, err := bootstrap.Build(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	dispatcher := events.NewInMemoryDispatcher()
	if pool := rt.Postgres.PoolHandle(); pool != nil {
		service.NewAuditService(dispatcher, repository.NewRunRepository(pool), a.logger).RegisterHandlers()
	}

	tickets := service.NewTicketService(service.TicketDependencies{
		Pipeline:   rt.Pipeline,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     a.logger,
	})

	result := tickets.Process(ctx, domain.TicketRequest{
		RequesterID: opts.requester,
		Subject:     opts.subject,
		Body:        opts.body,
		Category:    opts.category,
	})
	resp := dto.NewTicketOutcomeResponse(result.RunID, result.Outcome, result.Duration.Milliseconds())
	if err := printOutcome(cmd, resp, opts.asJSON); err != nil {
		return err
	}
	if opts.strict {
		return domain.OutcomeError(result.Outcome)
	}
	return nil
}

func printOutcome(cmd *cobra.Command, resp dto.TicketOutcomeResponse, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(out, "Outcome: %s\n", resp.Outcome)
	switch {
	case resp.RuleID != "":
		fmt.Fprintf(out, "Rule:    %s\n", resp.RuleID)
	case resp.Cause != "":
		fmt.Fprintf(out, "Cause:   %s\n", resp.Cause)
	case resp.Label != "":
		fmt.Fprintf(out, "Label:   %s\n", resp.Label)
	}
	fmt.Fprintf(out, "Run:     %s (%dms)\n\n", resp.RunID, resp.DurationMs)
	fmt.Fprintln(out, strings.TrimSpace(resp.Message))
	if len(resp.Citations) > 0 {
		fmt.Fprintf(out, "\nSources: %s\n", strings.Join(resp.Citations, ", "))
	}
	if resp.Ungrounded {
		fmt.Fprintln(out, "\n(answer is not grounded in the knowledge base)")
	}
	return nil
}
