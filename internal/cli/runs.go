package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-copilot/internal/directory"
	"github.com/spec-kit/ticket-copilot/internal/persistence"
	"github.com/spec-kit/ticket-copilot/internal/repository"
	"github.com/spec-kit/ticket-copilot/internal/service"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <employee-id>",
		Short: "Show recent pipeline runs of an employee",
		Long: `Show the latest audited pipeline runs of one employee, newest first.
Runs are recorded only when POSTGRES_DSN is configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.Postgres.DSN == "" {
				return fmt.Errorf("POSTGRES_DSN is required to read run history")
			}

			pg, err := persistence.NewPostgres(ctx, a.cfg.Postgres, a.logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pg.Close()

			audit := service.NewAuditService(nil, repository.NewRunRepository(pg.PoolHandle()), a.logger)
			runs, err := audit.History(ctx, directory.NormalizeID(args[0]), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tRUN\tOUTCOME\tCATEGORY\tREASON")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.CreatedAt.Local().Format(time.DateTime), r.RunID, r.Outcome, r.Category, r.Reason)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", repository.DefaultRunListLimit, "max runs to show")
	return cmd
}
