package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-copilot/internal/rules"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect authorization rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check [file]",
		Short: "Validate a rules file and list its rules",
		Long: `Validate a rules file (default RULES_FILE) and list its rules in
declaration order with their specificity. Every problem in the file is
reported at once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Rules.Path
			if len(args) == 1 {
				path = args[0]
			}
			set, err := rules.LoadFile(path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tROLE\tDEPARTMENT\tVERDICT\tSPECIFICITY")
			for _, r := range set.Rules() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", r.ID, r.Category, r.Role, r.Department, r.Verdict, r.Specificity())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d rules OK (%s)\n", set.Len(), path)
			return nil
		},
	})
	return cmd
}
