// Package cli provides the ticketctl command-line interface: run tickets
// through the pipeline locally, mint caller tokens, check rule files and
// seed the vector knowledge base.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/observability"
)

// Version is set at build time.
var Version = "dev"

// app carries state shared by subcommands of one invocation.
type app struct {
	verbose bool
	cfg     *config.Config
	logger  *zap.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "ticketctl",
		Short: "Operate the IT support ticket copilot",
		Long: `ticketctl runs support tickets through the guard-railed pipeline
(classify, identify, authorize, resolve) without the HTTP server, and
carries the operator chores around it.

Configuration comes from the same environment variables (and .env file)
as the API server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			if a.verbose {
				logger, err := observability.NewLogger(cfg.Logger)
				if err != nil {
					return err
				}
				a.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "write structured logs to stdout")

	root.AddCommand(newProcessCmd(a))
	root.AddCommand(newTokenCmd(a))
	root.AddCommand(newRulesCmd(a))
	root.AddCommand(newKBCmd(a))
	root.AddCommand(newRunsCmd(a))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
