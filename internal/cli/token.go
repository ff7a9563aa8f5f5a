package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-copilot/internal/auth"
	"github.com/spec-kit/ticket-copilot/internal/directory"
)

func newTokenCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "token <employee-id>",
		Short: "Mint a bearer token for an employee",
		Long: `Mint a bearer token whose subject is the given employee id, signed
with AUTH_JWT_SECRET. Use it as "Authorization: Bearer <token>" against
POST /v1/tickets/process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := directory.NormalizeID(args[0])
			if id == "" {
				return fmt.Errorf("employee id must not be empty")
			}
			tokens := auth.NewTokenManager(a.cfg.Auth.JWTSecret, a.cfg.Auth.AccessTokenTTLMinutes)
			token, expiresAt, err := tokens.GenerateToken(id, name)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name carried in the token")
	return cmd
}
