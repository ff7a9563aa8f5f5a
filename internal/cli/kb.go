package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/llm"
	"github.com/spec-kit/ticket-copilot/internal/persistence"
	"github.com/spec-kit/ticket-copilot/internal/retrieval"
)

func newKBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the knowledge base",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "index [file]",
		Short: "Embed knowledge-base documents into pgvector",
		Long: `Embed every document of a knowledge-base file (default
KNOWLEDGE_BASE_FILE) with the configured embedding provider and upsert
it into kb_passages. Requires POSTGRES_DSN.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Retrieval.KnowledgeBasePath
			if len(args) == 1 {
				path = args[0]
			}
			return a.runIndex(cmd, path)
		},
	})
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	if a.cfg.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required to index the knowledge base")
	}

	docs, err := retrieval.LoadKnowledgeBase(path)
	if err != nil {
		return err
	}

	pg, err := persistence.NewPostgres(ctx, a.cfg.Postgres, a.logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if a.cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), a.cfg.Postgres.MigrationsDir, a.logger); err != nil {
			return err
		}
	}

	embedder, err := llm.NewEmbedder(a.cfg.LLM)
	if err != nil {
		return err
	}

	n, err := retrieval.NewVectorStore(pg.PoolHandle(), embedder, a.logger).Index(ctx, docs)
	if err != nil {
		return err
	}
	a.logger.Info("knowledge base indexed", zap.Int("documents", n), zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents from %s\n", n, path)
	return nil
}
