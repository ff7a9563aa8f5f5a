// Package bootstrap assembles the pipeline and its backing stores from
// configuration. Both the API server and ticketctl start here.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/classifier"
	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/directory"
	"github.com/spec-kit/ticket-copilot/internal/llm"
	"github.com/spec-kit/ticket-copilot/internal/persistence"
	"github.com/spec-kit/ticket-copilot/internal/pipeline"
	"github.com/spec-kit/ticket-copilot/internal/rag"
	"github.com/spec-kit/ticket-copilot/internal/retrieval"
	"github.com/spec-kit/ticket-copilot/internal/rules"
)

// Runtime holds everything built from configuration.
type Runtime struct {
	Config      *config.Config
	Logger      *zap.Logger
	Postgres    *persistence.Postgres
	Redis       *persistence.Redis
	Rules       *rules.RuleSet
	Searcher    retrieval.Searcher
	VectorStore *retrieval.VectorStore
	Pipeline    *pipeline.Pipeline
}

// Option overrides a collaborator Build would otherwise create.
type Option func(*options)

type options struct {
	completer llm.Completer
	embedder  llm.Embedder
}

// WithCompleter uses c instead of the configured LLM provider.
func WithCompleter(c llm.Completer) Option {
	return func(o *options) { o.completer = c }
}

// WithEmbedder uses e instead of the configured embedding provider.
func WithEmbedder(e llm.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// Build validates cfg and wires the pipeline. Configuration problems are
// returned as *domain.ConfigurationError. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (_ *Runtime, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	rt.Rules, err = rules.LoadFile(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("authorization rules loaded", zap.Int("count", rt.Rules.Len()), zap.String("path", cfg.Rules.Path))

	if cfg.Postgres.DSN != "" {
		rt.Postgres, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, rt.Postgres.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				return nil, err
			}
		}
	}
	rt.Redis = persistence.NewRedis(cfg.Redis, logger)

	completer := o.completer
	if completer == nil {
		model, err := llm.NewModel(cfg.LLM, logger)
		if err != nil {
			return nil, err
		}
		completer = model
	}
	completer = llm.NewRateLimited(completer, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)

	dir, err := rt.buildDirectory()
	if err != nil {
		return nil, err
	}

	if err := rt.buildRetrieval(o.embedder); err != nil {
		return nil, err
	}

	engine := rag.NewEngine(rt.Searcher, completer, rag.Options{
		TopK:            cfg.Pipeline.TopK,
		MinRelevance:    cfg.Pipeline.MinRelevance,
		AllowUngrounded: cfg.Pipeline.AllowUngroundedAnswers,
		MaxTokens:       cfg.LLM.MaxAnswerTokens,
	}, logger)

	rt.Pipeline = pipeline.New(pipeline.Dependencies{
		Classifier: classifier.New(completer, logger),
		Identity:   directory.NewResolver(dir, logger),
		Authorizer: rules.NewEngine(rt.Rules, logger),
		Resolver:   engine,
		Logger:     logger,
	}, cfg.Pipeline)
	return rt, nil
}

func (rt *Runtime) buildDirectory() (directory.Directory, error) {
	cfg := rt.Config
	var dir directory.Directory
	switch cfg.Directory.Backend {
	case config.DirectoryPostgres:
		dir = directory.NewPostgresDirectory(rt.Postgres.PoolHandle())
	default:
		static, err := directory.LoadFile(cfg.Directory.FilePath)
		if err != nil {
			return nil, err
		}
		rt.Logger.Info("employee directory loaded", zap.Int("count", static.Len()), zap.String("path", cfg.Directory.FilePath))
		dir = static
	}

	if client := rt.Redis.ClientHandle(); client != nil && cfg.Directory.CacheTTL() > 0 {
		dir = directory.NewCachedDirectory(dir, client, cfg.Directory.CacheTTL(), rt.Logger)
	}
	return dir, nil
}

func (rt *Runtime) buildRetrieval(embedder llm.Embedder) error {
	cfg := rt.Config
	switch cfg.Retrieval.Backend {
	case config.RetrievalPgvector:
		if embedder == nil {
			e, err := llm.NewEmbedder(cfg.LLM)
			if err != nil {
				return err
			}
			embedder = e
		}
		rt.VectorStore = retrieval.NewVectorStore(rt.Postgres.PoolHandle(), embedder, rt.Logger)
		rt.Searcher = rt.VectorStore
	default:
		docs, err := retrieval.LoadKnowledgeBase(cfg.Retrieval.KnowledgeBasePath)
		if err != nil {
			return err
		}
		rt.Logger.Info("knowledge base indexed", zap.Int("documents", len(docs)))
		rt.Searcher = retrieval.NewLexicalIndex(docs)
	}
	return nil
}

// Close releases connections.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.Redis.Close()
	rt.Postgres.Close()
}
