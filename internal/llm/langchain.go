package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/config"
)

// Model wraps a langchaingo model as a Completer.
type Model struct {
	llm       llms.Model
	modelName string
	logger    *zap.Logger
}

// NewModel creates a completion model based on configuration.
func NewModel(cfg config.LLMConfig, logger *zap.Logger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.ProviderAzure:
		model, err = openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithAPIVersion(cfg.APIVersion),
			openai.WithModel(cfg.Model),
		)
	case config.ProviderAnthropic:
		model, err = anthropic.New(anthropic.WithToken(cfg.APIKey), anthropic.WithModel(cfg.Model))
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Provider, err)
	}

	return &Model{llm: model, modelName: cfg.Model, logger: logger}, nil
}

// Complete sends a system + human message pair and returns the first choice.
func (m *Model) Complete(ctx context.Context, prompt string, params Params) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if params.System != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, params.System))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	opts := []llms.CallOption{llms.WithTemperature(params.Temperature)}
	if params.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(params.MaxTokens))
	}

	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	duration := time.Since(start)
	if err != nil {
		m.logger.Warn("completion failed",
			zap.String("model", m.modelName),
			zap.Duration("duration", duration),
			zap.Error(err))
		return "", wrapProviderError("complete", err)
	}
	if len(resp.Choices) == 0 {
		return "", wrapProviderError("complete", fmt.Errorf("no response choices"))
	}

	m.logger.Debug("completion done", zap.String("model", m.modelName), zap.Duration("duration", duration))
	return resp.Choices[0].Content, nil
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.modelName
}

// TextEmbedder wraps langchaingo embeddings with dimension validation.
type TextEmbedder struct {
	model     embeddings.Embedder
	dimension int
	modelName string
}

// NewEmbedder creates an embedder based on configuration.
func NewEmbedder(cfg config.LLMConfig) (*TextEmbedder, error) {
	var (
		client embeddings.EmbedderClient
		err    error
	)
	switch cfg.EmbedProvider {
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.EmbedModel)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		client, err = ollama.New(opts...)
	case config.ProviderOpenAI:
		client, err = openai.New(openai.WithToken(cfg.APIKey), openai.WithEmbeddingModel(cfg.EmbedModel))
	case config.ProviderAzure:
		client, err = openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithAPIVersion(cfg.APIVersion),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedding client: %w", cfg.EmbedProvider, err)
	}

	model, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &TextEmbedder{model: model, dimension: cfg.EmbedDimension, modelName: cfg.EmbedModel}, nil
}

// Embed generates an embedding vector for text.
func (e *TextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.model.EmbedQuery(ctx, text)
	if err != nil {
		return nil, wrapProviderError("embed", err)
	}
	if e.dimension > 0 && len(vector) != e.dimension {
		return nil, wrapProviderError("embed", fmt.Errorf("dimension mismatch: got %d, want %d", len(vector), e.dimension))
	}
	return vector, nil
}
