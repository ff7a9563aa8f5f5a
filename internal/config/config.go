package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	LLM          LLMConfig
	Pipeline     PipelineConfig
	Directory    DirectoryConfig
	Retrieval    RetrievalConfig
	Rules        RulesConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	RequestsPerSecond     float64
	Burst                 int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines caller authentication parameters. When Required is
// set, the requester identity is taken from the bearer token subject.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	Required              bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// LLM providers understood by the llm package.
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// LLMConfig selects the completion and embedding backends.
type LLMConfig struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	APIVersion        string
	EmbedProvider     string
	EmbedModel        string
	EmbedDimension    int
	RequestsPerSecond float64
	Burst             int
	MaxAnswerTokens   int
}

// StageTimeouts bounds each pipeline stage call.
type StageTimeouts struct {
	Classify  time.Duration
	Lookup    time.Duration
	Authorize time.Duration
	Resolve   time.Duration
}

// PipelineConfig is the static pipeline configuration loaded once at start.
type PipelineConfig struct {
	ClassifierThreshold    float64
	TopK                   int
	AllowUngroundedAnswers bool
	MinRelevance           float64
	StageTimeouts          StageTimeouts
}

// Directory backends.
const (
	DirectoryPostgres = "postgres"
	DirectoryFile     = "file"
)

// DirectoryConfig selects where employee records come from.
type DirectoryConfig struct {
	Backend         string
	FilePath        string
	CacheTTLSeconds int
}

// Retrieval backends.
const (
	RetrievalPgvector = "pgvector"
	RetrievalLexical  = "lexical"
)

// RetrievalConfig selects the knowledge-base search backend.
type RetrievalConfig struct {
	Backend           string
	KnowledgeBasePath string
}

// RulesConfig points at the authorization rule file.
type RulesConfig struct {
	Path string
}

// Load reads configuration from environment variables, applying defaults where possible.
// Malformed pipeline values are reported as a *domain.ConfigurationError.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}

	redisDB := p.int("REDIS_DB", 0)
	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-copilot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
			RequestsPerSecond:     p.float("HTTP_REQUESTS_PER_SECOND", 0),
			Burst:                 p.int("HTTP_BURST", 20),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			Required:              getEnvAsBool("AUTH_REQUIRED", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		LLM: LLMConfig{
			Provider:          strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
			Model:             getEnv("LLM_MODEL", "llama3.1"),
			APIKey:            os.Getenv("LLM_API_KEY"),
			BaseURL:           getEnv("LLM_BASE_URL", ""),
			APIVersion:        getEnv("LLM_API_VERSION", "2025-01-01-preview"),
			EmbedProvider:     strings.ToLower(getEnv("EMBED_PROVIDER", ProviderOllama)),
			EmbedModel:        getEnv("EMBED_MODEL", "nomic-embed-text"),
			EmbedDimension:    p.int("EMBED_DIMENSION", 768),
			RequestsPerSecond: p.float("LLM_REQUESTS_PER_SECOND", 0),
			Burst:             p.int("LLM_BURST", 1),
			MaxAnswerTokens:   p.int("LLM_MAX_ANSWER_TOKENS", 400),
		},
		Pipeline: PipelineConfig{
			ClassifierThreshold:    p.float("CLASSIFIER_THRESHOLD", 0.5),
			TopK:                   p.int("RAG_TOP_K", 4),
			AllowUngroundedAnswers: p.bool("RAG_ALLOW_UNGROUNDED", false),
			MinRelevance:           p.float("RAG_MIN_RELEVANCE", 0),
			StageTimeouts: StageTimeouts{
				Classify:  p.millis("STAGE_TIMEOUT_CLASSIFY_MS", 15000),
				Lookup:    p.millis("STAGE_TIMEOUT_LOOKUP_MS", 3000),
				Authorize: p.millis("STAGE_TIMEOUT_AUTHORIZE_MS", 500),
				Resolve:   p.millis("STAGE_TIMEOUT_RESOLVE_MS", 30000),
			},
		},
		Directory: DirectoryConfig{
			Backend:         strings.ToLower(getEnv("DIRECTORY_BACKEND", DirectoryFile)),
			FilePath:        getEnv("DIRECTORY_FILE", "config/employees.yaml"),
			CacheTTLSeconds: getEnvAsInt("DIRECTORY_CACHE_TTL_SECONDS", 300),
		},
		Retrieval: RetrievalConfig{
			Backend:           strings.ToLower(getEnv("RETRIEVAL_BACKEND", RetrievalLexical)),
			KnowledgeBasePath: getEnv("KNOWLEDGE_BASE_FILE", "config/knowledge_base.yaml"),
		},
		Rules: RulesConfig{
			Path: getEnv("RULES_FILE", "config/auth_rules.yaml"),
		},
	}

	if len(p.problems) > 0 {
		return nil, domain.NewConfigurationError(p.problems...)
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Every violation is collected into
// a single *domain.ConfigurationError.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	pc := c.Pipeline
	if pc.ClassifierThreshold < 0 || pc.ClassifierThreshold > 1 {
		add("CLASSIFIER_THRESHOLD must be within [0,1], got %v", pc.ClassifierThreshold)
	}
	if pc.TopK <= 0 {
		add("RAG_TOP_K must be positive, got %d", pc.TopK)
	}
	if pc.MinRelevance < 0 {
		add("RAG_MIN_RELEVANCE must not be negative, got %v", pc.MinRelevance)
	}
	for name, d := range map[string]time.Duration{
		"classify":  pc.StageTimeouts.Classify,
		"lookup":    pc.StageTimeouts.Lookup,
		"authorize": pc.StageTimeouts.Authorize,
		"resolve":   pc.StageTimeouts.Resolve,
	} {
		if d <= 0 {
			add("stage timeout %q must be positive", name)
		}
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAzure, ProviderAnthropic:
		if c.LLM.APIKey == "" {
			add("LLM_API_KEY required for provider %q", c.LLM.Provider)
		}
	case ProviderOllama:
	default:
		add("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Provider == ProviderAzure && c.LLM.BaseURL == "" {
		add("LLM_BASE_URL required for provider %q", ProviderAzure)
	}

	switch c.Directory.Backend {
	case DirectoryPostgres:
		if c.Postgres.DSN == "" {
			add("POSTGRES_DSN required for directory backend %q", DirectoryPostgres)
		}
	case DirectoryFile:
		if c.Directory.FilePath == "" {
			add("DIRECTORY_FILE required for directory backend %q", DirectoryFile)
		}
	default:
		add("unknown DIRECTORY_BACKEND %q", c.Directory.Backend)
	}

	switch c.Retrieval.Backend {
	case RetrievalPgvector:
		if c.Postgres.DSN == "" {
			add("POSTGRES_DSN required for retrieval backend %q", RetrievalPgvector)
		}
		switch c.LLM.EmbedProvider {
		case ProviderOpenAI, ProviderAzure, ProviderOllama:
		default:
			add("EMBED_PROVIDER %q cannot produce embeddings", c.LLM.EmbedProvider)
		}
		if c.LLM.EmbedDimension <= 0 {
			add("EMBED_DIMENSION must be positive, got %d", c.LLM.EmbedDimension)
		}
	case RetrievalLexical:
		if c.Retrieval.KnowledgeBasePath == "" {
			add("KNOWLEDGE_BASE_FILE required for retrieval backend %q", RetrievalLexical)
		}
	default:
		add("unknown RETRIEVAL_BACKEND %q", c.Retrieval.Backend)
	}

	if c.Rules.Path == "" {
		add("RULES_FILE is required")
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		add("AUTH_JWT_SECRET required when AUTH_REQUIRED is set")
	}

	if len(problems) > 0 {
		return domain.NewConfigurationError(problems...)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the directory cache TTL, zero when caching is disabled.
func (d DirectoryConfig) CacheTTL() time.Duration {
	if d.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(d.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// parser reads values that must not silently fall back when malformed.
type parser struct {
	problems []string
}

func (p *parser) int(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("invalid %s: %v", key, err))
		return fallback
	}
	return parsed
}

func (p *parser) float(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("invalid %s: %v", key, err))
		return fallback
	}
	return parsed
}

func (p *parser) bool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("invalid %s: %v", key, err))
		return fallback
	}
	return parsed
}

func (p *parser) millis(key string, fallback int) time.Duration {
	return time.Duration(p.int(key, fallback)) * time.Millisecond
}
