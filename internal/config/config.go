package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/traffic-law-assistant/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Vector store backends
const (
	VectorStoreQdrant   = "qdrant"
	VectorStorePgvector = "pgvector"
	VectorStoreMemory   = "memory"
)

// Language model providers
const (
	LLMProviderMistral = "mistral"
	LLMProviderOllama  = "ollama"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr         string        `env:"SERVER_ADDR" envDefault:":8080"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Corpus and vector index
	CorpusCfg      CorpusConfig      `envPrefix:"CORPUS_"`
	VectorStoreCfg VectorStoreConfig `envPrefix:"VECTOR_STORE_"`
	QdrantCfg      QdrantConfig      `envPrefix:"QDRANT_"`

	// Database configuration (pgvector backend only)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External models
	EmbeddingCfg EmbeddingConfig `envPrefix:"EMBEDDING_"`
	LLMCfg       LLMConfig       `envPrefix:"LLM_"`

	// Pipeline limits
	RAGCfg  RAGConfig  `envPrefix:"RAG_"`
	TestCfg TestConfig `envPrefix:"TEST_"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

type CorpusConfig struct {
	Path      string `env:"PATH" envDefault:"articulos_ley_109.json"`
	AutoIndex bool   `env:"AUTO_INDEX" envDefault:"true"`
}

type VectorStoreConfig struct {
	Backend        string `env:"BACKEND" envDefault:"qdrant"`
	CollectionName string `env:"COLLECTION_NAME" envDefault:"articulos_ley_109"`
}

type QdrantConfig struct {
	Host   string               `env:"HOST" envDefault:"localhost"`
	Port   int                  `env:"PORT" envDefault:"6334"`
	APIKey string               `env:"API_KEY"`
	UseTLS bool                 `env:"USE_TLS" envDefault:"false"`
	Retry  pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type EmbeddingConfig struct {
	URL          string               `env:"URL" envDefault:"http://localhost:11434"`
	Model        string               `env:"MODEL" envDefault:"paraphrase-multilingual"`
	Dimension    int                  `env:"DIMENSION" envDefault:"768"`
	BatchSize    int                  `env:"BATCH_SIZE" envDefault:"32"`
	Timeout      time.Duration        `env:"TIMEOUT" envDefault:"30s"`
	CacheTTL     time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	CacheCleanup time.Duration        `env:"CACHE_CLEANUP" envDefault:"20m"`
	Retry        pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type LLMConfig struct {
	HTTPClientConfig
	Provider            string               `env:"PROVIDER" envDefault:"mistral"`
	Model               string               `env:"MODEL" envDefault:"mistral-small-latest"`
	CompletionsEndpoint string               `env:"COMPLETIONS_ENDPOINT" envDefault:"/v1/chat/completions"`
	CallTimeout         time.Duration        `env:"CALL_TIMEOUT" envDefault:"60s"`
	Retry               pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"90s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"https://api.mistral.ai"`
}

type RAGConfig struct {
	DefaultArticles int `env:"DEFAULT_ARTICLES" envDefault:"5"`
	MaxArticles     int `env:"MAX_ARTICLES" envDefault:"20"`
}

type TestConfig struct {
	DefaultQuestions int    `env:"DEFAULT_QUESTIONS" envDefault:"20"`
	MaxQuestions     int    `env:"MAX_QUESTIONS" envDefault:"50"`
	Concurrency      int    `env:"CONCURRENCY" envDefault:"1"`
	ExamplePath      string `env:"EXAMPLE_PATH" envDefault:"example.txt"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string        `env:"BOT_TOKEN"`
	UpdateTimeout      int           `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int           `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
	ExportTTL          time.Duration `env:"EXPORT_TTL" envDefault:"1h"`
}

// LoadConfig reads the -env flag and loads the matching configuration.
func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return Load(*envFlag)
}

// Load loads .env.<environment> if present and parses the process environment.
func Load(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := parse(env.Options{})
	if err != nil {
		return nil, err
	}

	cfg.Environment = environment
	return cfg, nil
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	cfg.VectorStoreCfg.Backend = strings.ToLower(strings.TrimSpace(cfg.VectorStoreCfg.Backend))
	cfg.LLMCfg.Provider = strings.ToLower(strings.TrimSpace(cfg.LLMCfg.Provider))

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	switch cfg.VectorStoreCfg.Backend {
	case VectorStoreQdrant, VectorStoreMemory:
	case VectorStorePgvector:
		if cfg.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when VECTOR_STORE_BACKEND=pgvector")
		}
	default:
		errors = append(errors, fmt.Sprintf("VECTOR_STORE_BACKEND must be one of qdrant, pgvector, memory, got %q", cfg.VectorStoreCfg.Backend))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}

	if cfg.VectorStoreCfg.CollectionName == "" {
		errors = append(errors, "VECTOR_STORE_COLLECTION_NAME must not be empty")
	}

	switch cfg.LLMCfg.Provider {
	case LLMProviderMistral:
		if cfg.LLMCfg.Token == "" && !cfg.EnableMocks {
			errors = append(errors, "LLM_TOKEN is required when LLM_PROVIDER=mistral")
		}
	case LLMProviderOllama:
	default:
		errors = append(errors, fmt.Sprintf("LLM_PROVIDER must be one of mistral, ollama, got %q", cfg.LLMCfg.Provider))
	}

	if cfg.LLMCfg.CallTimeout <= 0 {
		errors = append(errors, "LLM_CALL_TIMEOUT must be positive")
	}

	if cfg.EmbeddingCfg.Dimension < 1 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingCfg.Dimension))
	}

	if cfg.EmbeddingCfg.Retry.Attempts < 1 {
		errors = append(errors, "EMBEDDING_RETRY_ATTEMPTS must be at least 1")
	}

	if cfg.LLMCfg.Retry.Attempts < 1 {
		errors = append(errors, "LLM_RETRY_ATTEMPTS must be at least 1")
	}

	if cfg.QdrantCfg.Retry.Attempts < 1 {
		errors = append(errors, "QDRANT_RETRY_ATTEMPTS must be at least 1")
	}

	if cfg.EmbeddingCfg.BatchSize < 1 || cfg.EmbeddingCfg.BatchSize > 512 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_BATCH_SIZE must be between 1 and 512, got %d", cfg.EmbeddingCfg.BatchSize))
	}

	// Validate pipeline limits
	if cfg.RAGCfg.MaxArticles < 1 {
		errors = append(errors, fmt.Sprintf("RAG_MAX_ARTICLES must be positive, got %d", cfg.RAGCfg.MaxArticles))
	}

	if cfg.RAGCfg.DefaultArticles < 1 || cfg.RAGCfg.DefaultArticles > cfg.RAGCfg.MaxArticles {
		errors = append(errors, fmt.Sprintf("RAG_DEFAULT_ARTICLES must be between 1 and RAG_MAX_ARTICLES(%d), got %d", cfg.RAGCfg.MaxArticles, cfg.RAGCfg.DefaultArticles))
	}

	if cfg.TestCfg.MaxQuestions < 1 {
		errors = append(errors, fmt.Sprintf("TEST_MAX_QUESTIONS must be positive, got %d", cfg.TestCfg.MaxQuestions))
	}

	if cfg.TestCfg.DefaultQuestions < 1 || cfg.TestCfg.DefaultQuestions > cfg.TestCfg.MaxQuestions {
		errors = append(errors, fmt.Sprintf("TEST_DEFAULT_QUESTIONS must be between 1 and TEST_MAX_QUESTIONS(%d), got %d", cfg.TestCfg.MaxQuestions, cfg.TestCfg.DefaultQuestions))
	}

	if cfg.TestCfg.Concurrency < 1 || cfg.TestCfg.Concurrency > 16 {
		errors = append(errors, fmt.Sprintf("TEST_CONCURRENCY must be between 1 and 16, got %d", cfg.TestCfg.Concurrency))
	}

	// Validate Telegram configuration
	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	if cfg.TelegramCfg.ExportTTL <= 0 {
		errors = append(errors, "TELEGRAM_EXPORT_TTL must be positive")
	}

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
