// Package config loads sopkb configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM or embedding backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Store backends.
const (
	BackendCSV       = "csv"
	BackendSurrealDB = "surrealdb"
)

// Config holds all configuration values.
type Config struct {
	// Store
	StoreBackend string `yaml:"store_backend"`
	StorePath    string `yaml:"store_path"`

	// SurrealDB connection (store_backend: surrealdb)
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Generation
	LLMProvider Provider `yaml:"llm_provider"`
	LLMModel    string   `yaml:"llm_model"`

	// Embeddings
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Provider endpoints and credentials
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"-"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	AnthropicAPIKey string `yaml:"-"`
	AWSRegion       string `yaml:"aws_region"`

	// Extraction
	WindowChars  int           `yaml:"window_chars"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	CallTimeout  time.Duration `yaml:"call_timeout"`

	// Embedding indexer
	EmbedMaxChars int `yaml:"embed_max_chars"`

	// Retrieval
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxResults          int     `yaml:"max_results"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Defaults for the tunable pipeline constants.
const (
	DefaultWindowChars         = 12000
	DefaultRetryBackoff        = 2 * time.Second
	DefaultCallTimeout         = 120 * time.Second
	DefaultEmbedMaxChars       = 2000
	DefaultSimilarityThreshold = 0.30
	DefaultMaxResults          = 5
	DefaultEmbedDimension      = 384
)

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		StoreBackend: getEnv("SOPKB_STORE_BACKEND", BackendCSV),
		StorePath:    getEnv("SOPKB_STORE_PATH", "sop_records.csv"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "sopkb"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "records"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider: Provider(getEnv("SOPKB_LLM_PROVIDER", string(ProviderOllama))),
		LLMModel:    getEnv("SOPKB_LLM_MODEL", "llama3.1"),

		EmbedProvider:  Provider(getEnv("SOPKB_EMBED_PROVIDER", string(ProviderOllama))),
		EmbedModel:     getEnv("SOPKB_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("SOPKB_EMBED_DIMENSION", DefaultEmbedDimension),

		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		WindowChars:  getEnvInt("SOPKB_WINDOW_CHARS", DefaultWindowChars),
		RetryBackoff: getEnvDuration("SOPKB_RETRY_BACKOFF", DefaultRetryBackoff),
		CallTimeout:  getEnvDuration("SOPKB_CALL_TIMEOUT", DefaultCallTimeout),

		EmbedMaxChars: getEnvInt("SOPKB_EMBED_MAX_CHARS", DefaultEmbedMaxChars),

		SimilarityThreshold: getEnvFloat("SOPKB_SIMILARITY_THRESHOLD", DefaultSimilarityThreshold),
		MaxResults:          getEnvInt("SOPKB_MAX_RESULTS", DefaultMaxResults),

		LogFile:  getEnv("SOPKB_LOG_FILE", "/tmp/sopkb.log"),
		LogLevel: ParseLogLevel(getEnv("SOPKB_LOG_LEVEL", "INFO")),
	}
}

// LoadFile overlays the YAML file at path onto base. Fields absent from the
// file keep their value from base. Secrets are never read from the file.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config file %s: %w", path, err)
	}

	// log_level is a name, not a slog.Level.
	var extra struct {
		LogLevel string `yaml:"log_level"`
	}
	if err := yaml.Unmarshal(data, &extra); err == nil && extra.LogLevel != "" {
		cfg.LogLevel = ParseLogLevel(extra.LogLevel)
	}

	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendCSV, BackendSurrealDB:
	default:
		return fmt.Errorf("unknown store backend: %q", c.StoreBackend)
	}
	if c.WindowChars <= 0 {
		return fmt.Errorf("window_chars must be positive, got %d", c.WindowChars)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("embed_dimension must be positive, got %d", c.EmbedDimension)
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be within [-1, 1], got %g", c.SimilarityThreshold)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.MaxResults)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return d
}

// ParseLogLevel maps a level name to slog.Level, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
