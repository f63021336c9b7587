package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for datapilot-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Generated-code executor configuration
	Executor ExecutorConfig `yaml:"executor"`

	// History retention configuration
	Retention RetentionConfig `yaml:"retention"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"datapilot"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"datapilot_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// LLMConfig holds model provider configuration.
type LLMConfig struct {
	// Provider selects the client backend: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`

	// BaseURL overrides the provider endpoint, e.g. for a local gateway.
	BaseURL string `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`

	// Model pins a specific model. When empty the engine queries the
	// provider's model listing and selects one by priority.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:""`

	// APIKey is the provider credential. Secret - env only.
	APIKey string `yaml:"-" env:"LLM_API_KEY"`

	// RequestTimeout bounds a single generation call.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"LLM_REQUEST_TIMEOUT" env-default:"60s"`
}

// ExecutorConfig holds settings for running generated analysis code.
type ExecutorConfig struct {
	// PythonBin is the interpreter used to run generated scripts.
	PythonBin string `yaml:"python_bin" env:"EXECUTOR_PYTHON_BIN" env-default:"python3"`

	// WorkDir is the base directory for per-request workspaces.
	// Empty means the OS temp directory.
	WorkDir string `yaml:"work_dir" env:"EXECUTOR_WORK_DIR" env-default:""`

	// Timeout bounds a single script execution.
	Timeout time.Duration `yaml:"timeout" env:"EXECUTOR_TIMEOUT" env-default:"30s"`
}

// RetentionConfig holds history cleanup settings.
type RetentionConfig struct {
	// StaleAfterDays is the default cutoff for dataset history cleanup.
	StaleAfterDays int `yaml:"stale_after_days" env:"RETENTION_STALE_AFTER_DAYS" env-default:"30"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Executor.Timeout <= 0 {
		return fmt.Errorf("executor timeout must be positive")
	}
	if c.LLM.RequestTimeout <= 0 {
		return fmt.Errorf("llm request timeout must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
