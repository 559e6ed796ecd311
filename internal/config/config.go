package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"LOCALWIRE_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"LOCALWIRE_DB_MAX_CONNS" default:"4"`

	OracleProvider       string        `envconfig:"ORACLE_PROVIDER" default:"openai"`
	OpenAIAPIKey         string        `envconfig:"OPENAI_API_KEY" default:""`
	ChatEndpoint         string        `envconfig:"ORACLE_CHAT_ENDPOINT" default:"https://api.openai.com/v1"`
	ChatModel            string        `envconfig:"ORACLE_CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingEndpoint    string        `envconfig:"ORACLE_EMBEDDING_ENDPOINT" default:"https://api.openai.com/v1/embeddings"`
	EmbeddingModel       string        `envconfig:"ORACLE_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	OracleRequestTimeout time.Duration `envconfig:"ORACLE_REQUEST_TIMEOUT" default:"45s"`
	AnthropicAPIKey      string        `envconfig:"ANTHROPIC_API_KEY" default:""`
	AnthropicModel       string        `envconfig:"ANTHROPIC_MODEL" default:"claude-3-5-haiku-latest"`

	SeenMaxSize       int           `envconfig:"SEEN_MAX_SIZE" default:"10000"`
	FeedTimeout       time.Duration `envconfig:"FEED_TIMEOUT" default:"15s"`
	FeedDelay         time.Duration `envconfig:"FEED_DELAY" default:"1s"`
	NotifyTimeout     time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
	NotifyMaxAttempts int           `envconfig:"NOTIFY_MAX_ATTEMPTS" default:"3"`
	NotifyBackoffBase time.Duration `envconfig:"NOTIFY_BACKOFF_BASE" default:"2s"`
	DisplayTimezone   string        `envconfig:"DISPLAY_TIMEZONE" default:"America/Los_Angeles"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBMinConns < 0 {
		return fmt.Errorf("LOCALWIRE_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("LOCALWIRE_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("LOCALWIRE_DB_MIN_CONNS (%d) cannot exceed LOCALWIRE_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	switch strings.ToLower(strings.TrimSpace(c.OracleProvider)) {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("ORACLE_PROVIDER must be openai or anthropic, got %q", c.OracleProvider)
	}
	if c.SeenMaxSize < 1 {
		return fmt.Errorf("SEEN_MAX_SIZE must be >= 1")
	}
	if c.FeedTimeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be > 0")
	}
	if c.FeedDelay < 0 {
		return fmt.Errorf("FEED_DELAY must be >= 0")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be > 0")
	}
	if c.NotifyMaxAttempts < 1 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be >= 1")
	}
	if c.NotifyBackoffBase < time.Second {
		return fmt.Errorf("NOTIFY_BACKOFF_BASE must be >= 1s, got %s", c.NotifyBackoffBase)
	}
	if _, err := time.LoadLocation(strings.TrimSpace(c.DisplayTimezone)); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	return nil
}

// HasDatabase reports whether the Postgres dedup backend is configured.
func (c *Config) HasDatabase() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}

// Location returns the display timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.DisplayTimezone))
	if err != nil {
		return time.UTC
	}
	return loc
}
