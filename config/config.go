package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/bizmatch/ai"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// EmbeddingConfig configures the embedding model service and batching.
type EmbeddingConfig struct {
	Host      string `toml:"host"`
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	MaxTokens int    `toml:"max_tokens"`
	BatchSize int    `toml:"batch_size"`
	// Workers is the number of batches embedded concurrently. Zero picks
	// a default from the CPU count.
	Workers    int `toml:"workers"`
	MaxRetries int `toml:"max_retries"`
	// Timeout bounds one encode call, as a Go duration string. Empty means
	// no limit.
	Timeout string `toml:"timeout"`
	// RequestsPerSecond throttles calls to the model service. Zero
	// disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CorpusConfig locates the company source and the snapshot database.
type CorpusConfig struct {
	Source string `toml:"source"`
	DB     string `toml:"db"`
	// TriggerPhrases replaces the default non-functional phrase list when set.
	TriggerPhrases []string `toml:"trigger_phrases"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	TopN             int     `toml:"top_n"`
	ExcludeThreshold float64 `toml:"exclude_threshold"`
	// MinScore drops matched sentences scoring below it before averaging.
	// Unset keeps every sentence.
	MinScore *float64 `toml:"min_score"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// Watch rebuilds the corpus whenever the source file changes.
	Watch bool `toml:"watch"`
}

// Config is the complete bizmatch configuration.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	Corpus    CorpusConfig    `toml:"corpus"`
	Search    SearchConfig    `toml:"search"`
	Server    ServerConfig    `toml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Embedding: EmbeddingConfig{
			Host:       aiDefaults.EmbeddingHost,
			Model:      aiDefaults.EmbeddingModel,
			APIKey:     aiDefaults.APIKey,
			MaxTokens:  aiDefaults.MaxTokens,
			BatchSize:  64,
			MaxRetries: 3,
			Timeout:    "10m",
		},
		Corpus: CorpusConfig{
			DB: "bizmatch.db",
		},
		Search: SearchConfig{
			TopN:             5,
			ExcludeThreshold: 0.6,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the TOML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Embedding.Host, "BIZMATCH_EMBEDDING_HOST")
	setFromEnv(&c.Embedding.Model, "BIZMATCH_EMBEDDING_MODEL")
	if !setFromEnv(&c.Embedding.APIKey, "BIZMATCH_API_KEY") {
		setFromEnv(&c.Embedding.APIKey, "OPENAI_API_KEY")
	}
	setFromEnv(&c.Corpus.Source, "BIZMATCH_SOURCE")
	setFromEnv(&c.Corpus.DB, "BIZMATCH_DB")
}

func setFromEnv(dst *string, key string) bool {
	if v := os.Getenv(key); v != "" {
		*dst = v
		return true
	}
	return false
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, err := c.Embedding.TimeoutDuration(); err != nil {
		return fmt.Errorf("%w: embedding.timeout: %v", ErrInvalidConfig, err)
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{c.Embedding.Host != "", "embedding.host is required"},
		{c.Embedding.Model != "", "embedding.model is required"},
		{c.Embedding.MaxTokens > 0, "embedding.max_tokens must be greater than 0"},
		{c.Embedding.BatchSize > 0, "embedding.batch_size must be greater than 0"},
		{c.Embedding.Workers >= 0, "embedding.workers cannot be negative"},
		{c.Embedding.MaxRetries >= 0, "embedding.max_retries cannot be negative"},
		{c.Embedding.RequestsPerSecond >= 0, "embedding.requests_per_second cannot be negative"},
		{c.Corpus.DB != "", "corpus.db is required"},
		{c.Search.TopN > 0, "search.top_n must be greater than 0"},
		{c.Search.ExcludeThreshold >= -1 && c.Search.ExcludeThreshold <= 1, "search.exclude_threshold must be within [-1, 1]"},
		{c.Search.MinScore == nil || (*c.Search.MinScore >= -1 && *c.Search.MinScore <= 1), "search.min_score must be within [-1, 1]"},
		{c.Server.Addr != "", "server.addr is required"},
		{!c.Server.Watch || c.Corpus.Source != "", "server.watch requires corpus.source"},
	}
	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, check.msg)
		}
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty yields zero.
func (e EmbeddingConfig) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", e.Timeout)
	}
	return d, nil
}

// AI returns the model service settings as an ai.Config.
func (c *Config) AI() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithMaxTokens(c.Embedding.MaxTokens),
	)
}
