// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./coursechat.yaml or ~/.coursechat/config.yaml)
//  3. Default values
//
// None of the retrieval or generation parameters are hard-coded in the core
// packages; everything tunable flows through this struct.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation, checked with errors.Is().
var (
	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the overlap is negative or >= chunk size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidMaxResults indicates the retrieval limit is out of range.
	ErrInvalidMaxResults = errors.New("invalid max results")

	// ErrInvalidMaxHistory indicates the history depth is out of range.
	ErrInvalidMaxHistory = errors.New("invalid max history")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")
)

// Default values for the retrieval pipeline.
const (
	// DefaultChunkSize is the target character budget per content chunk.
	DefaultChunkSize = 800

	// DefaultChunkOverlap is the character overlap between consecutive chunks.
	DefaultChunkOverlap = 100

	// DefaultMaxResults is the default number of chunks returned by a search.
	DefaultMaxResults = 5

	// DefaultMaxHistory is the number of conversation exchanges kept per session.
	DefaultMaxHistory = 2
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`             // "googleai" (default) or "ollama"
	ModelName     string `mapstructure:"model_name" json:"model_name"`         // e.g. "gemini-2.5-flash"
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"` // e.g. "gemini-embedding-001"
	OllamaHost    string `mapstructure:"ollama_host" json:"ollama_host"`       // only used when provider is "ollama"

	// Document processing configuration
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	DocsDir      string `mapstructure:"docs_dir" json:"docs_dir"` // course documents ingested at startup

	// Retrieval configuration
	MaxResults int `mapstructure:"max_results" json:"max_results"`

	// Conversation history configuration
	MaxHistory int `mapstructure:"max_history" json:"max_history"`

	// Vector store persistence (empty = in-memory only)
	IndexPath string `mapstructure:"index_path" json:"index_path"`

	// HTTP server configuration
	Addr string `mapstructure:"addr" json:"addr"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".coursechat")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", "googleai")
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", "gemini-embedding-001")
	viper.SetDefault("ollama_host", "http://localhost:11434")

	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)
	viper.SetDefault("docs_dir", "docs")

	viper.SetDefault("max_results", DefaultMaxResults)
	viper.SetDefault("max_history", DefaultMaxHistory)

	viper.SetDefault("index_path", "")
	viper.SetDefault("addr", "127.0.0.1:8000")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via Viper.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "COURSECHAT_PROVIDER")
	mustBind("model_name", "COURSECHAT_MODEL_NAME")
	mustBind("embedder_model", "COURSECHAT_EMBEDDER_MODEL")
	mustBind("ollama_host", "COURSECHAT_OLLAMA_HOST")
	mustBind("docs_dir", "COURSECHAT_DOCS_DIR")
	mustBind("index_path", "COURSECHAT_INDEX_PATH")
	mustBind("addr", "COURSECHAT_ADDR")
	mustBind("log_level", "COURSECHAT_LOG_LEVEL")
	mustBind("log_json", "COURSECHAT_LOG_JSON")
}

// Validate checks ranges on all tunable values (fail-fast at startup).
func (c *Config) Validate() error {
	if c.ChunkSize < 100 || c.ChunkSize > 100_000 {
		return fmt.Errorf("%w: %d (must be 100-100000)", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: %d (must be 0 <= overlap < chunk_size)", ErrInvalidChunkOverlap, c.ChunkOverlap)
	}
	if c.MaxResults < 1 || c.MaxResults > 100 {
		return fmt.Errorf("%w: %d (must be 1-100)", ErrInvalidMaxResults, c.MaxResults)
	}
	if c.MaxHistory < 1 || c.MaxHistory > 1000 {
		return fmt.Errorf("%w: %d (must be 1-1000)", ErrInvalidMaxHistory, c.MaxHistory)
	}
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	if c.EmbedderModel == "" {
		return ErrInvalidEmbedderModel
	}
	return nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	for _, r := range c.ModelName {
		if r == '/' {
			return c.ModelName
		}
	}
	return c.Provider + "/" + c.ModelName
}
