// Package config provides application configuration management using koanf
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `koanf:"server"`

	// Document store configuration
	Storage StorageConfig `koanf:"storage"`

	// External services
	Services ServicesConfig `koanf:"services"`

	// ReAct controller settings
	Agent AgentConfig `koanf:"agent"`

	// Document sources processed at initialization
	Sources []SourceConfig `koanf:"sources"`

	// Application settings
	App AppConfig `koanf:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	ReadTimeout  int    `koanf:"read_timeout"`  // seconds
	WriteTimeout int    `koanf:"write_timeout"` // seconds
}

// StorageConfig selects and configures the document store backend
type StorageConfig struct {
	Type string `koanf:"type"` // "memory" or "sqlite"
	Path string `koanf:"path"` // sqlite database file
}

// ServicesConfig holds external service configuration
type ServicesConfig struct {
	Ollama OllamaConfig `koanf:"ollama"`
}

// OllamaConfig holds Ollama service configuration
type OllamaConfig struct {
	BaseURL        string `koanf:"base_url"`
	EmbeddingModel string `koanf:"embedding_model"`
	LLMModel       string `koanf:"llm_model"`
	Timeout        int    `koanf:"timeout"` // seconds, per call
}

// AgentConfig holds the reasoning loop settings
type AgentConfig struct {
	MaxSteps          int     `koanf:"max_steps"`
	ReasoningRetries  int     `koanf:"reasoning_retries"`
	UpstreamRetries   int     `koanf:"upstream_retries"`
	BackoffInitial    int     `koanf:"backoff_initial"` // milliseconds
	BackoffMax        int     `koanf:"backoff_max"`     // milliseconds
	BackoffMultiplier float64 `koanf:"backoff_multiplier"`
	TopK              int     `koanf:"top_k"`
	Strategy          string  `koanf:"strategy"` // "token-overlap" or "embedding"
	Temperature       float64 `koanf:"temperature"`
	MaxTokens         int     `koanf:"max_tokens"`
}

// SourceConfig describes one document source ingested at startup
type SourceConfig struct {
	Type       string   `koanf:"type"` // "file", "folder", "website"
	Path       string   `koanf:"path"`
	Extensions []string `koanf:"extensions"`
}

// AppConfig holds general application settings
type AppConfig struct {
	Environment string `koanf:"environment"` // "development", "staging", "production"
	LogLevel    string `koanf:"log_level"`   // "debug", "info", "warn", "error"
	LogFormat   string `koanf:"log_format"`  // "text" or "json"
}

// Load loads configuration from multiple sources with precedence:
// 1. config.yaml (if exists)
// 2. config.json (if exists)
// 3. Environment variables (highest precedence)
func Load() (*Config, error) {
	k := koanf.New(".")

	// Set defaults
	setDefaults(k)

	// Load from config files (optional)
	loadConfigFiles(k)

	// Load from environment variables (highest precedence)
	if err := k.Load(env.Provider(".", env.Opt{}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Unmarshal into config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		// Server defaults
		"server.host":          "localhost",
		"server.port":          8080,
		"server.read_timeout":  30,
		"server.write_timeout": 30,

		// Storage defaults
		"storage.type": "memory",
		"storage.path": "knowledge_base.db",

		// Services defaults
		"services.ollama.base_url":        "http://localhost:11434",
		"services.ollama.embedding_model": "nomic-embed-text",
		"services.ollama.llm_model":       "llama3",
		"services.ollama.timeout":         60,

		// Agent defaults
		"agent.max_steps":          5,
		"agent.reasoning_retries":  1,
		"agent.upstream_retries":   3,
		"agent.backoff_initial":    500,
		"agent.backoff_max":        10000,
		"agent.backoff_multiplier": 2.0,
		"agent.top_k":              3,
		"agent.strategy":           "token-overlap",
		"agent.temperature":        0.7,
		"agent.max_tokens":         1000,

		// App defaults
		"app.environment": "development",
		"app.log_level":   "info",
		"app.log_format":  "text",
	}

	for key, value := range defaults {
		_ = k.Set(key, value) // Ignore error for setting defaults
	}
}

// loadConfigFiles loads configuration from files
func loadConfigFiles(k *koanf.Koanf) {
	// Try to load YAML config
	if _, err := os.Stat("config.yaml"); err == nil {
		if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
			log.Printf("Warning: failed to load config.yaml: %v", err)
		}
	}

	// Try to load JSON config
	if _, err := os.Stat("config.json"); err == nil {
		if err := k.Load(file.Provider("config.json"), json.Parser()); err != nil {
			log.Printf("Warning: failed to load config.json: %v", err)
		}
	}
}

// validate validates the configuration
func validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case "memory":
	case "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required when storage type is sqlite")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	switch cfg.Agent.Strategy {
	case "token-overlap", "embedding":
	default:
		return fmt.Errorf("unknown retrieval strategy: %s", cfg.Agent.Strategy)
	}

	if cfg.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent max_steps must be at least 1")
	}
	if cfg.Agent.TopK < 1 {
		return fmt.Errorf("agent top_k must be at least 1")
	}
	if cfg.Agent.ReasoningRetries < 0 || cfg.Agent.UpstreamRetries < 0 {
		return fmt.Errorf("retry bounds must not be negative")
	}
	if cfg.Agent.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1")
	}

	for i, src := range cfg.Sources {
		switch src.Type {
		case "file", "folder", "website":
		default:
			return fmt.Errorf("sources[%d]: unknown source type: %s", i, src.Type)
		}
		if src.Path == "" {
			return fmt.Errorf("sources[%d]: path is required", i)
		}
	}

	return nil
}

// OllamaTimeout returns the per-call timeout for Ollama requests.
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Services.Ollama.Timeout) * time.Second
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
