package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Space     SpaceConfig
	Editor    EditorConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// SpaceConfig holds the note space configuration.
type SpaceConfig struct {
	Dir        string `envconfig:"SPACE_DIR" default:"./space"`
	EmbedDepth int    `envconfig:"EMBED_DEPTH" default:"3"`
}

// EditorConfig holds document editor bridge configuration.
type EditorConfig struct {
	Manifest       string        `envconfig:"EDITORS_MANIFEST" default:"./editors.yaml"`
	SaveTimeout    time.Duration `envconfig:"EDITOR_SAVE_TIMEOUT" default:"2500ms"`
	SavePolicy     string        `envconfig:"EDITOR_SAVE_POLICY" default:"share"`
	Frame          string        `envconfig:"EDITOR_FRAME" default:"socket"`
	SandboxTimeout time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Editor.SavePolicy {
	case "share", "reject":
	default:
		return fmt.Errorf("invalid EDITOR_SAVE_POLICY %q: want share or reject", c.Editor.SavePolicy)
	}
	switch c.Editor.Frame {
	case "socket", "sandbox":
	default:
		return fmt.Errorf("invalid EDITOR_FRAME %q: want socket or sandbox", c.Editor.Frame)
	}
	if c.Editor.SaveTimeout <= 0 {
		return fmt.Errorf("EDITOR_SAVE_TIMEOUT must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Space: SpaceConfig{
			Dir:        "./space",
			EmbedDepth: 3,
		},
		Editor: EditorConfig{
			Manifest:       "./editors.yaml",
			SaveTimeout:    2500 * time.Millisecond,
			SavePolicy:     "share",
			Frame:          "socket",
			SandboxTimeout: 5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
