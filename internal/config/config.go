// Package config holds all tankforge configuration, loaded from
// .tankforge/config.yaml with environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all tankforge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM        LLMConfig        `yaml:"llm"`
	Arena      ArenaConfig      `yaml:"arena"`
	Generation GenerationConfig `yaml:"generation"`
	Store      StoreConfig      `yaml:"store"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LLMConfig configures the inference backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// ArenaConfig configures the battle arena.
type ArenaConfig struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	MaxTicks int     `yaml:"max_ticks"`
}

// GenerationConfig configures the strategy-to-script orchestration.
type GenerationConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

// StoreConfig configures behavior persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Name:    "tankforge",
		Version: "0.1.0",
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "60s",
		},
		Arena: ArenaConfig{
			Width:    800,
			Height:   600,
			MaxTicks: 60 * 120, // two minutes of battle
		},
		Generation: GenerationConfig{
			MaxRetries: 3,
		},
		Store: StoreConfig{
			DatabasePath: filepath.Join(".tankforge", "behaviors.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the workspace, merging file values over the
// defaults. A missing config file is not an error.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspace, ".tankforge", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides pulls secrets from the environment so API keys never
// need to live in the config file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("TANKFORGE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("TANKFORGE_MODEL"); model != "" {
		c.LLM.Model = model
	}
}

// Save writes the configuration back to the workspace.
func (c *Config) Save(workspace string) error {
	dir := filepath.Join(workspace, ".tankforge")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}
