package service

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/textlens/analyze"
)

// Config holds the full textlens service configuration.
type Config struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`

	// MaxTextLength caps accepted input in runes.
	MaxTextLength int `yaml:"max_text_length"`

	// RequestBudgetMS is the wall-clock budget per analysis request.
	// Stages still running when it expires are abandoned.
	RequestBudgetMS int `yaml:"request_budget_ms"`

	// Workers is the number of batch workers to start. 0 disables
	// background batch processing.
	Workers int `yaml:"workers"`

	// MaxBatchSize caps documents per batch submission.
	MaxBatchSize int `yaml:"max_batch_size"`

	// Pipeline tunables: stage floors, keyword caps, capabilities.
	Pipeline analyze.Config `yaml:"pipeline"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ":8082",
		DBPath:          "textlens.db",
		MaxTextLength:   1_000_000,
		RequestBudgetMS: 10_000,
		Workers:         1,
		MaxBatchSize:    100,
		Pipeline: analyze.Config{
			Capabilities: analyze.FullCapabilities(),
		},
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("max_text_length must be > 0")
	}
	if c.RequestBudgetMS <= 0 {
		return fmt.Errorf("request_budget_ms must be > 0")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be > 0")
	}
	return nil
}

// RequestBudget returns the per-request budget as a duration.
func (c *Config) RequestBudget() time.Duration {
	return time.Duration(c.RequestBudgetMS) * time.Millisecond
}
