/*
PURPOSE:
  Defines the configuration structure and loading logic for OCR Runner.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of API key, endpoint, model, concurrency and paths.
  - Concurrency bound must be >= 1.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support Environment variable overrides (OCR_RUNNER_...).
  - Credentials usually come from the environment, never from flags.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/recognition
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default files fall back to defaults silently.
  - Validate() returns the first invalid field.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (e.g., 120s request timeout).

USAGE:
  cfg, err := config.Load("ocr_runner.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct, DefaultConfig() and
    internal/assets/ocr_runner.yaml.

RELATED FILES:
  - internal/cli/run.go
  - internal/assets/ocr_runner.yaml

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Dispatch strategies.
const (
	StrategyPool    = "pool"
	StrategyChunked = "chunked"
)

// Config represents the full configuration for OCR Runner.
type Config struct {
	ImageDir   string `yaml:"image_dir"`
	OutputFile string `yaml:"output_file"`

	// Recognition capability. APIKey is normally taken from the environment.
	Engine         string        `yaml:"engine"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Concurrency is the maximum number of images in flight.
	Concurrency int    `yaml:"concurrency"`
	Strategy    string `yaml:"strategy"`

	// Optimize enables decode/resize/re-encode before transfer.
	Optimize     bool `yaml:"optimize"`
	MaxDimension int  `yaml:"max_dimension"`
	JPEGQuality  int  `yaml:"jpeg_quality"`

	// Tesseract language hints, only used by the tesseract engine.
	Languages []string `yaml:"languages"`

	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb"`

	// Optional sidecar outputs.
	MetricsFile string `yaml:"metrics_file"`
	JSONLFile   string `yaml:"jsonl_file"`
	CSVFile     string `yaml:"csv_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ImageDir:       "images",
		OutputFile:     "results.txt",
		Engine:         "openai",
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-2024-08-06",
		RequestTimeout: 120 * time.Second,
		Concurrency:    3,
		Strategy:       StrategyPool,
		Optimize:       false,
		MaxDimension:   800,
		JPEGQuality:    85,
		Languages:      []string{"chi_sim", "eng"},
		LogFile:        "processing.log",
		LogLevel:       "info",
		LogMaxSizeMB:   10,
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
// Environment overrides are applied last in every case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		defaults := []string{"ocr_runner.yaml", "ocr-runner.yaml", "runner.yaml"}
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
		}
		if path == "" {
			cfg.ApplyEnv()
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from OCR_RUNNER_* variables. OPENAI_API_KEY is
// accepted as a fallback for the key.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OCR_RUNNER_API_KEY"); v != "" {
		c.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.APIKey == "" {
		c.APIKey = v
	}
	if v := os.Getenv("OCR_RUNNER_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("OCR_RUNNER_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("OCR_RUNNER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

// Validate checks the fields a run depends on.
func (c *Config) Validate() error {
	if c.ImageDir == "" {
		return fmt.Errorf("image_dir must not be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output_file must not be empty")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	switch c.Strategy {
	case StrategyPool, StrategyChunked:
	default:
		return fmt.Errorf("unknown strategy %q (want %s or %s)", c.Strategy, StrategyPool, StrategyChunked)
	}
	if c.Engine == "" {
		return fmt.Errorf("engine must not be empty")
	}
	if c.Optimize {
		if c.MaxDimension < 1 {
			return fmt.Errorf("max_dimension must be >= 1, got %d", c.MaxDimension)
		}
		if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
			return fmt.Errorf("jpeg_quality must be within 1..100, got %d", c.JPEGQuality)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}
