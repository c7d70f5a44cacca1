package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	SourceDir      string        `yaml:"source_dir"`
	OutputDir      string        `yaml:"output_dir"`
	Exclude        []string      `yaml:"exclude"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	ReplaceProfile string        `yaml:"replace_profile"`
	Publish        PublishConfig `yaml:"publish"`
}

// PublishConfig configures uploads of the derivative set.
type PublishConfig struct {
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		SourceDir:      "public/images",
		OutputDir:      "compressed",
		Exclude:        []string{"logo.jpeg"},
		MaxConcurrency: runtime.NumCPU(),
		ReplaceProfile: "original",
		Publish: PublishConfig{
			Prefix:        "images/compressed",
			MaxConcurrent: 5,
		},
	}
}

// Load reads and parses the configuration file on top of the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(nil); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration. When profiles is non-nil, replace_profile must be one of them.
func (c *Config) Validate(profiles []string) error {
	var errs []error
	if c.SourceDir == "" {
		errs = append(errs, errors.New("source_dir is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if c.MaxConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency))
	}
	if c.Publish.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("publish.max_concurrent must be positive, got %d", c.Publish.MaxConcurrent))
	}
	if profiles != nil && !slices.Contains(profiles, c.ReplaceProfile) {
		errs = append(errs, fmt.Errorf("replace_profile %q is not a known profile", c.ReplaceProfile))
	}
	return errors.Join(errs...)
}
