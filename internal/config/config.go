package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all runtime configuration for the load generator.
type Config struct {
	// Workload shape
	Writers      int `koanf:"writers"`        // concurrent writer workers
	OpsPerWriter int `koanf:"ops_per_writer"` // increments each writer performs
	DirectShare  int `koanf:"direct_share"`   // percent of writers bypassing brokers, 0-100

	// Observation
	SampleInterval time.Duration `koanf:"sample_interval"`

	// Operational
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	MetricsAddr string `koanf:"metrics_addr"` // "" = disabled
}

// defaults is the lowest-priority layer.
var defaults = map[string]any{
	"writers":         8,
	"ops_per_writer":  100000,
	"direct_share":    0,
	"sample_interval": 500 * time.Millisecond,
	"log_level":       "info",
	"log_format":      "json",
	"metrics_addr":    "",
}

// Load reads configuration from (lowest → highest priority):
//  1. Built-in defaults
//  2. YAML file at CONFIG_FILE env var path (if set)
//  3. Environment variables (always highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults.
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	// Layer 2: optional YAML file.
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", cfgFile, err)
		}
	}

	// Layer 3: environment variables.
	// Transform: "SAMPLE_INTERVAL" → "sample_interval".
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// Normalise string fields.
	cfg.LogLevel = strings.TrimSpace(strings.ToLower(cfg.LogLevel))
	cfg.LogFormat = strings.TrimSpace(strings.ToLower(cfg.LogFormat))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []string

	if c.Writers < 1 || c.Writers > 4096 {
		errs = append(errs, "WRITERS must be between 1 and 4096")
	}
	if c.OpsPerWriter < 1 {
		errs = append(errs, "OPS_PER_WRITER must be at least 1")
	}
	if c.DirectShare < 0 || c.DirectShare > 100 {
		errs = append(errs, "DIRECT_SHARE must be a percentage between 0 and 100")
	}
	if c.SampleInterval < 10*time.Millisecond {
		errs = append(errs, "SAMPLE_INTERVAL must be at least 10ms")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d configuration error(s):\n  - %s", len(errs), strings.Join(errs, "\n  - "))
	}
	return nil
}
