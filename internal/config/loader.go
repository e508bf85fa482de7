package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a mend configuration from the given YAML file path.
// After parsing, it fills in defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the
// first one found. Search order: ./mend.yaml, ~/.mend/config.yaml. When no
// file exists, a default config is returned rather than an error so every
// command works out of the box.
func LoadDefault() (*Config, error) {
	candidates := []string{"mend.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".mend", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Agent.MaxSteps <= 0 {
		cfg.Agent.MaxSteps = 10
	}
	if cfg.Planner.OracleTimeout == "" {
		cfg.Planner.OracleTimeout = "60s"
	}
	if cfg.Planner.CacheTTL == "" {
		cfg.Planner.CacheTTL = "30s"
	}
	if cfg.Executor.RepoDir == "" {
		cfg.Executor.RepoDir = "."
	}
	if cfg.Executor.DefaultTestDir == "" {
		cfg.Executor.DefaultTestDir = "tests"
	}
	if cfg.Executor.TestTimeout == "" {
		cfg.Executor.TestTimeout = "5m"
	}
	if cfg.PR.Base == "" {
		cfg.PR.Base = "main"
	}
}

// OracleTimeout parses the planner oracle timeout.
func (c *Config) OracleTimeout() time.Duration {
	return parseDuration(c.Planner.OracleTimeout, 60*time.Second)
}

// CacheTTL parses the planner cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Planner.CacheTTL, 30*time.Second)
}

// TestTimeout parses the executor test timeout.
func (c *Config) TestTimeout() time.Duration {
	return parseDuration(c.Executor.TestTimeout, 5*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
