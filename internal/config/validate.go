package config

import (
	"fmt"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Agent.MaxSteps <= 0 {
		errs = append(errs, ValidationError{
			Field:   "agent.max_steps",
			Message: "must be a positive integer",
		})
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"planner.oracle_timeout", cfg.Planner.OracleTimeout},
		{"planner.cache_ttl", cfg.Planner.CacheTTL},
		{"executor.test_timeout", cfg.Executor.TestTimeout},
	} {
		if field.value == "" {
			continue
		}
		d, err := time.ParseDuration(field.value)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field.name,
				Message: fmt.Sprintf("invalid duration %q", field.value),
			})
			continue
		}
		if d <= 0 {
			errs = append(errs, ValidationError{
				Field:   field.name,
				Message: "must be positive",
			})
		}
	}

	if cfg.PR.Enabled {
		if cfg.PR.Owner == "" {
			errs = append(errs, ValidationError{
				Field:   "pr.owner",
				Message: "is required when pr.enabled is true",
			})
		}
		if cfg.PR.Repo == "" {
			errs = append(errs, ValidationError{
				Field:   "pr.repo",
				Message: "is required when pr.enabled is true",
			})
		}
	}

	return errs
}
