package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requiredByEnvironment lists settings that must be non-empty per environment.
var requiredByEnvironment = map[Environment][]string{
	Development: {},
	Test:        {},
	CI:          {"DB_USER", "DB_PASSWORD"},
	Production:  {"DB_USER", "DB_PASSWORD", "API_KEY"},
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs []error

	values := map[string]string{
		"DB_USER":     cfg.DBUser,
		"DB_PASSWORD": cfg.DBPassword,
		"API_KEY":     cfg.APIKey,
	}
	for _, name := range requiredByEnvironment[cfg.Environment] {
		if values[name] == "" {
			errs = append(errs, ValidationError{Field: name, Message: fmt.Sprintf("required in %s environment", cfg.Environment)})
		}
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{Field: "DB_HOST", Message: "required for postgres"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{Field: "DB_NAME", Message: "required for postgres"})
		}
	case "sqlite":
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{Field: "DB_NAME", Message: "sqlite needs a file path or :memory:"})
		}
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.EmbeddingDimension <= 0 {
		errs = append(errs, ValidationError{Field: "EMBEDDING_DIMENSION", Message: "must be positive"})
	}
	if cfg.LLMTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "LLM_TIMEOUT", Message: "must be positive"})
	}
	if cfg.RetrievalTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "RETRIEVAL_TIMEOUT", Message: "must be positive"})
	}
	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_REQUESTS", Message: "must be positive"})
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_WINDOW", Message: "must be positive"})
	}

	return errors.Join(errs...)
}
