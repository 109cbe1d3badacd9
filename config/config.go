package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort string
	ServerHost string
	GinMode    string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Auth
	APIKey    string
	JWTSecret string

	// LLM and embeddings
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	EmbeddingModel     string
	EmbeddingDimension int
	LLMTimeout         time.Duration
	RetrievalTimeout   time.Duration

	// Static personalization and matching tables
	TablesPath string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Report archive
	S3Bucket   string
	AWSRegion  string
	S3Endpoint string

	CORSAllowedOrigins []string
}

// RedisEnabled reports whether any redis location was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	var lookup func(string) string
	switch env {
	case CI:
		lookup = ciLookup
	case Development, Test:
		lookup = devLookup
	case Production:
		lookup = prodLookup
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := populate(cfg, lookup); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func populate(cfg *Config, lookup func(string) string) error {
	cfg.ServerPort = withDefault(lookup("SERVER_PORT"), "8000")
	cfg.ServerHost = withDefault(lookup("SERVER_HOST"), "0.0.0.0")
	cfg.GinMode = lookup("GIN_MODE")

	cfg.DBDriver = withDefault(lookup("DB_DRIVER"), "postgres")
	cfg.DBHost = withDefault(lookup("DB_HOST"), "localhost")
	cfg.DBPort = withDefault(lookup("DB_PORT"), "5432")
	cfg.DBUser = lookup("DB_USER")
	cfg.DBPassword = lookup("DB_PASSWORD")
	cfg.DBName = withDefault(lookup("DB_NAME"), "jjikmuck")
	cfg.DBSSLMode = withDefault(lookup("DB_SSL_MODE"), "disable")

	cfg.RedisHost = lookup("REDIS_HOST")
	cfg.RedisPort = withDefault(lookup("REDIS_PORT"), "6379")
	cfg.RedisPassword = lookup("REDIS_PASSWORD")
	cfg.RedisURL = lookup("REDIS_URL")
	cfg.RedisDB = 0

	cfg.APIKey = lookup("API_KEY")
	cfg.JWTSecret = lookup("JWT_SECRET")

	cfg.OpenAIAPIKey = lookup("OPENAI_API_KEY")
	cfg.OpenAIBaseURL = strings.TrimRight(withDefault(lookup("OPENAI_BASE_URL"), "https://api.openai.com/v1"), "/")
	cfg.OpenAIModel = withDefault(lookup("OPENAI_MODEL"), "gpt-4-turbo-preview")
	cfg.EmbeddingModel = withDefault(lookup("OPENAI_EMBEDDING_MODEL"), "text-embedding-3-small")
	cfg.TablesPath = lookup("PERSONALIZATION_TABLES_PATH")

	cfg.S3Bucket = lookup("S3_BUCKET")
	cfg.AWSRegion = lookup("AWS_REGION")
	cfg.S3Endpoint = lookup("S3_ENDPOINT")
	cfg.CORSAllowedOrigins = splitList(lookup("CORS_ALLOWED_ORIGINS"))

	var errs []error
	var err error
	if cfg.EmbeddingDimension, err = intValue(lookup("EMBEDDING_DIMENSION"), 1536); err != nil {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSION: %w", err))
	}
	if cfg.RateLimitRequests, err = intValue(lookup("RATE_LIMIT_REQUESTS"), 60); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS: %w", err))
	}
	if cfg.LLMTimeout, err = durationValue(lookup("LLM_TIMEOUT"), 20*time.Second); err != nil {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT: %w", err))
	}
	if cfg.RetrievalTimeout, err = durationValue(lookup("RETRIEVAL_TIMEOUT"), 5*time.Second); err != nil {
		errs = append(errs, fmt.Errorf("RETRIEVAL_TIMEOUT: %w", err))
	}
	if cfg.RateLimitWindow, err = durationValue(lookup("RATE_LIMIT_WINDOW"), time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err))
	}
	return errors.Join(errs...)
}

// ciLookup reads ONLY environment variables, as injected by the CI runner
func ciLookup(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// devLookup resolves NAME_FILE, then the environment, then the local secrets directory
func devLookup(name string) string {
	if v := fileLookup(name); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return readSecret(strings.ToLower(name))
}

// prodLookup prefers Docker secrets and only then the environment
func prodLookup(name string) string {
	if v := readSecret(strings.ToLower(name)); v != "" {
		return v
	}
	if v := fileLookup(name); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(name))
}

// fileLookup resolves the NAME_FILE indirection used by container orchestrators
func fileLookup(name string) string {
	path := os.Getenv(name + "_FILE")
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intValue(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func durationValue(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	// bare numbers are seconds
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return time.Duration(n) * time.Second, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
