package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvSupabaseURL       = "SUPABASE_URL"
	EnvSupabaseKey       = "SUPABASE_KEY"
	EnvDataFile          = "CURRICULUM_FILE"
	EnvBackend           = "CURRICULUM_BACKEND"
	EnvUnitFailurePolicy = "UNIT_FAILURE_POLICY"
	EnvHTTPMaxRetries    = "HTTP_MAX_RETRIES"
)

// DefaultDataFile is the curriculum export read when nothing else is configured.
const DefaultDataFile = "curriculum_eguneratua_2025-11-27.json"

const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

type Config struct {
	SupabaseURL       string
	SupabaseKey       string
	DataFile          string
	Backend           string
	UnitFailurePolicy string
	HTTPMaxRetries    int
}

// ConfigurationError reports required environment values that are absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is required", strings.Join(e.Missing, " and "))
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		SupabaseURL:       os.Getenv(EnvSupabaseURL),
		SupabaseKey:       os.Getenv(EnvSupabaseKey),
		DataFile:          getEnv(EnvDataFile, DefaultDataFile),
		Backend:           getEnv(EnvBackend, BackendREST),
		UnitFailurePolicy: os.Getenv(EnvUnitFailurePolicy),
	}

	if raw := os.Getenv(EnvHTTPMaxRetries); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer, got %q", EnvHTTPMaxRetries, raw)
		}
		cfg.HTTPMaxRetries = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendREST:
		var missing []string
		if c.SupabaseURL == "" {
			missing = append(missing, EnvSupabaseURL)
		}
		if c.SupabaseKey == "" {
			missing = append(missing, EnvSupabaseKey)
		}
		if len(missing) > 0 {
			return &ConfigurationError{Missing: missing}
		}
	case BackendPostgres:
		// Connection settings are read by the postgres package itself
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvBackend, BackendREST, BackendPostgres, c.Backend)
	}
	if c.DataFile == "" {
		return fmt.Errorf("%s is required", EnvDataFile)
	}
	return nil
}

// LoadCredentials returns the backend endpoint and access secret from the
// environment (after reading .env). Either value being absent yields a
// *ConfigurationError; the values that were found are still returned so
// callers can report on them.
func LoadCredentials() (endpoint, secret string, err error) {
	_ = godotenv.Load()

	endpoint = os.Getenv(EnvSupabaseURL)
	secret = os.Getenv(EnvSupabaseKey)

	var missing []string
	if endpoint == "" {
		missing = append(missing, EnvSupabaseURL)
	}
	if secret == "" {
		missing = append(missing, EnvSupabaseKey)
	}
	if len(missing) > 0 {
		return endpoint, secret, &ConfigurationError{Missing: missing}
	}
	return endpoint, secret, nil
}

// Redact masks a secret for display. Every secret gets the same treatment:
// no characters of the value are revealed.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	n := len(secret)
	if n > 8 {
		n = 8
	}
	return strings.Repeat("*", n)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
