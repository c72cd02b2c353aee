package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvSupabaseURL, "https://example.supabase.co")
	t.Setenv(EnvSupabaseKey, "anon-key")
	t.Setenv(EnvDataFile, "")
	t.Setenv(EnvBackend, "")
	t.Setenv(EnvHTTPMaxRetries, "")
	t.Setenv(EnvUnitFailurePolicy, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "anon-key", cfg.SupabaseKey)
	assert.Equal(t, DefaultDataFile, cfg.DataFile)
	assert.Equal(t, BackendREST, cfg.Backend)
	assert.Equal(t, 0, cfg.HTTPMaxRetries)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv(EnvSupabaseURL, "")
	t.Setenv(EnvSupabaseKey, "")
	t.Setenv(EnvBackend, BackendREST)

	cfg, err := Load()
	assert.Nil(t, cfg)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got: %v", err)
	assert.Equal(t, []string{EnvSupabaseURL, EnvSupabaseKey}, cfgErr.Missing)
	assert.Contains(t, err.Error(), "SUPABASE_URL and SUPABASE_KEY")
}

func TestLoad_PostgresBackendNeedsNoCredentials(t *testing.T) {
	t.Setenv(EnvSupabaseURL, "")
	t.Setenv(EnvSupabaseKey, "")
	t.Setenv(EnvBackend, BackendPostgres)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend)
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv(EnvBackend, "mongo")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRetries(t *testing.T) {
	t.Setenv(EnvSupabaseURL, "https://example.supabase.co")
	t.Setenv(EnvSupabaseKey, "anon-key")
	t.Setenv(EnvBackend, "")
	t.Setenv(EnvHTTPMaxRetries, "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv(EnvSupabaseURL, "https://example.supabase.co")
	t.Setenv(EnvSupabaseKey, "")

	endpoint, secret, err := LoadCredentials()
	assert.Equal(t, "https://example.supabase.co", endpoint)
	assert.Empty(t, secret)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{EnvSupabaseKey}, cfgErr.Missing)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "***", Redact("abc"))
	assert.Equal(t, "********", Redact("a-very-long-secret-value"))
	assert.NotContains(t, Redact("secret"), "s")
}
