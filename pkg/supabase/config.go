package supabase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/natserract/curriculum/pkg/config"
)

type Config struct {
	URL        string
	Key        string
	MaxRetries int
}

// NewConfig builds a client config from the process configuration.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		URL:        cfg.SupabaseURL,
		Key:        cfg.SupabaseKey,
		MaxRetries: cfg.HTTPMaxRetries,
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("supabase URL is required")
	}
	if c.Key == "" {
		return fmt.Errorf("supabase key is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid supabase URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "https" && scheme != "http") || u.Host == "" {
		return fmt.Errorf("invalid supabase URL %q: must be an absolute http(s) URL", c.URL)
	}
	return nil
}
