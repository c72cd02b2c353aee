// Package supabase provides a small client for the Supabase REST API
// (PostgREST), covering the calls the curriculum loader makes: single-row
// inserts that return the created row, exact row counts and a key check.
package supabase

import (
	"fmt"

	httpclient "github.com/natserract/curriculum/pkg/http"
	"go.uber.org/zap"
)

const restPath = "/rest/v1/"

// Client is the main client for interacting with the Supabase REST API
type Client struct {
	config     *Config
	httpClient *httpclient.Client
	logger     *zap.Logger
}

// NewClientWithLogger creates a new Supabase client with a custom logger.
// It fails when the config cannot address a backend.
func NewClientWithLogger(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("supabase config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := httpclient.NewClientWithLogger(logger)
	hc.SetMaxRetries(cfg.MaxRetries)

	return &Client{
		config:     cfg,
		httpClient: hc,
		logger:     logger,
	}, nil
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{
		"apikey":        c.config.Key,
		"Authorization": "Bearer " + c.config.Key,
	}
}
