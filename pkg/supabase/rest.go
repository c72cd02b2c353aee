package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	httpclient "github.com/natserract/curriculum/pkg/http"
	"go.uber.org/zap"
)

// Insert creates a row in table and returns the representation echoed back
func (c *Client) Insert(ctx context.Context, table string, row interface{}) ([]Record, error) {
	endpoint, err := httpclient.BuildURL(c.config.URL, restPath+table, nil)
	if err != nil {
		c.logger.Error("Failed to build URL", zap.Error(err))
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	headers := c.authHeaders()
	headers["Prefer"] = "return=representation"

	resp, err := c.httpClient.Post(ctx, endpoint, headers, row)
	if err != nil {
		c.logger.Error("Insert request failed", zap.Error(err), zap.String("table", table))
		return nil, fmt.Errorf("insert into %s failed: %w", table, err)
	}

	records, err := decodeRecords(resp.Body)
	if err != nil {
		c.logger.Error("Failed to parse insert response", zap.Error(err), zap.String("table", table))
		return nil, fmt.Errorf("failed to parse insert response from %s: %w", table, err)
	}

	c.logger.Debug("Inserted row",
		zap.String("table", table),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("returned_rows", len(records)))

	return records, nil
}

// Count returns the exact number of rows in table
func (c *Client) Count(ctx context.Context, table string) (int, error) {
	endpoint, err := httpclient.BuildURL(c.config.URL, restPath+table, map[string]string{"select": "*"})
	if err != nil {
		return 0, fmt.Errorf("failed to build URL: %w", err)
	}

	headers := c.authHeaders()
	headers["Prefer"] = "count=exact"
	headers["Range-Unit"] = "items"
	headers["Range"] = "0-0"

	resp, err := c.httpClient.Head(ctx, endpoint, headers)
	if err != nil {
		c.logger.Error("Count request failed", zap.Error(err), zap.String("table", table))
		return 0, fmt.Errorf("count %s failed: %w", table, err)
	}

	n, err := parseContentRange(resp.Headers.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	c.logger.Debug("Counted rows", zap.String("table", table), zap.Int("rows", n))
	return n, nil
}

// Ping requests the REST root, which requires a valid key
func (c *Client) Ping(ctx context.Context) error {
	endpoint, err := httpclient.BuildURL(c.config.URL, restPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, endpoint, c.authHeaders())
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping failed with status %d", resp.StatusCode)
	}
	return nil
}

func decodeRecords(body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if body[0] == '{' {
		var single Record
		if err := dec.Decode(&single); err != nil {
			return nil, err
		}
		return []Record{single}, nil
	}

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}
