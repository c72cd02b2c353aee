package supabase

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a row as returned by PostgREST. Numbers are kept as json.Number.
type Record map[string]interface{}

// ID returns the generated primary key of the row.
func (r Record) ID() (interface{}, bool) {
	id, ok := r["id"]
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// parseContentRange extracts the total from a PostgREST Content-Range
// header, e.g. "0-24/3573" or "*/0".
func parseContentRange(header string) (int, error) {
	_, total, found := strings.Cut(header, "/")
	if !found || total == "*" {
		return 0, fmt.Errorf("content-range %q carries no total", header)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("content-range %q: %w", header, err)
	}
	return n, nil
}
