package supabase

import "context"

// BackendClient defines the table operations the loader needs from the hosted backend
type BackendClient interface {
	// Insert creates one row and returns the rows echoed back by the backend.
	// An empty slice means the backend accepted the request but returned no data.
	Insert(ctx context.Context, table string, row interface{}) ([]Record, error)

	// Count returns the exact number of rows in a table
	Count(ctx context.Context, table string) (int, error)

	// Ping checks that the REST endpoint answers with the configured key
	Ping(ctx context.Context) error
}
