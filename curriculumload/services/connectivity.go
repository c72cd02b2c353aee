package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/natserract/curriculum/pkg/config"
	"github.com/natserract/curriculum/pkg/curriculum"
	"github.com/natserract/curriculum/pkg/supabase"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ConnectivityResult is the outcome of one connection attempt
type ConnectivityResult struct {
	// Attempted is false when credentials were missing and no client was built
	Attempted bool
	// Constructed reports whether a client could be built from the credentials
	Constructed bool
	OK          bool
	Err         error
	Latency     time.Duration
}

// CheckConnectivity builds a client for endpoint and secret and pings the
// REST root. Failures are reported in the result, never returned.
func CheckConnectivity(ctx context.Context, endpoint, secret string, logger *zap.Logger) ConnectivityResult {
	result := ConnectivityResult{Attempted: true}

	client, err := supabase.NewClientWithLogger(&supabase.Config{URL: endpoint, Key: secret}, logger)
	if err != nil {
		result.Err = err
		return result
	}
	result.Constructed = true

	start := time.Now()
	err = client.Ping(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	result.OK = true
	return result
}

type tableCount struct {
	table string
	rows  int
}

// CountTables reads the row count of every curriculum table concurrently
func CountTables(ctx context.Context, counter RowCounter) (map[string]int, error) {
	tables := []string{curriculum.TableDegrees, curriculum.TableCourses, curriculum.TableUnits}

	p := pool.NewWithResults[tableCount]().WithMaxGoroutines(len(tables)).WithErrors().WithContext(ctx)
	for _, table := range tables {
		table := table
		p.Go(func(ctx context.Context) (tableCount, error) {
			n, err := counter.Count(ctx, table)
			if err != nil {
				return tableCount{}, fmt.Errorf("count %s: %w", table, err)
			}
			return tableCount{table: table, rows: n}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(results))
	for _, r := range results {
		counts[r.table] = r.rows
	}
	return counts, nil
}

// Diagnostics prints the backend configuration and tries to connect.
type Diagnostics struct {
	Out    io.Writer
	Logger *zap.Logger
	// Check is the connection attempt; CheckConnectivity when nil
	Check func(ctx context.Context, endpoint, secret string) ConnectivityResult
	// Counter, when set after a successful connection, reports table sizes
	Counter func(endpoint, secret string) (RowCounter, error)
}

// Run prints the diagnostic report for the given credentials. Secrets are
// only ever shown redacted. No connection is attempted when either value
// is empty.
func (d *Diagnostics) Run(ctx context.Context, endpoint, secret string) ConnectivityResult {
	fmt.Fprintln(d.Out, "=== CONNECTION DEBUG ===")
	fmt.Fprintf(d.Out, "URL: %s\n", endpoint)
	fmt.Fprintf(d.Out, "URL length: %d\n", len(endpoint))
	fmt.Fprintf(d.Out, "KEY: %s\n", config.Redact(secret))
	fmt.Fprintf(d.Out, "KEY length: %d\n", len(secret))
	fmt.Fprintf(d.Out, "URL starts with https://: %t\n", strings.HasPrefix(endpoint, "https://"))

	if endpoint == "" || secret == "" {
		fmt.Fprintln(d.Out, "URL or KEY is missing!")
		return ConnectivityResult{}
	}

	check := d.Check
	if check == nil {
		check = func(ctx context.Context, endpoint, secret string) ConnectivityResult {
			return CheckConnectivity(ctx, endpoint, secret, d.Logger)
		}
	}

	fmt.Fprintln(d.Out)
	fmt.Fprintln(d.Out, "=== TESTING SUPABASE CONNECTION ===")
	result := check(ctx, endpoint, secret)
	if !result.OK {
		fmt.Fprintf(d.Out, "SUPABASE ERROR: %v\n", result.Err)
		return result
	}
	fmt.Fprintf(d.Out, "SUPABASE CONNECTED! (%s)\n", result.Latency.Round(time.Millisecond))

	if d.Counter != nil {
		d.printCounts(ctx, endpoint, secret)
	}
	return result
}

func (d *Diagnostics) printCounts(ctx context.Context, endpoint, secret string) {
	counter, err := d.Counter(endpoint, secret)
	if err != nil {
		fmt.Fprintf(d.Out, "Row counts unavailable: %v\n", err)
		return
	}
	counts, err := CountTables(ctx, counter)
	if err != nil {
		fmt.Fprintf(d.Out, "Row counts unavailable: %v\n", err)
		return
	}
	for _, table := range []string{curriculum.TableDegrees, curriculum.TableCourses, curriculum.TableUnits} {
		fmt.Fprintf(d.Out, "  %s: %d rows\n", table, counts[table])
	}
}
