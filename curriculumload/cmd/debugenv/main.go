package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/natserract/curriculum/curriculumload/services"
	"github.com/natserract/curriculum/pkg/config"
	"github.com/natserract/curriculum/pkg/curriculum/schema/postgres"
	"github.com/natserract/curriculum/pkg/supabase"
	"go.uber.org/zap"
)

func main() {
	// --counts also reports the row count of each curriculum table, read
	// from the backend selected by CURRICULUM_BACKEND
	withCounts := len(os.Args) > 1 && os.Args[1] == "--counts"

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Missing values are reported by the diagnostics below
	endpoint, secret, err := config.LoadCredentials()
	if err != nil {
		logger.Warn("Incomplete backend configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var db *postgres.DB
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	d := &services.Diagnostics{Out: os.Stdout, Logger: logger}
	if withCounts {
		d.Counter = func(endpoint, secret string) (services.RowCounter, error) {
			if os.Getenv(config.EnvBackend) == config.BackendPostgres {
				var err error
				db, err = postgres.New(ctx, postgres.NewConfig(), logger)
				if err != nil {
					return nil, err
				}
				return services.NewPostgresBackend(postgres.NewStore(db, logger)), nil
			}
			client, err := supabase.NewClientWithLogger(&supabase.Config{URL: endpoint, Key: secret}, logger)
			if err != nil {
				return nil, err
			}
			return services.NewRESTBackend(client), nil
		}
	}

	result := d.Run(ctx, endpoint, secret)
	if !result.OK {
		logger.Info("Connectivity check did not succeed",
			zap.Bool("attempted", result.Attempted),
			zap.Bool("constructed", result.Constructed),
			zap.Error(result.Err))
	}
}
