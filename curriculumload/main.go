package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/natserract/curriculum/curriculumload/services"
	"github.com/natserract/curriculum/pkg/config"
	"github.com/natserract/curriculum/pkg/curriculum"
	"github.com/natserract/curriculum/pkg/curriculum/schema/postgres"
	"github.com/natserract/curriculum/pkg/supabase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flags struct {
	file         string
	backend      string
	unitFailures string
	atomic       bool
	initSchema   bool
	verbose      bool
}

func main() {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "curriculumload",
		Short: "Load a curriculum JSON export into the degrees, courses and units tables",
		Long: `curriculumload reads a curriculum export (degree -> year level -> courses -> units)
and inserts one row per degree, course and unit, in document order.

A degree or course the backend does not create is reported and its children
are skipped. Unit failures follow the --unit-failures policy.

Configuration is read from the environment and an optional .env file:
  SUPABASE_URL, SUPABASE_KEY     hosted backend (rest)
  DATABASE_URL or DB_*           direct Postgres backend (postgres)
  CURRICULUM_FILE, CURRICULUM_BACKEND, UNIT_FAILURE_POLICY, HTTP_MAX_RETRIES`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "curriculum JSON file (overrides CURRICULUM_FILE)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "rest or postgres (overrides CURRICULUM_BACKEND)")
	cmd.Flags().StringVar(&f.unitFailures, "unit-failures", "", "ignore, report or abort (overrides UNIT_FAILURE_POLICY)")
	cmd.Flags().BoolVar(&f.atomic, "atomic", false, "load the whole document in one transaction (postgres only)")
	cmd.Flags().BoolVar(&f.initSchema, "init-schema", false, "create the tables before loading (postgres only)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, f *flags) error {
	// Initialize logger
	var logger *zap.Logger
	var err error
	if f.verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	// Flags take precedence over the environment
	if f.backend != "" {
		os.Setenv(config.EnvBackend, f.backend)
	}
	if f.file != "" {
		os.Setenv(config.EnvDataFile, f.file)
	}
	if f.unitFailures != "" {
		os.Setenv(config.EnvUnitFailurePolicy, f.unitFailures)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}

	policy, err := services.ParseUnitFailurePolicy(cfg.UnitFailurePolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := curriculum.LoadDocument(cfg.DataFile)
	if err != nil {
		logger.Error("Failed to load curriculum document", zap.String("path", cfg.DataFile), zap.Error(err))
		return err
	}

	backend, closeBackend, err := openBackend(ctx, cfg, f, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	ingester := services.NewIngester(backend, services.Options{
		UnitFailurePolicy: policy,
		Atomic:            f.atomic,
		Out:               os.Stdout,
	}, logger)

	metrics, err := ingester.Run(ctx, doc)
	if err != nil {
		return err
	}

	fmt.Printf("  Degrees: %d created, %d failed\n", metrics.DegreesCreated, metrics.DegreesFailed)
	fmt.Printf("  Courses: %d created, %d failed, %d skipped\n", metrics.CoursesCreated, metrics.CoursesFailed, metrics.CoursesSkipped)
	fmt.Printf("  Units: %d created, %d failed, %d skipped\n", metrics.UnitsCreated, metrics.UnitsFailed, metrics.UnitsSkipped)
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, f *flags, logger *zap.Logger) (services.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, postgres.NewConfig(), logger)
		if err != nil {
			logger.Error("Failed to connect to database", zap.Error(err))
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if f.initSchema {
			if err := db.InitSchema(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		logger.Info("Database connection established")
		return services.NewPostgresBackend(postgres.NewStore(db, logger)), db.Close, nil

	default:
		if f.atomic {
			return nil, nil, fmt.Errorf("--atomic needs %s=%s: %w", config.EnvBackend, config.BackendPostgres, services.ErrAtomicUnsupported)
		}
		if f.initSchema {
			return nil, nil, fmt.Errorf("--init-schema needs %s=%s", config.EnvBackend, config.BackendPostgres)
		}
		client, err := supabase.NewClientWithLogger(supabase.NewConfig(cfg), logger)
		if err != nil {
			logger.Error("Failed to create Supabase client", zap.Error(err))
			return nil, nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
		return services.NewRESTBackend(client), func() {}, nil
	}
}
