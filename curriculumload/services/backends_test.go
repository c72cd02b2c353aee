package services

import (
	"context"
	"os"
	"testing"

	"github.com/natserract/curriculum/pkg/curriculum"
	"github.com/natserract/curriculum/pkg/curriculum/schema/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPostgresBackend(t *testing.T) *PostgresBackend {
	t.Helper()
	url := os.Getenv("CURRICULUM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CURRICULUM_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg := postgres.NewConfig()
	cfg.URL = url
	db, err := postgres.New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.InitSchema(ctx))
	_, err = db.Pool().Exec(ctx, `TRUNCATE graduak, ikasgaiak, unitateak RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewPostgresBackend(postgres.NewStore(db, zap.NewNop()))
}

func TestPostgresBackend_CountTables(t *testing.T) {
	b := newTestPostgresBackend(t)

	_, _, err := run(t, b, informatika, Options{})
	require.NoError(t, err)

	counts, err := CountTables(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		curriculum.TableDegrees: 1,
		curriculum.TableCourses: 1,
		curriculum.TableUnits:   1,
	}, counts)
}
