package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/natserract/curriculum/pkg/curriculum"
	"github.com/natserract/curriculum/pkg/curriculum/schema/postgres"
	"github.com/natserract/curriculum/pkg/supabase"
)

// ErrAtomicUnsupported is returned when atomic ingestion is requested on a
// backend without transactions.
var ErrAtomicUnsupported = errors.New("backend does not support atomic ingestion")

// Backend is the write interface the ingestion driver needs. Each call
// creates one row and returns its generated id; any error means the row
// must be treated as not created.
type Backend interface {
	InsertDegree(ctx context.Context, row curriculum.DegreeRow) (interface{}, error)
	InsertCourse(ctx context.Context, row curriculum.CourseRow) (interface{}, error)
	InsertUnit(ctx context.Context, row curriculum.UnitRow) (interface{}, error)
}

// Transactional is implemented by backends that can run a whole document
// inside one transaction.
type Transactional interface {
	WithinTx(ctx context.Context, fn func(b Backend) error) error
}

// RowCounter reports the number of rows in a table
type RowCounter interface {
	Count(ctx context.Context, table string) (int, error)
}

// RESTBackend writes rows through the hosted REST API
type RESTBackend struct {
	client supabase.BackendClient
}

func NewRESTBackend(client supabase.BackendClient) *RESTBackend {
	return &RESTBackend{client: client}
}

func (r *RESTBackend) InsertDegree(ctx context.Context, row curriculum.DegreeRow) (interface{}, error) {
	return r.insert(ctx, curriculum.TableDegrees, row)
}

func (r *RESTBackend) InsertCourse(ctx context.Context, row curriculum.CourseRow) (interface{}, error) {
	return r.insert(ctx, curriculum.TableCourses, row)
}

func (r *RESTBackend) InsertUnit(ctx context.Context, row curriculum.UnitRow) (interface{}, error) {
	return r.insert(ctx, curriculum.TableUnits, row)
}

func (r *RESTBackend) Count(ctx context.Context, table string) (int, error) {
	return r.client.Count(ctx, table)
}

func (r *RESTBackend) insert(ctx context.Context, table string, row interface{}) (interface{}, error) {
	records, err := r.client.Insert(ctx, table, row)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, curriculum.ErrNoRows
	}
	id, ok := records[0].ID()
	if !ok {
		return nil, fmt.Errorf("%s: returned row has no id: %w", table, curriculum.ErrNoRows)
	}
	return id, nil
}

// PostgresBackend writes rows straight into Postgres
type PostgresBackend struct {
	store *postgres.Store
}

func NewPostgresBackend(store *postgres.Store) *PostgresBackend {
	return &PostgresBackend{store: store}
}

func (p *PostgresBackend) InsertDegree(ctx context.Context, row curriculum.DegreeRow) (interface{}, error) {
	return p.store.InsertDegree(ctx, row)
}

func (p *PostgresBackend) InsertCourse(ctx context.Context, row curriculum.CourseRow) (interface{}, error) {
	degreeID, err := toInt64(row.DegreeID)
	if err != nil {
		return nil, err
	}
	return p.store.InsertCourse(ctx, degreeID, row)
}

func (p *PostgresBackend) InsertUnit(ctx context.Context, row curriculum.UnitRow) (interface{}, error) {
	courseID, err := toInt64(row.CourseID)
	if err != nil {
		return nil, err
	}
	return p.store.InsertUnit(ctx, courseID, row)
}

func (p *PostgresBackend) Count(ctx context.Context, table string) (int, error) {
	return p.store.CountRows(ctx, table)
}

func (p *PostgresBackend) WithinTx(ctx context.Context, fn func(b Backend) error) error {
	return p.store.InTx(ctx, func(tx *postgres.Store) error {
		return fn(NewPostgresBackend(tx))
	})
}

func toInt64(id interface{}) (int64, error) {
	switch v := id.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("unsupported id type %T", id)
	}
}
