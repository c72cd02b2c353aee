package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/natserract/curriculum/pkg/curriculum"
	"go.uber.org/zap"
)

const insertDegree = `INSERT INTO graduak (izena) VALUES ($1) RETURNING id`
const insertCourse = `INSERT INTO ikasgaiak (gradu_id, maila, izena, mota, kredituak, currentofficialras) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
const insertUnit = `INSERT INTO unitateak (ikasgai_id, unitate_id, izena, edukiak, data) VALUES ($1, $2, $3, $4, $5) RETURNING id`

var countQueries = map[string]string{
	curriculum.TableDegrees: `SELECT count(*) FROM graduak`,
	curriculum.TableCourses: `SELECT count(*) FROM ikasgaiak`,
	curriculum.TableUnits:   `SELECT count(*) FROM unitateak`,
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store writes curriculum rows either straight to the pool or, inside InTx,
// to a single transaction.
type Store struct {
	db     *DB
	q      querier
	tx     pgx.Tx
	logger *zap.Logger
}

// NewStore creates a store that autocommits every insert
func NewStore(db *DB, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		q:      db.Pool(),
		logger: logger,
	}
}

// InsertDegree creates a degree row and returns its id
func (s *Store) InsertDegree(ctx context.Context, row curriculum.DegreeRow) (int64, error) {
	id, err := s.insertReturningID(ctx, insertDegree, row.Name)
	if err != nil {
		s.logInsertError("graduak", err)
		return 0, fmt.Errorf("failed to insert degree %s: %w", row.Name, err)
	}
	return id, nil
}

// InsertCourse creates a course row under degreeID and returns its id
func (s *Store) InsertCourse(ctx context.Context, degreeID int64, row curriculum.CourseRow) (int64, error) {
	codes := row.OfficialReferenceCodes
	if codes == nil {
		codes = []string{}
	}

	id, err := s.insertReturningID(ctx, insertCourse,
		degreeID,
		int32(row.YearLevel),
		row.Name,
		text(row.Type),
		float8(row.Credits),
		codes,
	)
	if err != nil {
		s.logInsertError("ikasgaiak", err)
		return 0, fmt.Errorf("failed to insert course %s: %w", row.Name, err)
	}
	return id, nil
}

// InsertUnit creates a unit row under courseID and returns its id
func (s *Store) InsertUnit(ctx context.Context, courseID int64, row curriculum.UnitRow) (int64, error) {
	var contents []byte
	if len(row.Contents) > 0 && string(row.Contents) != "null" {
		contents = row.Contents
	}

	id, err := s.insertReturningID(ctx, insertUnit,
		courseID,
		text(row.UnitID),
		text(row.Name),
		contents,
		text(row.Date),
	)
	if err != nil {
		s.logInsertError("unitateak", err)
		return 0, fmt.Errorf("failed to insert unit: %w", err)
	}
	return id, nil
}

// CountRows returns the number of rows in one of the curriculum tables
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	query, ok := countQueries[table]
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	if err := s.q.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return int(n), nil
}

// InTx runs fn with a store bound to one transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: s.db, q: tx, tx: tx, logger: s.logger}); err != nil {
		s.logger.Warn("Rolling back transaction", zap.Error(err))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertReturningID runs an INSERT ... RETURNING id. Inside a transaction
// the statement gets its own savepoint, since a failed statement would
// otherwise abort everything written before it.
func (s *Store) insertReturningID(ctx context.Context, sql string, args ...any) (int64, error) {
	var id int64
	if s.tx == nil {
		err := s.q.QueryRow(ctx, sql, args...).Scan(&id)
		return id, err
	}

	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := sp.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		_ = sp.Rollback(ctx)
		return 0, err
	}
	if err := sp.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to release savepoint: %w", err)
	}
	return id, nil
}

func (s *Store) logInsertError(table string, err error) {
	fields := []zap.Field{zap.String("table", table), zap.Error(err)}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields = append(fields,
			zap.String("sqlstate", pgErr.Code),
			zap.String("constraint", pgErr.ConstraintName))
	}
	s.logger.Error("Insert failed", fields...)
}

func text(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func float8(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *f, Valid: true}
}
