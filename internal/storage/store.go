// Package storage persists the cooperative's records in an embedded SQLite
// database. Every read-then-write sequence runs inside Store.WithTx.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"transcoop/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout sorts lexicographically in chronological order.
const timeLayout = "2006-01-02 15:04:05.000000"

// Querier is the query/execute surface shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the per-entity statements. It runs against the pool or a
// transaction depending on how it was built.
type Queries struct {
	db  Querier
	now func() time.Time
}

func New(db Querier) *Queries {
	return &Queries{db: db, now: time.Now}
}

// Store owns the database handle.
type Store struct {
	db *sql.DB
	*Queries
}

// DSN adds the pragmas every connection needs.
func DSN(path string) string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// Open creates the database directory, applies migrations and returns a
// store limited to a single connection.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.InfoContext(ctx, "SQLite store ready", "path", dbPath)
	return &Store{db: db, Queries: New(db)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside BEGIN … COMMIT. Any error from fn rolls back.
// fn must only use the Queries it receives; the pool has a single
// connection and the transaction holds it.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StorageErr("begin transaction", err)
	}
	q := &Queries{db: tx, now: s.now}
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.StorageErr("commit transaction", err)
	}
	return nil
}

// mapErr converts driver errors into the core taxonomy.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFoundf("%s: no such record", op)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return core.Validationf("%s: duplicate value", op)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return core.Conflictf("%s: referenced record missing or still in use", op)
		}
	}
	return core.StorageErr(op, err)
}

func (q *Queries) stamp() string {
	return q.now().UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// affected returns NotFound when an UPDATE or DELETE touched no row.
func affected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return core.StorageErr(op, err)
	}
	if n == 0 {
		return core.NotFoundf("%s: no such record", op)
	}
	return nil
}

func (q *Queries) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapErr(op, err)
	}
	return n, nil
}

// Counts returns the dashboard registry counts.
func (q *Queries) Counts(ctx context.Context) (core.DashboardStats, error) {
	var st core.DashboardStats
	err := q.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM vehicles),
		(SELECT COUNT(*) FROM drivers),
		(SELECT COUNT(*) FROM routes),
		(SELECT COUNT(*) FROM route_students),
		(SELECT COUNT(*) FROM loans WHERE status = 'ACTIVE')`).
		Scan(&st.Vehicles, &st.Drivers, &st.Routes, &st.Students, &st.Loans)
	if err != nil {
		return st, mapErr("count records", err)
	}
	return st, nil
}
