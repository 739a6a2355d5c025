// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. Rows are inserted through a
// prepared statement inside one transaction per batch.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tmdbetl/internal/ddl"
	"tmdbetl/internal/storage"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a file path or URI, e.g. "tmdb.db" or
	// "file:tmdb.db?_pragma=busy_timeout(5000)".
	DSN string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens and pings the database. The returned func closes it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows into table in a single transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	n, err := insertRows(ctx, tx, table, columns, rows)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// Exec executes a single statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	return execStmt(ctx, r.db, sql)
}

// Begin starts a transaction. The pool holds one connection, so nothing else
// may use the repository until the Tx ends.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx writes inside one SQLite transaction.
type Tx struct {
	tx *sql.Tx
}

// CopyFrom inserts rows into table.
func (t *Tx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return insertRows(ctx, t.tx, table, columns, rows)
}

// Exec executes a single statement.
func (t *Tx) Exec(ctx context.Context, sql string) error { return execStmt(ctx, t.tx, sql) }

// Commit commits the transaction.
func (t *Tx) Commit(context.Context) error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback(context.Context) error { return t.tx.Rollback() }

func insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.DoubleQuote(c)
		placeholders[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Dialect.QuoteFQN(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	args := make([]any, len(columns))
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			args[i] = toSQLite(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}
	return inserted, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execStmt(ctx context.Context, db execer, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// DB exposes the handle for read queries.
func (r *Repository) DB() *sql.DB { return r.db }

// toSQLite stores times as ISO-8601 text; dates at UTC midnight keep only
// the date part.
func toSQLite(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}
