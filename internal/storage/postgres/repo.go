// Package postgres implements a Postgres repository using pgx v5. Batches are
// written with the COPY protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tmdbetl/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// CopyFrom streams rows into table with COPY.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return copyRows(ctx, r.pool, table, columns, rows)
}

// Exec executes a single statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	return execStmt(ctx, r.pool, sql)
}

// Begin starts a transaction on one pooled connection.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx writes inside one Postgres transaction.
type Tx struct {
	tx pgx.Tx
}

// CopyFrom streams rows into table with COPY.
func (t *Tx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return copyRows(ctx, t.tx, table, columns, rows)
}

// Exec executes a single statement.
func (t *Tx) Exec(ctx context.Context, sql string) error { return execStmt(ctx, t.tx, sql) }

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback aborts the transaction.
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// conn is the part of pgxpool.Pool and pgx.Tx the repository uses.
type conn interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func copyRows(ctx context.Context, c conn, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := c.CopyFrom(ctx, identifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s): %w", table, pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

func execStmt(ctx context.Context, c conn, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := c.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres exec: %w", err)
	}
	return nil
}

// identifier splits a possibly schema-qualified name for pgx, which quotes
// each part itself.
func identifier(name string) pgx.Identifier {
	parts := strings.Split(name, ".")
	out := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
