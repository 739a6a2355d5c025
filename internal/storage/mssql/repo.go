// Package mssql implements a Microsoft SQL Server repository. Rows are written
// with the TDS bulk copy protocol (mssql.CopyIn) inside one transaction per batch.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"tmdbetl/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
	// KeepNulls keeps NULLs for columns that have defaults.
	KeepNulls bool
}

// Repository writes report datasets to SQL Server.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, opens and pings the pool. The returned func
// closes it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mssql open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mssql ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom bulk copies rows into table and returns the server's row count.
// A failure on any row rolls the whole batch back.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (n int64, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	n, err = bulkCopy(ctx, tx, copyInTarget(table), r.bulkOptions(), columns, rows)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql commit %s: %w", table, err)
	}
	return n, nil
}

func (r *Repository) bulkOptions() mssql.BulkOptions {
	return mssql.BulkOptions{KeepNulls: r.cfg.KeepNulls, Tablock: true}
}

// bulkCopy streams rows through one CopyIn statement; the final argument-less
// Exec flushes the batch and reports the count.
func bulkCopy(ctx context.Context, tx *sql.Tx, table string, opts mssql.BulkOptions, columns []string, rows [][]any) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, opts, columns...))
	if err != nil {
		return 0, fmt.Errorf("mssql prepare bulk %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("mssql bulk %s row %d: %w", table, i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("mssql bulk %s flush: %w", table, err)
	}
	return res.RowsAffected()
}

// Exec runs one statement or batch; blank input is a no-op.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mssql exec: %w", err)
	}
	return nil
}

// Begin starts a transaction for a multi-statement write.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mssql begin: %w", err)
	}
	return &Tx{tx: tx, opts: r.bulkOptions()}, nil
}

// Tx writes inside one SQL Server transaction.
type Tx struct {
	tx   *sql.Tx
	opts mssql.BulkOptions
}

// CopyFrom bulk copies rows into table.
func (t *Tx) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return bulkCopy(ctx, t.tx, copyInTarget(table), t.opts, columns, rows)
}

// Exec runs one statement or batch; blank input is a no-op.
func (t *Tx) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mssql exec: %w", err)
	}
	return nil
}

// Commit commits the transaction.
func (t *Tx) Commit(context.Context) error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback(context.Context) error { return t.tx.Rollback() }

// copyInTarget quotes each part of a possibly schema-qualified name for the
// bulk copy statement.
func copyInTarget(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}
