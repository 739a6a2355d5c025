// Package mysql implements a MySQL repository on go-sql-driver/mysql. Each
// batch is written as multi-row INSERT statements inside one transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"tmdbetl/internal/storage"
)

// maxPlaceholders is the MySQL prepared statement parameter limit.
const maxPlaceholders = 65535

// Config holds MySQL repository configuration.
type Config struct {
	// DSN uses the driver format, e.g. "user:pass@tcp(localhost:3306)/tmdb".
	DSN string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository validates the DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	mc.ParseTime = true
	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows into table with multi-row INSERTs in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql begin tx: %w", err)
	}
	n, err := insertRows(ctx, tx, table, columns, rows)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql commit: %w", err)
	}
	return n, nil
}

// Exec executes a single statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	return execStmt(ctx, r.db, sql)
}

// Begin starts a transaction. DDL must run before it: MySQL commits
// implicitly on CREATE TABLE.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mysql begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx writes inside one MySQL transaction.
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

// insertRows writes rows in chunks that stay under the placeholder limit.
func insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	var inserted int64
	for _, chunk := range chunkRows(rows, maxPlaceholders/len(columns)) {
		stmt, args, err := buildInsert(table, columns, chunk)
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, fmt.Errorf("mysql insert into %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("mysql rows affected: %w", err)
		}
		inserted += n
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
		return fmt.Errorf("mysql exec: %w", err)
	}
	return nil
}

// buildInsert renders one INSERT ... VALUES (?, ...), (?, ...) statement.
func buildInsert(table string, columns []string, rows [][]any) (string, []any, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = myIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", myFQN(table), strings.Join(quoted, ", "))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("mysql: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

// chunkRows splits rows into slices of at most size rows.
func chunkRows(rows [][]any, size int) [][][]any {
	if size <= 0 {
		size = 1
	}
	var out [][][]any
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	return append(out, rows)
}
