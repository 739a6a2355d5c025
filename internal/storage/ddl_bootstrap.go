package storage

import (
	"context"
	"fmt"
	"sync"

	"tmdbetl/internal/ddl"
)

// DDLBootstrapper applies td through repo, creating the table when it does
// not exist. It must be idempotent.
type DDLBootstrapper func(ctx context.Context, repo Repository, d ddl.Dialect, td ddl.TableDef) error

type dialectEntry struct {
	dialect ddl.Dialect
	ensure  DDLBootstrapper
}

var (
	ddlMu    sync.RWMutex
	dialects = map[string]dialectEntry{}
)

// RegisterDDL registers (or replaces) the SQL dialect of kind. A nil ensure
// uses CreateIfNotExists.
func RegisterDDL(kind string, d ddl.Dialect, ensure DDLBootstrapper) {
	if ensure == nil {
		ensure = CreateIfNotExists
	}
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = dialectEntry{dialect: d, ensure: ensure}
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, error) {
	e, err := lookupDDL(kind)
	return e.dialect, err
}

// EnsureTable creates td on repo with the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, td ddl.TableDef) error {
	e, err := lookupDDL(kind)
	if err != nil {
		return err
	}
	if err := e.ensure(ctx, repo, e.dialect, td); err != nil {
		return fmt.Errorf("ensure table %s: %w", td.FQN, err)
	}
	return nil
}

// CreateIfNotExists renders td with d and executes it. d must emit
// CREATE TABLE IF NOT EXISTS.
func CreateIfNotExists(ctx context.Context, repo Repository, d ddl.Dialect, td ddl.TableDef) error {
	sql, err := d.BuildCreateTableSQL(td)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

func lookupDDL(kind string) (dialectEntry, error) {
	ddlMu.RLock()
	e, ok := dialects[kind]
	ddlMu.RUnlock()
	if !ok {
		return dialectEntry{}, fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return e, nil
}
