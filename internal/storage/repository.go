// Package storage holds the backend-agnostic persistence contract, the
// backend factory and the batched loader used to write report datasets.
//
// Backends live in sub-packages (sqlite, postgres, mssql, mysql) and register
// themselves at init time; import tmdbetl/internal/storage/all to enable all
// of them.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal surface a backend provides.
type Repository interface {
	// CopyFrom bulk-inserts rows into table. Every row is aligned to columns.
	// It returns the number of rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a single statement, typically DDL or a DELETE.
	Exec(ctx context.Context, sql string) error

	// Close releases connections.
	Close()
}

// Tx is a write handle bound to one database transaction.
type Tx interface {
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor is implemented by backends that can group several statements
// into one transaction. Sink writes a whole run through it when available.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
