package postgres

import (
	"context"

	"tmdbetl/internal/storage"
)

// Kind is the storage.kind value selecting this backend.
const Kind = "postgres"

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo delegates to *Repository and closes the pool on Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Transactor = (*wrappedRepo)(nil)
)

// Close implements storage.Repository.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL(Kind, Dialect, nil)
}
