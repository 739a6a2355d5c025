package sqlite

import (
	"context"

	"tmdbetl/internal/storage"
)

// Kind is the storage.kind value selecting this backend.
const Kind = "sqlite"

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adds Close on top of *Repository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Transactor = (*wrappedRepo)(nil)
)

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
