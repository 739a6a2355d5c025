// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"tmdbetl/internal/etlerr"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path. It is safe for concurrent
// use; each Open returns an independent handle.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the configured path.
func (l *Local) Name() string { return l.path }

// Open opens the configured path for reading.
//
// A context that is already done short-circuits before touching the
// filesystem. A missing file is reported as etlerr.ErrSourceNotFound while
// still matching fs.ErrNotExist. On Linux the kernel is told the file will be
// read sequentially.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w: %w", l.path, etlerr.ErrSourceNotFound, err)
		}
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
