// Package datasource abstracts where raw input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a readable stream. Name identifies the source in diagnostics.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}
