package file

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tmdbetl/internal/datasource"
	"tmdbetl/internal/etlerr"
)

var _ datasource.Source = (*Local)(nil)

// TestLocalOpen covers success, missing file, and pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name            string
		prepare         func(t *testing.T) string // returns path to open
		makeCtx         func(t *testing.T) context.Context
		wantErrIs       []error // each checked via errors.Is
		wantErrContains string
		wantContent     string
	}

	writeFile := func(t *testing.T, payload string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "movies.csv")
		if err := os.WriteFile(p, []byte(payload), 0o644); err != nil {
			t.Fatalf("write test file: %v", err)
		}
		return p
	}

	cases := []tc{
		{
			name:        "success_reads_content",
			prepare:     func(t *testing.T) string { return writeFile(t, "id,title\n1,Avatar\n") },
			makeCtx:     func(t *testing.T) context.Context { return context.Background() },
			wantContent: "id,title\n1,Avatar\n",
		},
		{
			name: "missing_file_is_source_not_found",
			prepare: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "tmdb_5000_credits.csv")
			},
			makeCtx:         func(t *testing.T) context.Context { return context.Background() },
			wantErrIs:       []error{etlerr.ErrSourceNotFound, fs.ErrNotExist},
			wantErrContains: "tmdb_5000_credits.csv",
		},
		{
			name:    "pre_canceled_context",
			prepare: func(t *testing.T) string { return writeFile(t, "x") },
			makeCtx: func(t *testing.T) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErrIs: []error{context.Canceled},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			path := c.prepare(t)
			src := NewLocal(path)
			if src.Name() != path {
				t.Fatalf("Name() = %q, want %q", src.Name(), path)
			}
			rc, err := src.Open(c.makeCtx(t))

			if len(c.wantErrIs) > 0 {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range c.wantErrIs {
					if !errors.Is(err, want) {
						t.Fatalf("errors.Is(%v, %v) = false", err, want)
					}
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain %q", err, c.wantErrContains)
				}
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error: %T", rc)
				}
				return
			}

			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer rc.Close()
			got, rerr := io.ReadAll(rc)
			if rerr != nil {
				t.Fatalf("reading: %v", rerr)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content mismatch: got %q, want %q", got, c.wantContent)
			}
		})
	}
}

// BenchmarkLocalOpen_Success measures the cost of opening a small file.
func BenchmarkLocalOpen_Success(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
		b.Fatalf("write test file: %v", err)
	}
	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		if err := rc.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
