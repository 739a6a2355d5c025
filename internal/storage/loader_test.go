package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// TestLoadBatches_Basic verifies rows are grouped into batches and copyFn is
// called with the expected counts.
func TestLoadBatches_Basic(t *testing.T) {
	t.Parallel()

	in := make(chan []any, 8)
	for i := 0; i < 7; i++ {
		in <- []any{i, "x"}
	}
	close(in)

	var calls int32
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		atomic.AddInt32(&calls, 1)
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), nil, []string{"c1", "c2"}, in, 3, copyFn)
	if err != nil {
		t.Fatalf("LoadBatches error: %v", err)
	}
	if total != 7 {
		t.Fatalf("total rows %d, want 7", total)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("copyFn calls %d, want 3 (3+3+1)", got)
	}
}

// TestLoadBatches_ErrorPropagation ensures the first copy error stops the
// load and is returned.
func TestLoadBatches_ErrorPropagation(t *testing.T) {
	t.Parallel()

	in := make(chan []any, 5)
	for i := 0; i < 5; i++ {
		in <- []any{i}
	}
	close(in)

	wantErr := errors.New("copy failed")
	var batches int
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		batches++
		if batches == 2 {
			return 0, wantErr
		}
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), nil, []string{"c"}, in, 2, copyFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want error %v, got %v", wantErr, err)
	}
	if total != 2 {
		t.Fatalf("total %d, want 2", total)
	}
	if batches != 2 {
		t.Fatalf("batches %d, want 2", batches)
	}
}

// TestLoadBatches_Canceled returns ctx.Err() when the context ends while
// waiting for rows.
func TestLoadBatches_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	in := make(chan []any) // never closed
	_, err := LoadBatches(ctx, nil, []string{"c"}, in, 10, func(context.Context, []string, [][]any) (int64, error) {
		return 0, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestLoadBatches_BadArgs(t *testing.T) {
	t.Parallel()

	in := make(chan []any)
	if _, err := LoadBatches(context.Background(), nil, nil, in, 0, func(context.Context, []string, [][]any) (int64, error) { return 0, nil }); err == nil {
		t.Fatal("expected error for zero batch size")
	}
	if _, err := LoadBatches(context.Background(), nil, nil, in, 1, nil); err == nil {
		t.Fatal("expected error for nil copyFn")
	}
}
