package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CopyFn is a backend bulk insert bound to one table. It returns the number
// of rows inserted and must cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error. On cancellation it returns (total, ctx.Err()).
//
// The batch backing array is reused, so copyFn must not retain rows.
func LoadBatches(
	ctx context.Context,
	log *slog.Logger,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var (
		total     int64
		batches   int
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.ErrorContext(ctx, "batch insert failed", "inserted", n, "total", total, "err", err)
			return err
		}

		batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(n) / since.Seconds()
		}
		log.DebugContext(ctx, "batch inserted",
			"batch", batches,
			"rows", n,
			"total", total,
			"rps", int64(rps),
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlush = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
