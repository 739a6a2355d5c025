package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tmdbetl/internal/config"
	"tmdbetl/internal/ddl"
	"tmdbetl/internal/report"
)

// RunsTable is the ledger of pipeline runs, suffixed to the table prefix.
const RunsTable = "runs"

// RunIDColumn is prepended to every dataset table.
const RunIDColumn = "run_id"

// Run describes one pipeline run for the runs ledger.
type Run struct {
	ID          string
	Job         string
	Started     time.Time
	Finished    time.Time
	MoviesRows  int
	CreditsRows int
	Merged      int
	Cleaned     int
	Skipped     int
}

var runColumns = []string{
	RunIDColumn, "job", "started_at", "finished_at",
	"movies_rows", "credits_rows", "merged", "cleaned", "skipped",
}

var runKinds = []string{
	report.KindText, report.KindText, "timestamp", "timestamp",
	report.KindInt, report.KindInt, report.KindInt, report.KindInt, report.KindInt,
}

// Sink writes report datasets into one database.
type Sink struct {
	repo       Repository
	kind       string
	dialect    ddl.Dialect
	prefix     string
	autoCreate bool
	batchSize  int
	batches    int64
	log        *slog.Logger
}

// NewSink returns a Sink writing through repo with the dialect registered
// for kind.
func NewSink(repo Repository, kind string, db config.DBConfig, log *slog.Logger) (*Sink, error) {
	d, err := DialectFor(kind)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	batch := db.BatchSize
	if batch <= 0 {
		batch = config.DefaultBatchSize
	}
	return &Sink{
		repo:       repo,
		kind:       kind,
		dialect:    d,
		prefix:     db.TablePrefix,
		autoCreate: db.AutoCreateTable,
		batchSize:  batch,
		log:        log,
	}, nil
}

// Batches returns how many bulk inserts the sink has issued.
func (s *Sink) Batches() int64 { return s.batches }

// Table returns the full table name for a dataset.
func (s *Sink) Table(name string) string { return s.prefix + name }

// writer is the statement surface shared by Repository and Tx.
type writer interface {
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
}

// Write replaces the content of every dataset table with the rows of this
// run, then appends run to the runs ledger. It returns the rows written per
// table.
//
// Tables are created first. When the backend is a Transactor, the clears,
// loads and ledger row share one transaction, so a failed run leaves the
// previous run's rows in place. Other backends write statement by statement.
func (s *Sink) Write(ctx context.Context, run Run, datasets []report.Dataset) (map[string]int64, error) {
	for _, ds := range datasets {
		if err := s.ensure(ctx, s.Table(ds.Name), datasetColumns(ds), datasetKinds(ds)); err != nil {
			return nil, err
		}
	}
	runs := s.Table(RunsTable)
	if err := s.ensure(ctx, runs, runColumns, runKinds, RunIDColumn); err != nil {
		return nil, err
	}

	w, finish, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	written, err := s.write(ctx, w, run, datasets)
	if err := finish(err); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "persisted", "kind", s.kind, "tables", len(written))
	return written, nil
}

func (s *Sink) write(ctx context.Context, w writer, run Run, datasets []report.Dataset) (map[string]int64, error) {
	written := make(map[string]int64, len(datasets)+1)
	for _, ds := range datasets {
		n, err := s.replace(ctx, w, run.ID, ds)
		if err != nil {
			return nil, err
		}
		written[s.Table(ds.Name)] = n
	}

	runs := s.Table(RunsTable)
	n, err := w.CopyFrom(ctx, runs, runColumns, [][]any{{
		run.ID, run.Job, run.Started.UTC(), run.Finished.UTC(),
		int64(run.MoviesRows), int64(run.CreditsRows), int64(run.Merged), int64(run.Cleaned), int64(run.Skipped),
	}})
	if err != nil {
		return nil, fmt.Errorf("record run %s: %w", run.ID, err)
	}
	written[runs] = n
	return written, nil
}

// begin returns the writer for one Write and the func that ends it. finish
// commits on a nil error and rolls back otherwise.
func (s *Sink) begin(ctx context.Context) (writer, func(error) error, error) {
	t, ok := s.repo.(Transactor)
	if !ok {
		return s.repo, func(err error) error { return err }, nil
	}
	tx, err := t.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin %s transaction: %w", s.kind, err)
	}
	finish := func(err error) error {
		if err != nil {
			if rerr := tx.Rollback(context.WithoutCancel(ctx)); rerr != nil {
				s.log.WarnContext(ctx, "rollback failed", "kind", s.kind, "err", rerr)
			}
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit %s transaction: %w", s.kind, err)
		}
		return nil
	}
	return tx, finish, nil
}

func datasetColumns(ds report.Dataset) []string {
	return append([]string{RunIDColumn}, ds.Columns...)
}

func datasetKinds(ds report.Dataset) []string {
	return append([]string{report.KindText}, ds.Kinds...)
}

func (s *Sink) replace(ctx context.Context, w writer, runID string, ds report.Dataset) (int64, error) {
	table := s.Table(ds.Name)
	columns := datasetColumns(ds)

	if err := w.Exec(ctx, "DELETE FROM "+s.dialect.QuoteFQN(table)); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}

	in := make(chan []any, s.batchSize)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer close(in)
		for _, r := range ds.Rows {
			row := make([]any, 0, len(columns))
			row = append(row, runID)
			for _, v := range r {
				row = append(row, dbValue(v))
			}
			select {
			case in <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	n, err := LoadBatches(ctx, s.log.With("table", table), columns, in, s.batchSize,
		func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
			s.batches++
			return w.CopyFrom(ctx, table, cols, rows)
		})
	if err != nil {
		return n, fmt.Errorf("load %s: %w", table, err)
	}
	return n, nil
}

// ensure creates table when auto-create is on.
func (s *Sink) ensure(ctx context.Context, table string, columns, kinds []string, keys ...string) error {
	if !s.autoCreate {
		return nil
	}
	td, err := s.dialect.FromKinds(table, columns, kinds, keys...)
	if err != nil {
		return err
	}
	return EnsureTable(ctx, s.kind, s.repo, td)
}

// dbValue widens Go ints so every driver sees 64-bit integers.
func dbValue(v any) any {
	if n, ok := v.(int); ok {
		return int64(n)
	}
	return v
}
