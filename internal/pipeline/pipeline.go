// Package pipeline runs the TMDB stages in order: load both files, join them
// on the movie identifier, clean the merged rows into movie records, build
// the report and hand it to the configured exports and database sink.
//
// Each stage is wrapped in a tracing span and reported to the metrics facade.
// A run can stop after any stage; later stages then see nothing.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tmdbetl/internal/analytics"
	"tmdbetl/internal/config"
	"tmdbetl/internal/datasource"
	"tmdbetl/internal/datasource/file"
	"tmdbetl/internal/datasource/httpds"
	"tmdbetl/internal/loader"
	"tmdbetl/internal/logging"
	"tmdbetl/internal/merge"
	"tmdbetl/internal/metrics"
	"tmdbetl/internal/movie"
	"tmdbetl/internal/parser/csv"
	"tmdbetl/internal/report"
	"tmdbetl/internal/storage"
	"tmdbetl/internal/table"
	"tmdbetl/internal/tracing"
	"tmdbetl/internal/transformer"
)

// Step is the last stage a run executes.
type Step int

// Steps in execution order.
const (
	StepLoad Step = iota + 1
	StepMerge
	StepClean
	StepReport
	StepAll
)

var stepNames = map[Step]string{
	StepLoad:   "load",
	StepMerge:  "merge",
	StepClean:  "clean",
	StepReport: "report",
	StepAll:    "all",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep maps a step name to its Step. The empty string selects StepAll.
func ParseStep(s string) (Step, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return StepAll, nil
	}
	for st, n := range stepNames {
		if n == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown step %q (want load, merge, clean, report or all)", s)
}

// Result collects what a run produced. Fields of stages that did not run are
// zero.
type Result struct {
	RunID string
	Step  Step

	Movies  loader.Stats
	Credits loader.Stats
	Merge   merge.Stats
	Clean   transformer.Stats

	// Records are the cleaned movies, in merge order.
	Records []movie.Movie
	// Report is nil unless the report stage ran.
	Report *report.Report

	// Exported lists the files written by the exporter.
	Exported []string
	// Persisted maps table names to rows written.
	Persisted map[string]int64

	Started time.Time
	Took    time.Duration
}

// Runner executes the pipeline described by one configuration.
type Runner struct {
	cfg config.Pipeline
	log *slog.Logger

	// Test seams.
	openRepo   func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	openSource func(src config.Source) (datasource.Source, error)
	newRunID   func() string
	now        func() time.Time
}

// New returns a Runner for cfg. cfg should already carry defaults. A nil
// logger discards output.
func New(cfg config.Pipeline, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		cfg:        cfg,
		log:        log,
		openRepo:   storage.New,
		openSource: openSource,
		newRunID:   uuid.NewString,
		now:        time.Now,
	}
}

// openSource resolves a configured source.
func openSource(src config.Source) (datasource.Source, error) {
	switch src.Kind {
	case "", "file":
		return file.NewLocal(src.File.Path), nil
	case "http":
		return httpds.New(httpds.ConfigFrom(src.HTTP)), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", src.Kind)
	}
}

// Run executes every stage up to and including upTo. The run identifier is
// attached to ctx, so every log line of the run carries it.
func (r *Runner) Run(ctx context.Context, upTo Step) (*Result, error) {
	if _, ok := stepNames[upTo]; !ok {
		return nil, fmt.Errorf("run: invalid step %d", int(upTo))
	}
	res := &Result{RunID: r.newRunID(), Step: upTo, Started: r.now()}
	ctx = logging.WithRunID(ctx, res.RunID)

	ctx, span := tracing.Start(ctx, "pipeline",
		attribute.String("job", r.cfg.Job),
		attribute.String("run_id", res.RunID),
		attribute.String("step", upTo.String()),
	)
	err := r.run(ctx, upTo, res)
	tracing.End(span, err)

	res.Took = r.now().Sub(res.Started)
	if err != nil {
		r.log.ErrorContext(ctx, "run failed", "step", upTo, "took", res.Took, "err", err)
		return res, err
	}
	r.log.InfoContext(ctx, "run complete",
		"step", upTo,
		"movies", res.Movies.Rows,
		"credits", res.Credits.Rows,
		"merged", res.Merge.Matched,
		"cleaned", res.Clean.Rows,
		"exported", len(res.Exported),
		"tables", len(res.Persisted),
		"took", res.Took.Truncate(time.Millisecond),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, upTo Step, res *Result) error {
	var movies, credits *table.Table
	if err := r.stage(ctx, "load", func(ctx context.Context) error {
		var err error
		movies, credits, err = r.load(ctx, res)
		return err
	}); err != nil || upTo == StepLoad {
		return err
	}

	var merged *table.Table
	if err := r.stage(ctx, "merge", func(ctx context.Context) error {
		var err error
		merged, res.Merge, err = merge.InnerJoin(movies, credits, merge.OptionsFrom(r.cfg.Merge))
		if err != nil {
			return err
		}
		r.count("merged", res.Merge.Matched)
		r.count("unmatched", res.Merge.LeftUnmatched+res.Merge.RightUnmatched)
		r.count("duplicates", res.Merge.LeftDuplicates+res.Merge.RightDuplicates)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("rows", res.Merge.Matched))
		r.log.InfoContext(ctx, "merged",
			"matched", res.Merge.Matched,
			"movies_only", res.Merge.LeftUnmatched,
			"credits_only", res.Merge.RightUnmatched,
			"duplicates", res.Merge.LeftDuplicates+res.Merge.RightDuplicates,
			"empty_keys", res.Merge.EmptyKeys,
			"renamed", res.Merge.Renamed,
		)
		return nil
	}); err != nil || upTo == StepMerge {
		return err
	}

	if err := r.stage(ctx, "clean", func(ctx context.Context) error {
		c, err := transformer.New(transformer.PlanFrom(r.cfg.Clean), r.log)
		if err != nil {
			return err
		}
		res.Records, res.Clean, err = c.Clean(ctx, merged)
		if err != nil {
			return err
		}
		r.count("cleaned", res.Clean.Rows)
		r.count("dropped", res.Clean.Dropped)
		r.count("non_financial", res.Clean.NonFinancial)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("rows", res.Clean.Rows))
		return nil
	}); err != nil || upTo == StepClean {
		return err
	}

	var datasets []report.Dataset
	if err := r.stage(ctx, "report", func(ctx context.Context) error {
		rep := report.Build(res.Records,
			analytics.OptionsFrom(r.cfg.Report, r.cfg.Clean),
			analytics.FilterFrom(r.cfg.Report))
		res.Report = &rep
		datasets = rep.Datasets(res.Records)
		if r.cfg.Export.Dir == "" {
			return nil
		}
		var err error
		res.Exported, err = report.NewExporter(r.cfg.Export.Dir, r.cfg.Export.Formats, r.log).
			Export(ctx, rep, datasets)
		return err
	}); err != nil || upTo == StepReport {
		return err
	}

	if !r.cfg.StorageEnabled() {
		r.log.DebugContext(ctx, "storage disabled; skipping persist")
		return nil
	}
	return r.stage(ctx, "persist", func(ctx context.Context) error {
		return r.persist(ctx, res, datasets)
	})
}

// load reads the movies file, then the credits file.
func (r *Runner) load(ctx context.Context, res *Result) (movies, credits *table.Table, err error) {
	msrc, err := r.openSource(r.cfg.Sources.Movies)
	if err != nil {
		return nil, nil, fmt.Errorf("movies source: %w", err)
	}
	csrc, err := r.openSource(r.cfg.Sources.Credits)
	if err != nil {
		return nil, nil, fmt.Errorf("credits source: %w", err)
	}

	opts := r.cfg.Parser.Options
	newLoader := func() *loader.Loader {
		l := loader.New(csv.NewParser(csv.OptionsFrom(opts)), r.log)
		l.DropExactDuplicates = opts.Bool("drop_exact_duplicates", false)
		return l
	}

	movies, res.Movies, err = newLoader().Load(ctx, msrc, loader.MoviesInput)
	if err != nil {
		return nil, nil, err
	}
	credits, res.Credits, err = newLoader().Load(ctx, csrc, loader.CreditsInput)
	if err != nil {
		return nil, nil, err
	}

	r.count("movies_loaded", res.Movies.Rows)
	r.count("credits_loaded", res.Credits.Rows)
	r.count("skipped", res.Movies.Skipped+res.Credits.Skipped)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("movies.rows", res.Movies.Rows),
		attribute.Int("credits.rows", res.Credits.Rows),
	)
	return movies, credits, nil
}

func (r *Runner) persist(ctx context.Context, res *Result, datasets []report.Dataset) error {
	kind := r.cfg.Storage.Kind
	repo, err := r.openRepo(ctx, storage.Config{Kind: kind, DSN: r.cfg.Storage.DB.DSN})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	sink, err := storage.NewSink(repo, kind, r.cfg.Storage.DB, r.log)
	if err != nil {
		return err
	}
	run := storage.Run{
		ID:          res.RunID,
		Job:         r.cfg.Job,
		Started:     res.Started,
		MoviesRows:  res.Movies.Rows,
		CreditsRows: res.Credits.Rows,
		Merged:      res.Merge.Matched,
		Cleaned:     res.Clean.Rows,
		Skipped:     res.Movies.Skipped + res.Credits.Skipped,
		Finished:    r.now(),
	}
	written, err := sink.Write(ctx, run, datasets)
	metrics.RecordBatches(r.cfg.Job, sink.Batches())
	res.Persisted = written
	if err != nil {
		return err
	}
	var total int64
	for _, n := range written {
		total += n
	}
	metrics.RecordRow(r.cfg.Job, "persisted", total)
	return nil
}

// stage runs fn inside a span and records its outcome.
func (r *Runner) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := tracing.Start(ctx, name)
	start := r.now()
	r.log.DebugContext(ctx, "stage start", "stage", name)

	err := fn(ctx)

	took := r.now().Sub(start)
	metrics.RecordStep(r.cfg.Job, name, err, took)
	tracing.End(span, err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.DebugContext(ctx, "stage done", "stage", name, "took", took)
	return nil
}

func (r *Runner) count(kind string, n int) {
	metrics.RecordRow(r.cfg.Job, kind, int64(n))
}
