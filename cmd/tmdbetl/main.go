// Command tmdbetl loads the TMDB movies and credits files, joins and cleans
// them, and writes the summary report to files, a database or an HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"tmdbetl/internal/config"
	"tmdbetl/internal/logging"
	"tmdbetl/internal/metrics"
	"tmdbetl/internal/metrics/datadog"
	"tmdbetl/internal/metrics/prompush"
	"tmdbetl/internal/pipeline"
	"tmdbetl/internal/server"
	"tmdbetl/internal/tracing"

	// register every storage backend with the factory; the config picks one.
	_ "tmdbetl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the command-line flags. Empty values defer to the config file
// and its environment overrides.
type options struct {
	cfgPath        string
	step           string
	validate       bool
	serve          bool
	addr           string
	verbose        bool
	metricsBackend string
	pushgatewayURL string
	outDir         string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("tmdbetl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.cfgPath, "config", "configs/pipelines/tmdb.json", "pipeline config path (.json, .yaml)")
	fs.StringVar(&o.step, "step", "all", "last stage to run: load, merge, clean, report, all")
	fs.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&o.serve, "serve", false, "serve the report API after the run")
	fs.StringVar(&o.addr, "addr", "", "API listen address (overrides server.addr)")
	fs.BoolVar(&o.verbose, "v", false, "enable debug logs")
	fs.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog, none (overrides metrics.backend)")
	fs.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides metrics.pushgateway_url)")
	fs.StringVar(&o.outDir, "out", "", "report export directory (overrides export.dir)")
	return o, fs.Parse(args)
}

// run is main without the process exit, returning the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	step, err := pipeline.ParseStep(o.step)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "env: %v\n", err)
		return 1
	}
	p, err := config.Load(o.cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	applyFlags(&p, o)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", o.cfgPath)
		return 1
	}
	if o.validate {
		fmt.Fprintf(stdout, "configuration is valid: %s\n", o.cfgPath)
		return 0
	}

	log := logging.New(p.Logging, stderr)
	slog.SetDefault(log)

	scrape, err := setupMetrics(p, o.serve, log)
	if err != nil {
		log.Error("metrics setup failed", "err", err)
		return 1
	}
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "err", err)
		}
	}()

	shutdown, err := tracing.Setup(p.Tracing, p.Job, log)
	if err != nil {
		log.Error("tracing setup failed", "err", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "err", err)
		}
	}()

	// The API needs cleaned records even when a shorter run was asked for.
	if o.serve && step < pipeline.StepClean {
		step = pipeline.StepClean
	}
	log.Debug("starting", "config", o.cfgPath, "job", p.Job, "step", step,
		"storage", p.Storage.Kind, "export", p.Export.Dir)

	res, err := pipeline.New(p, log).Run(ctx, step)
	if err != nil {
		log.Error("pipeline failed", "err", err)
		return 1
	}
	printSummary(stdout, res)

	if !o.serve {
		return 0
	}
	if err := server.New(res.Records, p, scrape, log).ListenAndServe(ctx); err != nil {
		log.Error("server failed", "err", err)
		return 1
	}
	return 0
}

// applyFlags layers non-empty flags over the loaded config.
func applyFlags(p *config.Pipeline, o options) {
	if o.verbose {
		p.Logging.Level = "debug"
	}
	if o.addr != "" {
		p.Server.Addr = o.addr
	}
	if o.outDir != "" {
		p.Export.Dir = o.outDir
		if len(p.Export.Formats) == 0 {
			p.Export.Formats = []string{config.DefaultExportFormat}
		}
	}
	if o.metricsBackend != "" {
		p.Metrics.Backend = o.metricsBackend
	}
	if o.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = o.pushgatewayURL
	}
	if p.Metrics.Backend == config.MetricsPushgateway && p.Metrics.PushgatewayURL == "" {
		p.Metrics.PushgatewayURL = config.DefaultPushgateway
	}
	if p.Metrics.Backend == config.MetricsDatadog && p.Metrics.DatadogAddr == "" {
		p.Metrics.DatadogAddr = config.DefaultDatadogAddr
	}
}

// setupMetrics installs the configured backend. When serving, a Prometheus
// registry is returned for /metrics unless DataDog was chosen. A backend that
// fails to start leaves metrics disabled.
func setupMetrics(p config.Pipeline, serve bool, log *slog.Logger) (http.Handler, error) {
	switch p.Metrics.Backend {
	case config.MetricsPushgateway:
		b, err := prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
		if err != nil {
			log.Warn("metrics: pushgateway backend unavailable; using nop", "err", err)
			return nil, nil
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled", "backend", p.Metrics.Backend, "url", p.Metrics.PushgatewayURL, "job", p.Job)
		return b.Handler(), nil

	case config.MetricsDatadog:
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  p.Metrics.Namespace,
			GlobalTags: p.Metrics.Tags,
		})
		if err != nil {
			log.Warn("metrics: datadog backend unavailable; using nop", "err", err)
			return nil, nil
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled", "backend", p.Metrics.Backend, "addr", p.Metrics.DatadogAddr)
		return nil, nil

	case "", config.MetricsNone:
		if !serve {
			log.Debug("metrics disabled")
			return nil, nil
		}
		b, err := prompush.NewScrapeBackend(p.Job)
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
		return b.Handler(), nil

	default:
		return nil, fmt.Errorf("unknown metrics backend %q", p.Metrics.Backend)
	}
}

func printSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "run %s (%s) finished in %s\n", res.RunID, res.Step, res.Took.Round(time.Millisecond))
	fmt.Fprintf(w, "  loaded:   movies=%d credits=%d skipped=%d\n",
		res.Movies.Rows, res.Credits.Rows, res.Movies.Skipped+res.Credits.Skipped)
	if res.Step >= pipeline.StepMerge {
		fmt.Fprintf(w, "  merged:   %d (movies only=%d, credits only=%d, duplicates=%d)\n",
			res.Merge.Matched, res.Merge.LeftUnmatched, res.Merge.RightUnmatched,
			res.Merge.LeftDuplicates+res.Merge.RightDuplicates)
	}
	if res.Step >= pipeline.StepClean {
		fmt.Fprintf(w, "  cleaned:  %d (no financials=%d, dropped=%d, columns with gaps=%v)\n",
			res.Clean.Rows, res.Clean.NonFinancial, res.Clean.Dropped, res.Clean.MissingColumns())
	}
	if res.Report != nil {
		k := res.Report.KPIs
		fmt.Fprintf(w, "  kpis:     movies=%d total_revenue=%d avg_roi=%.2f avg_vote=%.2f\n",
			k.Movies, k.TotalRevenue, k.AvgROI, k.AvgVote)
	}
	for _, f := range res.Exported {
		fmt.Fprintf(w, "  exported: %s\n", f)
	}
	for _, table := range slices.Sorted(maps.Keys(res.Persisted)) {
		fmt.Fprintf(w, "  stored:   %s rows=%d\n", table, res.Persisted[table])
	}
}
