package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "sources.movies.file.path"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
//
// Validation runs on the pipeline as given. Call ApplyDefaults first when the
// file is allowed to omit defaulted fields.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource("sources.movies", p.Sources.Movies)...)
	issues = append(issues, validateSource("sources.credits", p.Sources.Credits)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateMerge(p.Merge)...)
	issues = append(issues, validateClean(p.Clean)...)
	issues = append(issues, validateReport(p.Report)...)
	issues = append(issues, validateExport(p.Export)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLogging(p.Logging)...)

	return issues
}

func validateSource(path string, s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  path + ".kind must not be empty",
		})
	}
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		u, err := url.Parse(strings.TrimSpace(s.HTTP.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".http.url",
				Message:  fmt.Sprintf("http source requires an absolute http(s) URL, got %q", s.HTTP.URL),
			})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{SeverityError, path + ".http.max_retries", "max_retries must be >= 0"})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unsupported source kind %q", s.Kind),
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Kind != "csv" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only csv is available", p.Kind),
		})
	}
	if v := p.Options.Any("comma"); v != nil {
		s, ok := v.(string)
		if !ok || len([]rune(s)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.comma",
				Message:  "comma must be a single-character string",
			})
		}
	}
	return issues
}

func validateMerge(m Merge) []Issue {
	var issues []Issue

	if strings.TrimSpace(m.LeftKey) == "" {
		issues = append(issues, Issue{SeverityError, "merge.left_key", "left_key must not be empty"})
	}
	if strings.TrimSpace(m.RightKey) == "" {
		issues = append(issues, Issue{SeverityError, "merge.right_key", "right_key must not be empty"})
	}
	switch m.Duplicates {
	case DuplicatesFirst, DuplicatesFail:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "merge.duplicates",
			Message:  fmt.Sprintf("duplicates=%q; want %q or %q", m.Duplicates, DuplicatesFirst, DuplicatesFail),
		})
	}
	return issues
}

func validateClean(c Clean) []Issue {
	var issues []Issue

	if len(c.DateLayouts) == 0 {
		issues = append(issues, Issue{SeverityError, "clean.date_layouts", "at least one date layout is required"})
	}
	for i, l := range c.DateLayouts {
		if strings.TrimSpace(l) == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("clean.date_layouts[%d]", i), "date layout must not be empty"})
		}
	}
	if c.MinFinancial < 0 {
		issues = append(issues, Issue{SeverityError, "clean.min_financial", "min_financial must not be negative"})
	}
	if c.TopBilled < 0 {
		issues = append(issues, Issue{SeverityError, "clean.top_billed", "top_billed must not be negative"})
	}
	return issues
}

func validateReport(r Report) []Issue {
	var issues []Issue

	if r.MinGenreCount < 0 {
		issues = append(issues, Issue{SeverityError, "report.min_genre_count", "min_genre_count must not be negative"})
	}
	if r.MinPersonCount < 0 {
		issues = append(issues, Issue{SeverityError, "report.min_person_count", "min_person_count must not be negative"})
	}
	if r.TopN < 0 {
		issues = append(issues, Issue{SeverityError, "report.top_n", "top_n must not be negative"})
	}
	if r.RatingCountries < 0 {
		issues = append(issues, Issue{SeverityError, "report.rating_countries", "rating_countries must not be negative"})
	}
	if r.YearFrom != 0 && r.YearTo != 0 && r.YearFrom > r.YearTo {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.year_from",
			Message:  fmt.Sprintf("year_from=%d is after year_to=%d", r.YearFrom, r.YearTo),
		})
	}
	return issues
}

func validateExport(e Export) []Issue {
	var issues []Issue

	if e.Dir == "" {
		if len(e.Formats) > 0 {
			issues = append(issues, Issue{SeverityWarning, "export.dir", "formats are set but dir is empty; no files will be written"})
		}
		return issues
	}
	for i, f := range e.Formats {
		switch f {
		case "csv", "json", "xlsx":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("export.formats[%d]", i),
				Message:  fmt.Sprintf("unknown export format %q; want csv, json or xlsx", f),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "", "none":
		return nil
	case "postgres", "mysql", "mssql", "sqlite":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "storage.db.dsn must not be empty"})
	}
	if s.DB.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; non-positive batch sizes fall back to one row per batch", s.DB.BatchSize),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", MetricsNone:
		return nil
	case MetricsPushgateway:
		if m.PushgatewayURL == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url"}}
		}
	case MetricsDatadog:
		if m.DatadogAddr == "" {
			return []Issue{{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"}}
		}
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend),
		}}
	}
	return nil
}

func validateLogging(l Logging) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, Issue{SeverityError, "logging.level", fmt.Sprintf("unknown level %q", l.Level)})
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		issues = append(issues, Issue{SeverityError, "logging.format", fmt.Sprintf("unknown format %q", l.Format)})
	}
	return issues
}
