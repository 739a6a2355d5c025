package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline() Pipeline {
	p := Pipeline{
		Job: "tmdb",
		Sources: Sources{
			Movies:  Source{Kind: "file", File: SourceFile{Path: "movies.csv"}},
			Credits: Source{Kind: "file", File: SourceFile{Path: "credits.csv"}},
		},
		Storage: Storage{Kind: "sqlite", DB: DBConfig{DSN: "file::memory:"}},
	}
	p.ApplyDefaults()
	return p
}

/*
TestValidatePipeline_ValidMinimal verifies that a well-formed pipeline produces
no issues.
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidatePipeline_Findings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Pipeline)
		sev    IssueSeverity
		path   string
		substr string
	}{
		{"empty job", func(p *Pipeline) { p.Job = " " }, SeverityError, "job", "job must not be empty"},
		{"missing movies path", func(p *Pipeline) { p.Sources.Movies.File.Path = "" }, SeverityError, "sources.movies.file.path", "non-empty path"},
		{"unknown source kind", func(p *Pipeline) { p.Sources.Credits.Kind = "s3" }, SeverityError, "sources.credits.kind", "unsupported"},
		{"http without url", func(p *Pipeline) { p.Sources.Movies.Kind = "http" }, SeverityError, "sources.movies.http.url", "absolute"},
		{"http relative url", func(p *Pipeline) {
			p.Sources.Movies = Source{Kind: "http", HTTP: SourceHTTP{URL: "/movies.csv"}}
		}, SeverityError, "sources.movies.http.url", "/movies.csv"},
		{"http negative retries", func(p *Pipeline) {
			p.Sources.Credits = Source{Kind: "http", HTTP: SourceHTTP{URL: "https://example.com/c.csv", MaxRetries: -1}}
		}, SeverityError, "sources.credits.http.max_retries", ">= 0"},
		{"xml parser", func(p *Pipeline) { p.Parser.Kind = "xml" }, SeverityError, "parser.kind", "only csv"},
		{"bad comma", func(p *Pipeline) { p.Parser.Options["comma"] = ";;" }, SeverityError, "parser.options.comma", "single-character"},
		{"bad duplicates", func(p *Pipeline) { p.Merge.Duplicates = "last" }, SeverityError, "merge.duplicates", `"last"`},
		{"negative top_billed", func(p *Pipeline) { p.Clean.TopBilled = -1 }, SeverityError, "clean.top_billed", "negative"},
		{"year range", func(p *Pipeline) { p.Report.YearFrom, p.Report.YearTo = 2010, 2000 }, SeverityError, "report.year_from", "after"},
		{"export format", func(p *Pipeline) { p.Export.Dir = "out"; p.Export.Formats = []string{"pdf"} }, SeverityError, "export.formats[0]", "pdf"},
		{"formats without dir", func(p *Pipeline) { p.Export.Formats = []string{"csv"} }, SeverityWarning, "export.dir", "no files"},
		{"missing dsn", func(p *Pipeline) { p.Storage.DB.DSN = "" }, SeverityError, "storage.db.dsn", "must not be empty"},
		{"unknown storage", func(p *Pipeline) { p.Storage.Kind = "oracle" }, SeverityWarning, "storage.kind", "oracle"},
		{"datadog without addr", func(p *Pipeline) { p.Metrics.Backend = MetricsDatadog }, SeverityError, "metrics.datadog_addr", "requires"},
		{"unknown metrics", func(p *Pipeline) { p.Metrics.Backend = "statsd" }, SeverityError, "metrics.backend", "statsd"},
		{"log level", func(p *Pipeline) { p.Logging.Level = "trace" }, SeverityError, "logging.level", "trace"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := validPipeline()
			tc.mutate(&p)
			issues := ValidatePipeline(p)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.substr) {
				t.Fatalf("want %s at %s containing %q; got %+v", tc.sev, tc.path, tc.substr, issues)
			}
		})
	}
}

func TestValidatePipeline_StorageNoneSkipsDSN(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Storage = Storage{Kind: "none"}
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
	if HasErrors(nil) {
		t.Fatal("HasErrors(nil) = true")
	}
	if !HasErrors([]Issue{{Severity: SeverityError}}) {
		t.Fatal("HasErrors missed an error")
	}
}
