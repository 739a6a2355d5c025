// Package config defines the canonical configuration model for the TMDB
// pipeline. A pipeline file is JSON (or YAML, chosen by extension) and maps
// one-to-one onto the structs below, so a pipeline can be loaded from disk and
// passed through the program without glue code.
//
// Example (trimmed):
//
//	{
//	  "job": "tmdb",
//	  "sources": {
//	    "movies":  { "kind": "file", "file": { "path": "data/tmdb_5000_movies.csv" } },
//	    "credits": { "kind": "file", "file": { "path": "data/tmdb_5000_credits.csv" } }
//	  },
//	  "parser":  { "kind": "csv", "options": { "trim_space": true } },
//	  "merge":   { "left_key": "id", "right_key": "movie_id", "duplicates": "first" },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "tmdb.db", "auto_create_table": true } }
//	}
package config

import (
	"encoding/json"
	"fmt"
)

// Default values applied by ApplyDefaults.
const (
	DefaultJob          = "tmdb"
	DefaultLeftKey      = "id"
	DefaultRightKey     = "movie_id"
	DefaultDateLayout   = "2006-01-02"
	DefaultTablePrefix  = "tmdb_"
	DefaultBatchSize    = 500
	DefaultTopN         = 10
	DefaultRatingTop    = 15
	DefaultServerAddr   = ":8080"
	DefaultServerRPS    = 20
	DefaultServerBurst  = 40
	DuplicatesFirst     = "first"
	DuplicatesFail      = "fail"
	MetricsNone         = "none"
	MetricsPushgateway  = "pushgateway"
	MetricsDatadog      = "datadog"
	DefaultPushgateway  = "http://localhost:9091"
	DefaultDatadogAddr  = "127.0.0.1:8125"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultTraceOutput  = "stdout"
	DefaultExportFormat = "csv"
)

// Pipeline describes a full run. It is the top-level object decoded from a
// pipeline file (e.g., configs/pipelines/tmdb.json).
type Pipeline struct {
	// Job names the run for logs and metrics.
	Job string `json:"job" yaml:"job"`

	// Sources locates the two input files.
	Sources Sources `json:"sources" yaml:"sources"`

	// Parser configures how raw bytes become rows (delimiter, trimming).
	Parser Parser `json:"parser" yaml:"parser"`

	Merge   Merge   `json:"merge" yaml:"merge"`
	Clean   Clean   `json:"clean" yaml:"clean"`
	Report  Report  `json:"report" yaml:"report"`
	Export  Export  `json:"export" yaml:"export"`
	Storage Storage `json:"storage" yaml:"storage"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
	Tracing Tracing `json:"tracing" yaml:"tracing"`
	Server  Server  `json:"server" yaml:"server"`
	Logging Logging `json:"logging" yaml:"logging"`
}

// Sources holds the movie metadata file and the credits file.
type Sources struct {
	Movies  Source `json:"movies" yaml:"movies"`
	Credits Source `json:"credits" yaml:"credits"`
}

// Source identifies a data source. Kinds: "file", "http".
type Source struct {
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url" yaml:"url"`

	// TimeoutSeconds bounds each attempt (0 = 30s).
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	// MaxRetries is the number of retries after the first attempt on
	// network errors, 429 and 5xx.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	Headers map[string]string `json:"headers" yaml:"headers"`
}

// Parser selects how to parse the raw source into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), trim_space (bool), lazy_quotes (bool),
	//   header_map (object), drop_exact_duplicates (bool)
	Options Options `json:"options" yaml:"options"`
}

// Merge configures the identifier join.
type Merge struct {
	LeftKey  string `json:"left_key" yaml:"left_key"`
	RightKey string `json:"right_key" yaml:"right_key"`

	// Duplicates is "first" (first occurrence wins) or "fail".
	Duplicates string `json:"duplicates" yaml:"duplicates"`
}

// Clean configures the cleaner's per-column transformations.
type Clean struct {
	// DateLayouts are tried in order when parsing release dates.
	DateLayouts []string `json:"date_layouts" yaml:"date_layouts"`

	// MinFinancial treats budget/revenue values at or below it as missing.
	// Zero keeps the plain "zero means missing" rule.
	MinFinancial int64 `json:"min_financial" yaml:"min_financial"`

	// TopBilled limits how many cast entries count as actors (0 = all).
	TopBilled int `json:"top_billed" yaml:"top_billed"`
}

// Report configures the aggregations.
type Report struct {
	MinGenreCount  int `json:"min_genre_count" yaml:"min_genre_count"`
	MinPersonCount int `json:"min_person_count" yaml:"min_person_count"`
	TopN           int `json:"top_n" yaml:"top_n"`

	// RatingCountries is how many top-volume countries enter the rating view.
	RatingCountries int `json:"rating_countries" yaml:"rating_countries"`

	// Optional filter applied before aggregation.
	Genres   []string `json:"genres" yaml:"genres"`
	YearFrom int      `json:"year_from" yaml:"year_from"`
	YearTo   int      `json:"year_to" yaml:"year_to"`
}

// Export configures report files. An empty Dir disables exports.
type Export struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Formats []string `json:"formats" yaml:"formats"` // csv, json, xlsx
}

// Storage selects the database sink. Kind "" or "none" disables persistence.
type Storage struct {
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is passed to the backend driver unchanged.
	DSN string `json:"dsn" yaml:"dsn"`

	// TablePrefix is prepended to every table name (e.g. "tmdb_movies").
	// Postgres and MSSQL accept a schema-qualified prefix such as "public.tmdb_".
	TablePrefix string `json:"table_prefix" yaml:"table_prefix"`

	// AutoCreateTable creates missing tables before loading.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`

	// BatchSize is the number of rows per bulk insert.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string   `json:"backend" yaml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// Tracing toggles OpenTelemetry spans around pipeline stages.
type Tracing struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Output is "stdout" or a file path for the span exporter.
	Output string `json:"output" yaml:"output"`
}

// Server configures the read-only report API.
type Server struct {
	Addr  string  `json:"addr" yaml:"addr"`
	RPS   float64 `json:"rps" yaml:"rps"`
	Burst int     `json:"burst" yaml:"burst"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// ApplyDefaults fills zero values with defaults. It never overwrites values
// that were set explicitly.
func (p *Pipeline) ApplyDefaults() {
	if p.Job == "" {
		p.Job = DefaultJob
	}
	if p.Sources.Movies.Kind == "" {
		p.Sources.Movies.Kind = "file"
	}
	if p.Sources.Credits.Kind == "" {
		p.Sources.Credits.Kind = "file"
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if p.Merge.LeftKey == "" {
		p.Merge.LeftKey = DefaultLeftKey
	}
	if p.Merge.RightKey == "" {
		p.Merge.RightKey = DefaultRightKey
	}
	if p.Merge.Duplicates == "" {
		p.Merge.Duplicates = DuplicatesFirst
	}
	if len(p.Clean.DateLayouts) == 0 {
		p.Clean.DateLayouts = []string{DefaultDateLayout}
	}
	if p.Report.TopN == 0 {
		p.Report.TopN = DefaultTopN
	}
	if p.Report.RatingCountries == 0 {
		p.Report.RatingCountries = DefaultRatingTop
	}
	if p.Export.Dir != "" && len(p.Export.Formats) == 0 {
		p.Export.Formats = []string{DefaultExportFormat}
	}
	if p.Storage.DB.TablePrefix == "" {
		p.Storage.DB.TablePrefix = DefaultTablePrefix
	}
	if p.Storage.DB.BatchSize == 0 {
		p.Storage.DB.BatchSize = DefaultBatchSize
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = MetricsNone
	}
	if p.Metrics.Backend == MetricsPushgateway && p.Metrics.PushgatewayURL == "" {
		p.Metrics.PushgatewayURL = DefaultPushgateway
	}
	if p.Metrics.Backend == MetricsDatadog && p.Metrics.DatadogAddr == "" {
		p.Metrics.DatadogAddr = DefaultDatadogAddr
	}
	if p.Tracing.Output == "" {
		p.Tracing.Output = DefaultTraceOutput
	}
	if p.Server.Addr == "" {
		p.Server.Addr = DefaultServerAddr
	}
	if p.Server.RPS == 0 {
		p.Server.RPS = DefaultServerRPS
	}
	if p.Server.Burst == 0 {
		p.Server.Burst = DefaultServerBurst
	}
	if p.Logging.Level == "" {
		p.Logging.Level = DefaultLogLevel
	}
	if p.Logging.Format == "" {
		p.Logging.Format = DefaultLogFormat
	}
}

// StorageEnabled reports whether a database sink is configured.
func (p Pipeline) StorageEnabled() bool {
	return p.Storage.Kind != "" && p.Storage.Kind != "none"
}

// Options is a small helper to fetch typed values from arbitrary maps without
// introducing a schema per parser. It performs only minimal type coercion and
// returns the provided default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. YAML objects (map[any]any) are accepted too.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	v, ok := o[key]
	if !ok {
		return res
	}
	switch m := v.(type) {
	case map[string]any:
		for k, vv := range m {
			if s, ok := vv.(string); ok {
				res[k] = s
			}
		}
	case map[any]any:
		for k, vv := range m {
			ks, kok := k.(string)
			s, vok := vv.(string)
			if kok && vok {
				res[ks] = s
			}
		}
	case map[string]string:
		for k, vv := range m {
			res[k] = vv
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null "options" object decode to an empty,
// non-nil Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	*o = Options(tmp)
	return nil
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}
