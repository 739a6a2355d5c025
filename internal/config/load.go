package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for environment overrides (TMDB_MOVIES_PATH, ...).
const EnvPrefix = "TMDB"

// Env holds the overrides read from the environment. Empty fields leave the
// file value alone.
type Env struct {
	Job            string `envconfig:"JOB"`
	MoviesPath     string `envconfig:"MOVIES_PATH"`
	CreditsPath    string `envconfig:"CREDITS_PATH"`
	StorageKind    string `envconfig:"STORAGE_KIND"`
	StorageDSN     string `envconfig:"STORAGE_DSN"`
	ExportDir      string `envconfig:"EXPORT_DIR"`
	MetricsBackend string `envconfig:"METRICS_BACKEND"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	DatadogAddr    string `envconfig:"DATADOG_ADDR"`
	ServerAddr     string `envconfig:"SERVER_ADDR"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFormat      string `envconfig:"LOG_FORMAT"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already set win. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads a pipeline file, applies environment overrides and fills
// defaults. Files ending in .yaml or .yml are decoded as YAML, everything
// else as JSON.
func Load(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config %s: %w", path, err)
	}
	p, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Pipeline{}, fmt.Errorf("read env overrides: %w", err)
	}
	ApplyEnv(&p, env)
	p.ApplyDefaults()
	return p, nil
}

// Decode parses pipeline bytes. ext selects the format (".yaml", ".yml" or
// anything else for JSON). Unknown JSON fields are rejected.
func Decode(data []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &p); err != nil {
			return Pipeline{}, err
		}
		if p.Parser.Options == nil {
			p.Parser.Options = Options{}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	}
	return p, nil
}

// ApplyEnv copies non-empty overrides onto p.
func ApplyEnv(p *Pipeline, env Env) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Job, env.Job)
	set(&p.Sources.Movies.File.Path, env.MoviesPath)
	set(&p.Sources.Credits.File.Path, env.CreditsPath)
	set(&p.Storage.Kind, env.StorageKind)
	set(&p.Storage.DB.DSN, env.StorageDSN)
	set(&p.Export.Dir, env.ExportDir)
	set(&p.Metrics.Backend, env.MetricsBackend)
	set(&p.Metrics.PushgatewayURL, env.PushgatewayURL)
	set(&p.Metrics.DatadogAddr, env.DatadogAddr)
	set(&p.Server.Addr, env.ServerAddr)
	set(&p.Logging.Level, env.LogLevel)
	set(&p.Logging.Format, env.LogFormat)
}
