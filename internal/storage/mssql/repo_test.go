package mssql

import (
	"context"
	"strings"
	"testing"

	"tmdbetl/internal/storage"
)

func TestMsIdent(t *testing.T) {
	cases := map[string]string{
		"movies":  "[movies]",
		"we]ird":  "[we]]ird]",
		"dbo.x":   "[dbo.x]",
		"[inner]": "[[inner]]]",
	}
	for in, want := range cases {
		if got := msIdent(in); got != want {
			t.Errorf("msIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCopyInTarget(t *testing.T) {
	if got := copyInTarget("dbo.tmdb_movies"); got != "[dbo].[tmdb_movies]" {
		t.Fatalf("copyInTarget = %q", got)
	}
	if got := copyInTarget("tmdb_runs"); got != "[tmdb_runs]" {
		t.Fatalf("copyInTarget = %q", got)
	}
}

func TestBulkOptions(t *testing.T) {
	opts := (&Repository{cfg: Config{KeepNulls: true}}).bulkOptions()
	if !opts.KeepNulls || !opts.Tablock {
		t.Fatalf("opts = %+v", opts)
	}
}

// TestBuildCreateTableSQL checks the OBJECT_ID guard and bracket quoting.
func TestBuildCreateTableSQL(t *testing.T) {
	td, err := Dialect.FromKinds("dbo.tmdb_runs", []string{"run_id", "started_at", "avg_vote"}, []string{"text", "timestamp", "float"}, "run_id")
	if err != nil {
		t.Fatalf("FromKinds: %v", err)
	}
	got, err := BuildCreateTableSQL(td)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	for _, want := range []string{
		"IF OBJECT_ID(N'[dbo].[tmdb_runs]', N'U') IS NULL\nCREATE TABLE [dbo].[tmdb_runs] (",
		"[run_id] NVARCHAR(MAX) NOT NULL",
		"[started_at] DATETIME2,",
		"[avg_vote] FLOAT,",
		"PRIMARY KEY ([run_id])",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("sql missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "IF NOT EXISTS") {
		t.Fatalf("unexpected IF NOT EXISTS:\n%s", got)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	if _, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://host:notaport"}); err == nil {
		t.Fatal("expected DSN parse error")
	}
}

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got Config
	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}
	repo, err := storage.New(context.Background(), storage.Config{Kind: Kind, DSN: "sqlserver://sa:pw@localhost:1433"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if got.DSN != "sqlserver://sa:pw@localhost:1433" {
		t.Fatalf("DSN = %q", got.DSN)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not invoke closeFn")
	}
}
