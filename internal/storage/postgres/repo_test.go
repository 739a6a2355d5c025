package postgres

import (
	"context"
	"errors"
	"slices"
	"testing"

	"tmdbetl/internal/storage"
)

func TestIdentifier(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"tmdb_movies", []string{"tmdb_movies"}},
		{"public.tmdb_movies", []string{"public", "tmdb_movies"}},
		{" public . x ", []string{"public", "x"}},
	}
	for _, tc := range cases {
		if got := identifier(tc.in); !slices.Equal([]string(got), tc.want) {
			t.Errorf("identifier(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMapType(t *testing.T) {
	cases := map[string]string{
		"int":       "BIGINT",
		"float":     "DOUBLE PRECISION",
		"date":      "DATE",
		"timestamp": "TIMESTAMPTZ",
		"text":      "TEXT",
		"":          "TEXT",
	}
	for in, want := range cases {
		if got := MapType(in); got != want {
			t.Errorf("MapType(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRegistrationUsesNewRepositoryHook verifies the factory goes through the
// hook and surfaces its errors.
func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	wantErr := errors.New("boom")
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		if cfg.DSN == "bad" {
			return nil, nil, wantErr
		}
		return &Repository{cfg: cfg}, nil, nil
	}

	if _, err := storage.New(context.Background(), storage.Config{Kind: Kind, DSN: "bad"}); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	repo, err := storage.New(context.Background(), storage.Config{Kind: Kind, DSN: "postgres://localhost/tmdb"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	repo.Close() // nil closeFn is tolerated
}
