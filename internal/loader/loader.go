// Package loader reads the raw movie and credits files into tables and
// checks that the columns later stages depend on are present.
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"tmdbetl/internal/datasource"
	"tmdbetl/internal/etlerr"
	"tmdbetl/internal/parser/csv"
	"tmdbetl/internal/table"
	"tmdbetl/internal/transformer/builtin"
)

// Input names a logical input and the columns it must carry.
type Input struct {
	Name     string
	Required []string
}

// MoviesInput describes the movie metadata file.
var MoviesInput = Input{
	Name: "movies",
	Required: []string{
		"id", "budget", "revenue", "genres", "release_date",
		"vote_average", "production_countries",
	},
}

// CreditsInput describes the credits file.
var CreditsInput = Input{
	Name:     "credits",
	Required: []string{"movie_id", "cast", "crew"},
}

// Stats summarizes one load.
type Stats struct {
	Rows    int
	Skipped int
	// Duplicates counts rows dropped as exact copies of an earlier row.
	Duplicates int
	// Errors holds the first few skipped-row messages.
	Errors []string
}

// errorLimit caps how many skipped-row messages are kept per load.
const errorLimit = 20

// Loader reads sources with a shared parser.
type Loader struct {
	parser *csv.Parser
	log    *slog.Logger

	// DropExactDuplicates removes rows identical to an earlier row of the
	// same file, so only conflicting duplicates reach the merge policy.
	DropExactDuplicates bool
}

// New returns a Loader. A nil logger discards output.
func New(p *csv.Parser, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{parser: p, log: log}
}

// Load opens src, parses it into a table named in.Name and verifies the
// required columns. A missing file wraps etlerr.ErrSourceNotFound; a missing
// column wraps etlerr.ErrMalformedInput and names the file and column.
func (l *Loader) Load(ctx context.Context, src datasource.Source, in Input) (*table.Table, Stats, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load %s: %w", in.Name, err)
	}
	defer rc.Close()

	agg := etlerr.NewAgg(errorLimit)
	t, skipped, err := l.parser.Parse(ctx, rc, in.Name, func(line int, err error) {
		agg.Add(fmt.Sprintf("line %d: %v", line, err))
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load %s (%s): %w", in.Name, src.Name(), err)
	}

	for _, col := range in.Required {
		if !t.Has(col) {
			return nil, Stats{}, fmt.Errorf("load %s: %w", in.Name, etlerr.MissingColumn(src.Name(), col))
		}
	}

	st := Stats{Skipped: skipped, Errors: agg.First()}
	if l.DropExactDuplicates {
		t.Rows, st.Duplicates = builtin.NewDeDup().Apply(t.Rows)
	}
	st.Rows = t.Len()
	if skipped > 0 {
		l.log.WarnContext(ctx, "skipped malformed rows",
			"source", src.Name(), "skipped", skipped, "first", st.Errors)
	}
	l.log.InfoContext(ctx, "loaded", "table", in.Name, "source", src.Name(),
		"rows", st.Rows, "columns", len(t.Columns), "exact_duplicates", st.Duplicates)
	return t, st, nil
}
