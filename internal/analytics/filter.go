package analytics

import (
	"tmdbetl/internal/config"
	"tmdbetl/internal/movie"
	"tmdbetl/internal/transformer/builtin"
)

// Filter narrows the record set before aggregation. Zero values disable each
// criterion.
type Filter struct {
	// Genres keeps movies having at least one of the listed genres. Matching
	// ignores case and accents.
	Genres []string `json:"genres,omitempty"`
	// YearFrom and YearTo bound the release year, inclusive. When either is
	// set, movies without a release date are dropped.
	YearFrom int `json:"year_from,omitempty"`
	YearTo   int `json:"year_to,omitempty"`
}

// FilterFrom reads the filter from the pipeline.
func FilterFrom(r config.Report) Filter {
	return Filter{Genres: r.Genres, YearFrom: r.YearFrom, YearTo: r.YearTo}
}

// Empty reports whether f keeps every record.
func (f Filter) Empty() bool {
	return len(f.Genres) == 0 && f.YearFrom == 0 && f.YearTo == 0
}

// Apply returns the records matching f, in input order.
func (f Filter) Apply(movies []movie.Movie) []movie.Movie {
	if f.Empty() {
		return movies
	}
	want := make(map[string]struct{}, len(f.Genres))
	for _, g := range f.Genres {
		if k := builtin.Fold(g); k != "" {
			want[k] = struct{}{}
		}
	}

	out := make([]movie.Movie, 0, len(movies))
	for _, m := range movies {
		if len(want) > 0 && !anyGenre(m.Genres, want) {
			continue
		}
		if f.YearFrom != 0 || f.YearTo != 0 {
			y, ok := m.Year()
			if !ok || (f.YearFrom != 0 && y < f.YearFrom) || (f.YearTo != 0 && y > f.YearTo) {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

func anyGenre(genres []string, want map[string]struct{}) bool {
	for _, g := range genres {
		if _, ok := want[builtin.Fold(g)]; ok {
			return true
		}
	}
	return false
}
