package report

import (
	"strings"

	"tmdbetl/internal/analytics"
	"tmdbetl/internal/movie"
)

// Dataset is one flat table of a report: a name, a header and rows of scalar
// values (string, int, int64, float64, time.Time or nil). Kinds holds the
// logical type of each column, used when a database table is created.
type Dataset struct {
	Name    string
	Columns []string
	Kinds   []string
	Rows    [][]any
}

// Logical column kinds.
const (
	KindText  = "text"
	KindInt   = "int"
	KindFloat = "float"
	KindDate  = "date"
)

// Dataset names, also used as file and table name suffixes.
const (
	DatasetMovies         = "movies"
	DatasetKPIs           = "kpis"
	DatasetGenres         = "genres"
	DatasetGenresByROI    = "genres_roi"
	DatasetYears          = "years"
	DatasetDirectors      = "directors"
	DatasetActors         = "actors"
	DatasetCountries      = "countries"
	DatasetCountryRatings = "country_ratings"
	DatasetCorrelation    = "correlation"
)

// listSep joins list fields when flattened into one cell.
const listSep = "|"

// Datasets flattens the report. When movies is non-nil a per-movie dataset
// is included first.
func (r Report) Datasets(movies []movie.Movie) []Dataset {
	var out []Dataset
	if movies != nil {
		out = append(out, MoviesDataset(movies))
	}

	k := r.KPIs
	out = append(out, Dataset{
		Name:    DatasetKPIs,
		Columns: []string{"movies", "financial", "total_revenue", "avg_budget", "avg_revenue", "avg_roi", "avg_vote"},
		Kinds:   []string{KindInt, KindInt, KindInt, KindFloat, KindFloat, KindFloat, KindFloat},
		Rows:    [][]any{{k.Movies, k.Financial, k.TotalRevenue, k.AvgBudget, k.AvgRevenue, k.AvgROI, k.AvgVote}},
	})

	genreCols := []string{"genre", "count", "financial_count", "total_revenue", "avg_revenue", "avg_budget", "avg_roi", "avg_vote"}
	genreKinds := []string{KindText, KindInt, KindInt, KindInt, KindFloat, KindFloat, KindFloat, KindFloat}
	for _, g := range []struct {
		name string
		src  []analytics.GenreStat
	}{
		{DatasetGenres, r.Genres},
		{DatasetGenresByROI, r.GenresByROI},
	} {
		ds := Dataset{Name: g.name, Columns: genreCols, Kinds: genreKinds}
		for _, s := range g.src {
			ds.Rows = append(ds.Rows, []any{s.Genre, s.Count, s.FinancialCount, s.TotalRevenue, s.AvgRevenue, s.AvgBudget, s.AvgROI, s.AvgVote})
		}
		out = append(out, ds)
	}

	years := Dataset{
		Name:    DatasetYears,
		Columns: []string{"year", "count", "financial_count", "avg_budget", "avg_revenue", "avg_profit", "avg_vote"},
		Kinds:   []string{KindInt, KindInt, KindInt, KindFloat, KindFloat, KindFloat, KindFloat},
	}
	for _, y := range r.Years {
		years.Rows = append(years.Rows, []any{y.Year, y.Count, y.FinancialCount, y.AvgBudget, y.AvgRevenue, y.AvgProfit, y.AvgVote})
	}
	out = append(out, years)

	personCols := []string{"name", "count", "financial_count", "total_revenue", "avg_vote"}
	personKinds := []string{KindText, KindInt, KindInt, KindInt, KindFloat}
	for _, p := range []struct {
		name string
		src  []analytics.PersonStat
	}{
		{DatasetDirectors, r.Directors},
		{DatasetActors, r.Actors},
	} {
		ds := Dataset{Name: p.name, Columns: personCols, Kinds: personKinds}
		for _, s := range p.src {
			ds.Rows = append(ds.Rows, []any{s.Name, s.Count, s.FinancialCount, s.TotalRevenue, s.AvgVote})
		}
		out = append(out, ds)
	}

	countryCols := []string{"country", "count", "rated", "avg_vote"}
	countryKinds := []string{KindText, KindInt, KindInt, KindFloat}
	for _, c := range []struct {
		name string
		src  []analytics.CountryStat
	}{
		{DatasetCountries, r.Countries},
		{DatasetCountryRatings, r.CountryRatings},
	} {
		ds := Dataset{Name: c.name, Columns: countryCols, Kinds: countryKinds}
		for _, s := range c.src {
			ds.Rows = append(ds.Rows, []any{s.Country, s.Count, s.Rated, s.AvgVote})
		}
		out = append(out, ds)
	}

	corr := Dataset{
		Name:    DatasetCorrelation,
		Columns: []string{"field_a", "field_b", "pearson", "pairs"},
		Kinds:   []string{KindText, KindText, KindFloat, KindInt},
	}
	for i, a := range r.Correlation.Fields {
		for j, b := range r.Correlation.Fields {
			var v any
			if p := r.Correlation.Values[i][j]; p != nil {
				v = *p
			}
			corr.Rows = append(corr.Rows, []any{a, b, v, r.Correlation.N[i][j]})
		}
	}
	out = append(out, corr)
	return out
}

// MoviesDataset flattens cleaned records. List fields are joined with "|";
// missing values are nil.
func MoviesDataset(movies []movie.Movie) Dataset {
	ds := Dataset{
		Name: DatasetMovies,
		Columns: []string{
			"id", "title", "budget", "revenue", "roi", "release_date", "year",
			"runtime", "vote_average", "vote_count", "popularity",
			"genres", "production_countries", "directors", "top_cast",
		},
		Kinds: []string{
			KindText, KindText, KindInt, KindInt, KindFloat, KindDate, KindInt,
			KindFloat, KindFloat, KindInt, KindFloat,
			KindText, KindText, KindText, KindText,
		},
		Rows: make([][]any, 0, len(movies)),
	}
	for i := range movies {
		m := &movies[i]
		var roi, year, date any
		if v, ok := m.ROI(); ok {
			roi = v
		}
		if y, ok := m.Year(); ok {
			year = y
			date = *m.ReleaseDate
		}
		ds.Rows = append(ds.Rows, []any{
			m.ID, m.Title, deref(m.Budget), deref(m.Revenue), roi, date, year,
			deref(m.Runtime), deref(m.VoteAverage), deref(m.VoteCount), deref(m.Popularity),
			strings.Join(m.Genres, listSep),
			strings.Join(m.ProductionCountries, listSep),
			strings.Join(m.Directors(), listSep),
			strings.Join(m.Actors(5), listSep),
		})
	}
	return ds
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
