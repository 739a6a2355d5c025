// Package report assembles the analytics views into one bundle and writes it
// out as flat datasets (CSV, JSON, XLSX) or hands the datasets to storage.
package report

import (
	"tmdbetl/internal/analytics"
	"tmdbetl/internal/movie"
)

// Report is the full summary of one record set. It carries no timestamps or
// run identifiers, so identical inputs give identical reports.
type Report struct {
	Filter         analytics.Filter        `json:"filter"`
	KPIs           analytics.KPIs          `json:"kpis"`
	Genres         []analytics.GenreStat   `json:"genres"`
	GenresByROI    []analytics.GenreStat   `json:"genres_by_roi"`
	Years          []analytics.YearStat    `json:"years"`
	Directors      []analytics.PersonStat  `json:"directors"`
	Actors         []analytics.PersonStat  `json:"actors"`
	Countries      []analytics.CountryStat `json:"countries"`
	CountryRatings []analytics.CountryStat `json:"country_ratings"`
	Correlation    analytics.Correlation   `json:"correlation"`
}

// Build filters movies and computes every view.
func Build(movies []movie.Movie, opts analytics.Options, f analytics.Filter) Report {
	sel := f.Apply(movies)
	return Report{
		Filter:         f,
		KPIs:           analytics.ComputeKPIs(sel),
		Genres:         analytics.Genres(sel, opts),
		GenresByROI:    analytics.GenresByROI(sel, opts),
		Years:          analytics.Years(sel),
		Directors:      analytics.Directors(sel, opts),
		Actors:         analytics.Actors(sel, opts),
		Countries:      analytics.Countries(sel, opts),
		CountryRatings: analytics.CountryRatings(sel, opts),
		Correlation:    analytics.Correlate(sel),
	}
}
