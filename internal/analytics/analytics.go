// Package analytics computes the descriptive summaries over cleaned movie
// records. Every function is pure: it reads the slice it is given and returns
// new values.
//
// Records lacking budget or revenue are counted everywhere but left out of
// money figures (revenue totals, ROI, budget/revenue/profit averages and the
// correlation pairs that involve budget or revenue). Averages are computed
// over sorted inputs so results do not depend on row order.
package analytics

import (
	"sort"

	"tmdbetl/internal/config"
)

// Options holds thresholds shared by the views.
type Options struct {
	// MinGenreCount drops genres with fewer movies.
	MinGenreCount int
	// MinPersonCount drops directors and actors with fewer movies.
	MinPersonCount int
	// TopN truncates people and country rankings; 0 keeps everything.
	TopN int
	// TopBilled is how many cast members count as actors; 0 means all.
	TopBilled int
	// RatingCountries is how many top-volume countries enter the rating view.
	RatingCountries int
}

// OptionsFrom reads thresholds from the pipeline.
func OptionsFrom(r config.Report, c config.Clean) Options {
	return Options{
		MinGenreCount:   r.MinGenreCount,
		MinPersonCount:  r.MinPersonCount,
		TopN:            r.TopN,
		TopBilled:       c.TopBilled,
		RatingCountries: r.RatingCountries,
	}
}

// mean returns the arithmetic mean of xs, summed in ascending order. It
// returns 0 for an empty slice. xs is not modified.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// meanInt returns the mean of integer amounts. The sum is exact in int64
// before the single division.
func meanInt(xs []int64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int64
	for _, v := range xs {
		sum += v
	}
	return float64(sum) / float64(len(xs))
}

func sumInt(xs []int64) int64 {
	var sum int64
	for _, v := range xs {
		sum += v
	}
	return sum
}

func truncate[T any](xs []T, n int) []T {
	if n > 0 && len(xs) > n {
		return xs[:n]
	}
	return xs
}
