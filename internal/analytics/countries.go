package analytics

import (
	"sort"

	"tmdbetl/internal/movie"
)

// CountryStat summarizes one production country. A movie counts once for
// each of its production countries.
type CountryStat struct {
	Country string  `json:"country"`
	Count   int     `json:"count"`
	Rated   int     `json:"rated"`
	AvgVote float64 `json:"avg_vote"`
}

func countryStats(movies []movie.Movie) []CountryStat {
	type acc struct {
		count int
		votes []float64
	}
	by := map[string]*acc{}
	for i := range movies {
		m := &movies[i]
		seen := map[string]struct{}{}
		for _, c := range m.ProductionCountries {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			a := by[c]
			if a == nil {
				a = &acc{}
				by[c] = a
			}
			a.count++
			if m.VoteAverage != nil {
				a.votes = append(a.votes, *m.VoteAverage)
			}
		}
	}
	out := make([]CountryStat, 0, len(by))
	for c, a := range by {
		out = append(out, CountryStat{Country: c, Count: a.count, Rated: len(a.votes), AvgVote: mean(a.votes)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// Countries ranks production countries by movie count desc, then name.
func Countries(movies []movie.Movie, opts Options) []CountryStat {
	return truncate(countryStats(movies), opts.TopN)
}

// CountryRatings takes the opts.RatingCountries highest-volume countries and
// ranks them by average vote desc, then name. Countries without any rated
// movie are left out.
func CountryRatings(movies []movie.Movie, opts Options) []CountryStat {
	top := truncate(countryStats(movies), opts.RatingCountries)
	out := make([]CountryStat, 0, len(top))
	for _, c := range top {
		if c.Rated > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgVote != out[j].AvgVote {
			return out[i].AvgVote > out[j].AvgVote
		}
		return out[i].Country < out[j].Country
	})
	return out
}
