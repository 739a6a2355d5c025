package analytics

import (
	"sort"

	"tmdbetl/internal/movie"
)

// PersonStat summarizes one director or actor.
type PersonStat struct {
	Name           string  `json:"name"`
	Count          int     `json:"count"`
	FinancialCount int     `json:"financial_count"`
	TotalRevenue   int64   `json:"total_revenue"`
	AvgVote        float64 `json:"avg_vote"`
}

// Directors ranks every crew member credited as director.
func Directors(movies []movie.Movie, opts Options) []PersonStat {
	return people(movies, opts, func(m *movie.Movie) []string { return m.Directors() })
}

// Actors ranks the top-billed cast members.
func Actors(movies []movie.Movie, opts Options) []PersonStat {
	return people(movies, opts, func(m *movie.Movie) []string { return m.Actors(opts.TopBilled) })
}

// people ranks by total revenue desc, then movie count desc, then name asc.
func people(movies []movie.Movie, opts Options, names func(*movie.Movie) []string) []PersonStat {
	type acc struct {
		count   int
		revenue []int64
		votes   []float64
	}
	by := map[string]*acc{}
	for i := range movies {
		m := &movies[i]
		for _, n := range names(m) {
			a := by[n]
			if a == nil {
				a = &acc{}
				by[n] = a
			}
			a.count++
			if m.VoteAverage != nil {
				a.votes = append(a.votes, *m.VoteAverage)
			}
			if m.Financial() {
				a.revenue = append(a.revenue, *m.Revenue)
			}
		}
	}

	out := make([]PersonStat, 0, len(by))
	for n, a := range by {
		if a.count < opts.MinPersonCount {
			continue
		}
		out = append(out, PersonStat{
			Name:           n,
			Count:          a.count,
			FinancialCount: len(a.revenue),
			TotalRevenue:   sumInt(a.revenue),
			AvgVote:        mean(a.votes),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	return truncate(out, opts.TopN)
}
