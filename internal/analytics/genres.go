package analytics

import (
	"sort"

	"tmdbetl/internal/movie"
)

// GenreStat summarizes one genre.
type GenreStat struct {
	Genre string `json:"genre"`
	// Count includes every movie tagged with the genre.
	Count int `json:"count"`
	// FinancialCount is the number of movies contributing to money figures.
	FinancialCount int     `json:"financial_count"`
	TotalRevenue   int64   `json:"total_revenue"`
	AvgRevenue     float64 `json:"avg_revenue"`
	AvgBudget      float64 `json:"avg_budget"`
	AvgROI         float64 `json:"avg_roi"`
	AvgVote        float64 `json:"avg_vote"`
}

type genreAcc struct {
	count   int
	revenue []int64
	budget  []int64
	roi     []float64
	votes   []float64
}

func genreStats(movies []movie.Movie, opts Options) []GenreStat {
	acc := map[string]*genreAcc{}
	for i := range movies {
		m := &movies[i]
		roi, financial := m.ROI()
		for _, g := range m.Genres {
			a := acc[g]
			if a == nil {
				a = &genreAcc{}
				acc[g] = a
			}
			a.count++
			if m.VoteAverage != nil {
				a.votes = append(a.votes, *m.VoteAverage)
			}
			if financial {
				a.revenue = append(a.revenue, *m.Revenue)
				a.budget = append(a.budget, *m.Budget)
				a.roi = append(a.roi, roi)
			}
		}
	}

	out := make([]GenreStat, 0, len(acc))
	for g, a := range acc {
		if a.count < opts.MinGenreCount {
			continue
		}
		out = append(out, GenreStat{
			Genre:          g,
			Count:          a.count,
			FinancialCount: len(a.revenue),
			TotalRevenue:   sumInt(a.revenue),
			AvgRevenue:     meanInt(a.revenue),
			AvgBudget:      meanInt(a.budget),
			AvgROI:         mean(a.roi),
			AvgVote:        mean(a.votes),
		})
	}
	return out
}

// Genres ranks genres by total revenue desc, then count desc, then name.
func Genres(movies []movie.Movie, opts Options) []GenreStat {
	out := genreStats(movies, opts)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Genre < b.Genre
	})
	return out
}

// GenresByROI ranks genres with at least one financial movie by average ROI
// desc, then name.
func GenresByROI(movies []movie.Movie, opts Options) []GenreStat {
	all := genreStats(movies, opts)
	out := all[:0]
	for _, g := range all {
		if g.FinancialCount > 0 {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgROI != out[j].AvgROI {
			return out[i].AvgROI > out[j].AvgROI
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}
