package analytics

import (
	"sort"

	"tmdbetl/internal/movie"
)

// YearStat summarizes one release year.
type YearStat struct {
	Year           int     `json:"year"`
	Count          int     `json:"count"`
	FinancialCount int     `json:"financial_count"`
	AvgBudget      float64 `json:"avg_budget"`
	AvgRevenue     float64 `json:"avg_revenue"`
	AvgProfit      float64 `json:"avg_profit"`
	AvgVote        float64 `json:"avg_vote"`
}

// Years groups dated movies by release year, ascending.
func Years(movies []movie.Movie) []YearStat {
	type acc struct {
		count                   int
		budget, revenue, profit []int64
		votes                   []float64
	}
	by := map[int]*acc{}
	for i := range movies {
		m := &movies[i]
		y, ok := m.Year()
		if !ok {
			continue
		}
		a := by[y]
		if a == nil {
			a = &acc{}
			by[y] = a
		}
		a.count++
		if m.VoteAverage != nil {
			a.votes = append(a.votes, *m.VoteAverage)
		}
		if p, ok := m.Profit(); ok {
			a.budget = append(a.budget, *m.Budget)
			a.revenue = append(a.revenue, *m.Revenue)
			a.profit = append(a.profit, p)
		}
	}

	out := make([]YearStat, 0, len(by))
	for y, a := range by {
		out = append(out, YearStat{
			Year:           y,
			Count:          a.count,
			FinancialCount: len(a.budget),
			AvgBudget:      meanInt(a.budget),
			AvgRevenue:     meanInt(a.revenue),
			AvgProfit:      meanInt(a.profit),
			AvgVote:        mean(a.votes),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
