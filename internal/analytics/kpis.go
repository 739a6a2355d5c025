package analytics

import "tmdbetl/internal/movie"

// KPIs are the headline totals for a record set.
type KPIs struct {
	Movies       int     `json:"movies"`
	Financial    int     `json:"financial"`
	TotalRevenue int64   `json:"total_revenue"`
	AvgBudget    float64 `json:"avg_budget"`
	AvgRevenue   float64 `json:"avg_revenue"`
	AvgROI       float64 `json:"avg_roi"`
	AvgVote      float64 `json:"avg_vote"`
}

// ComputeKPIs returns the headline totals.
func ComputeKPIs(movies []movie.Movie) KPIs {
	var budget, revenue []int64
	var roi, votes []float64
	for i := range movies {
		m := &movies[i]
		if m.VoteAverage != nil {
			votes = append(votes, *m.VoteAverage)
		}
		if r, ok := m.ROI(); ok {
			budget = append(budget, *m.Budget)
			revenue = append(revenue, *m.Revenue)
			roi = append(roi, r)
		}
	}
	return KPIs{
		Movies:       len(movies),
		Financial:    len(budget),
		TotalRevenue: sumInt(revenue),
		AvgBudget:    meanInt(budget),
		AvgRevenue:   meanInt(revenue),
		AvgROI:       mean(roi),
		AvgVote:      mean(votes),
	}
}
