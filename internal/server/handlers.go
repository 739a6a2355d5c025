package server

import (
	"net/http"

	"github.com/go-chi/render"

	"tmdbetl/internal/analytics"
	"tmdbetl/internal/movie"
)

// Health is the /health body.
type Health struct {
	Status string `json:"status"`
	Movies int    `json:"movies"`
}

// listResponse wraps a ranked view with the filter that produced it.
type listResponse[T any] struct {
	Filter analytics.Filter `json:"filter"`
	Total  int              `json:"total"`
	Items  []T              `json:"items"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Health{Status: "ok", Movies: len(s.movies)})
}

// selection parses the query and applies its filter.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) (Query, analytics.Filter, []movie.Movie, bool) {
	q, apiErr := s.parseQuery(r)
	if apiErr != nil {
		writeError(w, r, apiErr)
		return Query{}, analytics.Filter{}, nil, false
	}
	f := q.Filter(s.base)
	return q, f, f.Apply(s.movies), true
}

// ranked returns the view thresholds without TopN so a ranking is computed
// in full and total counts every entry.
func (s *Server) ranked() analytics.Options {
	o := s.opts
	o.TopN = 0
	return o
}

// rankLimit is the page size of a people or country ranking: limit when
// given, report.top_n otherwise.
func (s *Server) rankLimit(q Query) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return s.opts.TopN
}

func respondList[T any](w http.ResponseWriter, r *http.Request, f analytics.Filter, items []T, limit int) {
	total := len(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []T{}
	}
	render.JSON(w, r, listResponse[T]{Filter: f, Total: total, Items: items})
}

func (s *Server) kpis(w http.ResponseWriter, r *http.Request) {
	_, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, struct {
		Filter analytics.Filter `json:"filter"`
		analytics.KPIs
	}{f, analytics.ComputeKPIs(sel)})
}

func (s *Server) genres(w http.ResponseWriter, r *http.Request) {
	q, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondList(w, r, f, analytics.Genres(sel, s.opts), q.Limit)
}

func (s *Server) genresByROI(w http.ResponseWriter, r *http.Request) {
	q, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondList(w, r, f, analytics.GenresByROI(sel, s.opts), q.Limit)
}

func (s *Server) years(w http.ResponseWriter, r *http.Request) {
	q, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondList(w, r, f, analytics.Years(sel), q.Limit)
}

func (s *Server) directors(w http.ResponseWriter, r *http.Request) {
	q, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondList(w, r, f, analytics.Directors(sel, s.ranked()), s.rankLimit(q))
}

func (s *Server) actors(w http.ResponseWriter, r *http.Request) {
	q, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondList(w, r, f, analytics.Actors(sel, s.ranked()), s.rankLimit(q))
}

func (s *Server) countries(w http.ResponseWriter, r *http.Request) {
	q, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondList(w, r, f, analytics.Countries(sel, s.ranked()), s.rankLimit(q))
}

func (s *Server) countryRatings(w http.ResponseWriter, r *http.Request) {
	q, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondList(w, r, f, analytics.CountryRatings(sel, s.ranked()), s.rankLimit(q))
}

func (s *Server) correlation(w http.ResponseWriter, r *http.Request) {
	_, f, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, struct {
		Filter analytics.Filter `json:"filter"`
		analytics.Correlation
	}{f, analytics.Correlate(sel)})
}
