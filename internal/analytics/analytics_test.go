package analytics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmdbetl/internal/movie"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func date(y int) *time.Time {
	d := time.Date(y, 6, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func crew(names ...string) []movie.CrewMember {
	out := make([]movie.CrewMember, len(names))
	for i, n := range names {
		out[i] = movie.CrewMember{Name: n, Job: movie.DirectorJob}
	}
	return out
}

func fixture() []movie.Movie {
	return []movie.Movie{
		{
			ID: "1", Title: "Alpha", Budget: i64(1000), Revenue: i64(5000),
			Genres: []string{"Action"}, ReleaseDate: date(2009), VoteAverage: f64(7), Popularity: f64(10),
			ProductionCountries: []string{"United States of America", "United Kingdom"},
			Cast:                []movie.CastMember{{Name: "Ann", Order: 0}, {Name: "Bob", Order: 1}},
			Crew:                crew("Dee"),
		},
		{
			ID: "2", Title: "Beta", Revenue: i64(3000),
			Genres: []string{"Action", "Drama"}, ReleaseDate: date(2009), VoteAverage: f64(5), Popularity: f64(2),
			ProductionCountries: []string{"United States of America"},
			Cast:                []movie.CastMember{{Name: "Bob", Order: 0}},
			Crew:                crew("Dee", "Eve"),
		},
		{
			ID: "3", Title: "Gamma", Budget: i64(2000), Revenue: i64(2000),
			Genres: []string{"Drama"}, ReleaseDate: date(2012), VoteAverage: f64(8), Popularity: f64(4),
			ProductionCountries: []string{"France"},
			Cast:                []movie.CastMember{{Name: "Cy", Order: 0}, {Name: "Ann", Order: 1}},
			Crew:                crew("Eve"),
		},
		{
			ID: "4", Title: "Delta", Budget: i64(500), Revenue: i64(4000),
			Genres: []string{"Horror"}, VoteAverage: f64(6),
			ProductionCountries: []string{"United Kingdom"},
		},
	}
}

/*
TestGenres_FinancialExclusionKeepsCounts checks the worked example: a movie
missing its budget still counts toward the genre but not toward ROI.
*/
func TestGenres_FinancialExclusionKeepsCounts(t *testing.T) {
	movies := []movie.Movie{
		{ID: "A", Budget: i64(1000), Revenue: i64(5000), Genres: []string{"Action"}},
		{ID: "B", Revenue: i64(3000), Genres: []string{"Action"}},
	}
	got := Genres(movies, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "Action", got[0].Genre)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 1, got[0].FinancialCount)
	assert.InDelta(t, 5.0, got[0].AvgROI, 1e-12)
	assert.Equal(t, int64(5000), got[0].TotalRevenue)
}

func TestGenres_Ranking(t *testing.T) {
	got := Genres(fixture(), Options{})
	names := make([]string, len(got))
	for i, g := range got {
		names[i] = g.Genre
	}
	// Action 5000, Horror 4000, Drama 2000.
	assert.Equal(t, []string{"Action", "Horror", "Drama"}, names)

	roi := GenresByROI(fixture(), Options{})
	require.Len(t, roi, 3)
	assert.Equal(t, "Horror", roi[0].Genre)
	assert.InDelta(t, 8.0, roi[0].AvgROI, 1e-12)
	assert.Equal(t, "Action", roi[1].Genre)
	assert.Equal(t, "Drama", roi[2].Genre)

	frequent := Genres(fixture(), Options{MinGenreCount: 2})
	assert.Len(t, frequent, 2)
}

func TestGenres_InvariantUnderPermutation(t *testing.T) {
	base := fixture()
	// Add enough spread to make float summation order matter.
	for i := 0; i < 200; i++ {
		b := int64(1 + i*7919%1000)
		r := int64(1 + i*104729%100000)
		base = append(base, movie.Movie{ID: "x", Budget: i64(b), Revenue: i64(r), Genres: []string{"Action", "Drama"}, VoteAverage: f64(float64(i%10) / 3)})
	}
	want := GenresByROI(base, Options{})
	wantKPI := ComputeKPIs(base)
	wantCorr := Correlate(base)

	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 20; iter++ {
		perm := append([]movie.Movie(nil), base...)
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		assert.Equal(t, want, GenresByROI(perm, Options{}))
		assert.Equal(t, wantKPI, ComputeKPIs(perm))
		assert.Equal(t, wantCorr, Correlate(perm))
	}
}

func TestYears(t *testing.T) {
	got := Years(fixture())
	require.Len(t, got, 2)
	assert.Equal(t, 2009, got[0].Year)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 1, got[0].FinancialCount)
	assert.InDelta(t, 1000, got[0].AvgBudget, 1e-9)
	assert.InDelta(t, 4000, got[0].AvgProfit, 1e-9)
	assert.InDelta(t, 6, got[0].AvgVote, 1e-9)
	assert.Equal(t, 2012, got[1].Year)
	assert.InDelta(t, 0, got[1].AvgProfit, 1e-9)
}

func TestPeople(t *testing.T) {
	dirs := Directors(fixture(), Options{})
	require.Len(t, dirs, 2)
	// Dee: 5000 over 2 movies; Eve: 2000 over 2 movies.
	assert.Equal(t, PersonStat{Name: "Dee", Count: 2, FinancialCount: 1, TotalRevenue: 5000, AvgVote: 6}, dirs[0])
	assert.Equal(t, "Eve", dirs[1].Name)

	actors := Actors(fixture(), Options{TopBilled: 1})
	names := []string{}
	for _, a := range actors {
		names = append(names, a.Name)
	}
	// Top-billed only: Ann (Alpha), Bob (Beta), Cy (Gamma).
	assert.Equal(t, []string{"Ann", "Cy", "Bob"}, names)

	all := Actors(fixture(), Options{MinPersonCount: 2})
	require.Len(t, all, 2)
	assert.Equal(t, "Ann", all[0].Name)
	assert.Equal(t, int64(7000), all[0].TotalRevenue)
	assert.Equal(t, "Bob", all[1].Name)

	assert.Len(t, Actors(fixture(), Options{TopN: 1}), 1)
}

func TestCountries(t *testing.T) {
	got := Countries(fixture(), Options{})
	require.Len(t, got, 3)
	assert.Equal(t, CountryStat{Country: "United Kingdom", Count: 2, Rated: 2, AvgVote: 6.5}, got[0])
	assert.Equal(t, CountryStat{Country: "United States of America", Count: 2, Rated: 2, AvgVote: 6}, got[1])
	assert.Equal(t, "France", got[2].Country)

	rated := CountryRatings(fixture(), Options{RatingCountries: 2})
	require.Len(t, rated, 2)
	assert.Equal(t, "United Kingdom", rated[0].Country)
	assert.Equal(t, "United States of America", rated[1].Country)
}

func TestComputeKPIs(t *testing.T) {
	k := ComputeKPIs(fixture())
	assert.Equal(t, 4, k.Movies)
	assert.Equal(t, 3, k.Financial)
	assert.Equal(t, int64(11000), k.TotalRevenue)
	assert.InDelta(t, 3500.0/3, k.AvgBudget, 1e-9)
	assert.InDelta(t, (5.0+1.0+8.0)/3, k.AvgROI, 1e-9)
	assert.InDelta(t, 6.5, k.AvgVote, 1e-9)
}

func TestCorrelate(t *testing.T) {
	movies := []movie.Movie{
		{Budget: i64(1), Revenue: i64(2), VoteAverage: f64(1), Popularity: f64(5)},
		{Budget: i64(2), Revenue: i64(4), VoteAverage: f64(2), Popularity: f64(5)},
		{Budget: i64(3), Revenue: i64(6), VoteAverage: f64(3), Popularity: f64(5)},
		{Revenue: i64(100), VoteAverage: f64(4)},
	}
	c := Correlate(movies)

	r, ok := c.At("budget", "revenue")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)
	assert.Equal(t, 3, c.N[0][1], "non-financial record is not a budget/revenue pair")

	r, ok = c.At("vote_average", "budget")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)
	assert.Equal(t, 4, c.N[2][2])

	_, ok = c.At("popularity", "budget")
	assert.False(t, ok, "zero variance has no coefficient")
	_, ok = c.At("runtime", "budget")
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	f := Filter{Genres: []string{"drama", "HORROR"}}
	got := f.Apply(fixture())
	ids := []string{}
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"2", "3", "4"}, ids)

	got = Filter{YearFrom: 2010, YearTo: 2012}.Apply(fixture())
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	got = Filter{YearTo: 2009}.Apply(fixture())
	assert.Len(t, got, 2, "undated movie dropped when a year bound is set")

	assert.Len(t, Filter{}.Apply(fixture()), 4)
	assert.True(t, Filter{}.Empty())
}
