package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tmdbetl/internal/analytics"
	"tmdbetl/internal/movie"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func sample() []movie.Movie {
	d := time.Date(2009, 12, 10, 0, 0, 0, 0, time.UTC)
	return []movie.Movie{
		{
			ID: "19995", Title: "Avatar", Budget: i64(1000), Revenue: i64(5000), ReleaseDate: &d,
			Genres: []string{"Action", "Adventure"}, VoteAverage: f64(7.2), Popularity: f64(150.4),
			ProductionCountries: []string{"United States of America"},
			Cast:                []movie.CastMember{{Name: "Sam Worthington"}},
			Crew:                []movie.CrewMember{{Name: "James Cameron", Job: "Director"}},
		},
		{
			ID: "2", Title: "No Budget", Revenue: i64(3000), Genres: []string{"Action"}, VoteAverage: f64(6),
		},
	}
}

func TestBuild_AppliesFilterAndIsDeterministic(t *testing.T) {
	opts := analytics.Options{TopN: 10, RatingCountries: 15}
	all := Build(sample(), opts, analytics.Filter{})
	assert.Equal(t, 2, all.KPIs.Movies)
	require.NotEmpty(t, all.Genres)
	assert.Equal(t, "Action", all.Genres[0].Genre)
	assert.Equal(t, 2, all.Genres[0].Count)

	again := Build(sample(), opts, analytics.Filter{})
	assert.Equal(t, all, again)

	adv := Build(sample(), opts, analytics.Filter{Genres: []string{"adventure"}})
	assert.Equal(t, 1, adv.KPIs.Movies)
}

func TestDatasets_Shape(t *testing.T) {
	rep := Build(sample(), analytics.Options{}, analytics.Filter{})
	ds := rep.Datasets(sample())

	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
		require.Len(t, d.Kinds, len(d.Columns), d.Name)
		for _, row := range d.Rows {
			require.Len(t, row, len(d.Columns), d.Name)
		}
	}
	assert.Equal(t, []string{
		DatasetMovies, DatasetKPIs, DatasetGenres, DatasetGenresByROI, DatasetYears,
		DatasetDirectors, DatasetActors, DatasetCountries, DatasetCountryRatings, DatasetCorrelation,
	}, names)

	movies := ds[0]
	assert.Equal(t, "19995", movies.Rows[0][0])
	assert.Equal(t, 5.0, movies.Rows[0][4])
	assert.Equal(t, "Action|Adventure", movies.Rows[0][11])
	assert.Nil(t, movies.Rows[1][2], "missing budget stays nil")
	assert.Nil(t, movies.Rows[1][4], "no ROI without budget")

	assert.Len(t, ds[len(ds)-1].Rows, 16, "4x4 correlation matrix")
	assert.Len(t, rep.Datasets(nil), 9)
}

func TestFormatCell(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{3, "3"},
		{int64(2787965087), "2787965087"},
		{5.0, "5"},
		{0.125, "0.125"},
		{time.Date(2009, 12, 10, 0, 0, 0, 0, time.UTC), "2009-12-10"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatCell(tc.in))
	}
}

func TestExporter_WritesAllFormats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	rep := Build(sample(), analytics.Options{}, analytics.Filter{})
	ds := rep.Datasets(sample())

	paths, err := NewExporter(dir, []string{FormatCSV, FormatJSON, FormatXLSX}, nil).Export(context.Background(), rep, ds)
	require.NoError(t, err)
	assert.Len(t, paths, len(ds)+2)

	// CSV
	f, err := os.Open(filepath.Join(dir, "genres.csv"))
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"genre", "count", "financial_count", "total_revenue", "avg_revenue", "avg_budget", "avg_roi", "avg_vote"}, recs[0])
	assert.Equal(t, "Action", recs[1][0])
	assert.Equal(t, "2", recs[1][1])

	// JSON
	b, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var back Report
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rep.KPIs, back.KPIs)

	// XLSX
	x, err := excelize.OpenFile(filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)
	defer x.Close()
	assert.Equal(t, DatasetMovies, x.GetSheetName(0))
	v, err := x.GetCellValue(DatasetKPIs, "A1")
	require.NoError(t, err)
	assert.Equal(t, "movies", v)
	v, err = x.GetCellValue(DatasetKPIs, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestExporter_UnknownFormat(t *testing.T) {
	_, err := NewExporter(t.TempDir(), []string{"pdf"}, nil).Export(context.Background(), Report{}, nil)
	assert.ErrorContains(t, err, `unknown format "pdf"`)
}
