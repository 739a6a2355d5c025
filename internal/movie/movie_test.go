package movie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64 { return &v }

func TestMovie_FinancialAndROI(t *testing.T) {
	cases := []struct {
		name      string
		m         Movie
		financial bool
		roi       float64
		profit    int64
	}{
		{"both known", Movie{Budget: i64(1000), Revenue: i64(5000)}, true, 5.0, 4000},
		{"missing budget", Movie{Revenue: i64(3000)}, false, 0, 0},
		{"missing revenue", Movie{Budget: i64(10)}, false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.financial, tc.m.Financial())
			roi, ok := tc.m.ROI()
			assert.Equal(t, tc.financial, ok)
			assert.InDelta(t, tc.roi, roi, 1e-9)
			p, ok := tc.m.Profit()
			assert.Equal(t, tc.financial, ok)
			assert.Equal(t, tc.profit, p)
		})
	}
}

func TestMovie_Year(t *testing.T) {
	d := time.Date(2009, 12, 10, 0, 0, 0, 0, time.UTC)
	y, ok := (&Movie{ReleaseDate: &d}).Year()
	assert.True(t, ok)
	assert.Equal(t, 2009, y)
	_, ok = (&Movie{}).Year()
	assert.False(t, ok)
}

func TestMovie_People(t *testing.T) {
	m := Movie{
		Cast: []CastMember{{"Sam", "Jake", 0}, {"Zoe", "Neytiri", 1}, {"Sam", "Jake (voice)", 2}, {"Sigourney", "Grace", 3}},
		Crew: []CrewMember{
			{"James Cameron", "Director", "Directing"},
			{"James Cameron", "Writer", "Writing"},
			{"Jon Landau", "Producer", "Production"},
			{"James Cameron", "Director", "Directing"},
			{"Co Director", "Director", "Directing"},
		},
	}
	assert.Equal(t, []string{"James Cameron", "Co Director"}, m.Directors())
	assert.Equal(t, []string{"Sam", "Zoe"}, m.Actors(2))
	assert.Equal(t, []string{"Sam", "Zoe", "Sigourney"}, m.Actors(0))
	assert.Nil(t, (&Movie{}).Directors())
}

func TestMovie_HasGenre(t *testing.T) {
	m := Movie{Genres: []string{"Action", "Adventure"}}
	assert.True(t, m.HasGenre("Adventure"))
	assert.False(t, m.HasGenre("Drama"))
}
