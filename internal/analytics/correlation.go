package analytics

import (
	"math"
	"sort"

	"tmdbetl/internal/movie"
)

// CorrelationFields are the variables of the correlation matrix, in order.
var CorrelationFields = []string{"budget", "revenue", "vote_average", "popularity"}

// Correlation is a symmetric Pearson matrix. Values[i][j] is nil when fewer
// than two complete pairs exist or a variable has zero variance; N[i][j] is
// the number of pairs used.
type Correlation struct {
	Fields []string     `json:"fields"`
	Values [][]*float64 `json:"values"`
	N      [][]int      `json:"n"`
}

// At returns the coefficient for fields a and b.
func (c Correlation) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, f := range c.Fields {
		if f == a {
			ia = i
		}
		if f == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 || c.Values[ia][ib] == nil {
		return 0, false
	}
	return *c.Values[ia][ib], true
}

// variables extracts the correlation inputs. Budget and revenue are only
// reported for financial records.
func variables(m *movie.Movie) [4]*float64 {
	var v [4]*float64
	if m.Financial() {
		b, r := float64(*m.Budget), float64(*m.Revenue)
		v[0], v[1] = &b, &r
	}
	v[2] = m.VoteAverage
	v[3] = m.Popularity
	return v
}

// Correlate computes pairwise-complete Pearson coefficients.
func Correlate(movies []movie.Movie) Correlation {
	k := len(CorrelationFields)
	c := Correlation{
		Fields: append([]string(nil), CorrelationFields...),
		Values: make([][]*float64, k),
		N:      make([][]int, k),
	}
	rows := make([][4]*float64, len(movies))
	for i := range movies {
		rows[i] = variables(&movies[i])
	}
	for i := 0; i < k; i++ {
		c.Values[i] = make([]*float64, k)
		c.N[i] = make([]int, k)
	}
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			var pairs [][2]float64
			for _, r := range rows {
				if r[i] != nil && r[j] != nil {
					pairs = append(pairs, [2]float64{*r[i], *r[j]})
				}
			}
			c.N[i][j], c.N[j][i] = len(pairs), len(pairs)
			if v, ok := pearson(pairs); ok {
				vi, vj := v, v
				c.Values[i][j], c.Values[j][i] = &vi, &vj
			}
		}
	}
	return c
}

// pearson sorts pairs first so the floating point sums, and therefore the
// result, do not depend on input order.
func pearson(pairs [][2]float64) (float64, bool) {
	n := len(pairs)
	if n < 2 {
		return 0, false
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	var sx, sy float64
	for _, p := range pairs {
		sx += p[0]
		sy += p[1]
	}
	mx, my := sx/float64(n), sy/float64(n)
	var cov, vx, vy float64
	for _, p := range pairs {
		dx, dy := p[0]-mx, p[1]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	r := cov / math.Sqrt(vx*vy)
	// Clamp rounding noise.
	return math.Max(-1, math.Min(1, r)), true
}
