package transformer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"tmdbetl/internal/etlerr"
	"tmdbetl/internal/movie"
	"tmdbetl/internal/table"
	"tmdbetl/internal/transformer/builtin"
)

// Stats summarizes one cleaning pass.
type Stats struct {
	Rows int

	// Missing counts, per column, values that were blank, invalid or below
	// the financial floor. Missing values are never fatal.
	Missing map[string]int

	// Invalid counts, per column, values that were present but could not be
	// converted. Every invalid value is also counted as missing.
	Invalid map[string]int

	// NonFinancial counts records lacking budget or revenue. They are kept
	// and only left out of money figures.
	NonFinancial int

	// Dropped counts rows without an identifier.
	Dropped int

	// Errors holds the first few conversion failures.
	Errors []string
}

// MissingColumns returns the columns with at least one missing value, sorted.
func (s Stats) MissingColumns() []string {
	out := make([]string, 0, len(s.Missing))
	for c, n := range s.Missing {
		if n > 0 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// valueType is the Go type a Kind produces.
type valueType int

const (
	vtString valueType = iota
	vtInt
	vtFloat
	vtTime
	vtStrings
	vtCast
	vtCrew
)

func (k Kind) valueType() valueType {
	switch k {
	case KindInt, KindMoney:
		return vtInt
	case KindFloat:
		return vtFloat
	case KindDate:
		return vtTime
	case KindNames:
		return vtStrings
	case KindCast:
		return vtCast
	case KindCrew:
		return vtCrew
	default:
		return vtString
	}
}

// binding stores a converted value on the movie.
type binding struct {
	typ valueType
	set func(m *movie.Movie, v any)
}

var bindings = map[string]binding{
	"id":    {vtString, func(m *movie.Movie, v any) { m.ID = v.(string) }},
	"title": {vtString, func(m *movie.Movie, v any) { m.Title = v.(string) }},
	"original_title": {vtString, func(m *movie.Movie, v any) {
		if m.Title == "" {
			m.Title = v.(string)
		}
	}},
	"budget":               {vtInt, func(m *movie.Movie, v any) { n := v.(int64); m.Budget = &n }},
	"revenue":              {vtInt, func(m *movie.Movie, v any) { n := v.(int64); m.Revenue = &n }},
	"vote_count":           {vtInt, func(m *movie.Movie, v any) { n := v.(int64); m.VoteCount = &n }},
	"runtime":              {vtFloat, func(m *movie.Movie, v any) { f := v.(float64); m.Runtime = &f }},
	"vote_average":         {vtFloat, func(m *movie.Movie, v any) { f := v.(float64); m.VoteAverage = &f }},
	"popularity":           {vtFloat, func(m *movie.Movie, v any) { f := v.(float64); m.Popularity = &f }},
	"release_date":         {vtTime, func(m *movie.Movie, v any) { d := v.(time.Time); m.ReleaseDate = &d }},
	"genres":               {vtStrings, func(m *movie.Movie, v any) { m.Genres = v.([]string) }},
	"spoken_languages":     {vtStrings, func(m *movie.Movie, v any) { m.SpokenLanguages = v.([]string) }},
	"production_countries": {vtStrings, func(m *movie.Movie, v any) { m.ProductionCountries = v.([]string) }},
	"production_companies": {vtStrings, func(m *movie.Movie, v any) { m.ProductionCompanies = v.([]string) }},
	"keywords":             {vtStrings, func(m *movie.Movie, v any) { m.Keywords = v.([]string) }},
	"cast":                 {vtCast, func(m *movie.Movie, v any) { m.Cast = v.([]movie.CastMember) }},
	"crew":                 {vtCrew, func(m *movie.Movie, v any) { m.Crew = v.([]movie.CrewMember) }},
}

type compiledRule struct {
	idx    int
	column string
	kind   Kind
	set    func(m *movie.Movie, v any)
}

// Cleaner applies a Plan to merged tables.
type Cleaner struct {
	plan Plan
	log  *slog.Logger
}

// errorLimit caps how many conversion failures are kept verbatim.
const errorLimit = 20

// ctxCheckEvery bounds how many rows are cleaned between context checks.
const ctxCheckEvery = 1024

// New validates plan and returns a Cleaner. Every rule must name a column the
// movie record has a field for, with a kind producing that field's type.
func New(plan Plan, log *slog.Logger) (*Cleaner, error) {
	for _, r := range plan.Rules {
		b, ok := bindings[r.Column]
		if !ok {
			return nil, fmt.Errorf("clean plan: no movie field for column %q", r.Column)
		}
		if r.Kind.valueType() != b.typ {
			return nil, fmt.Errorf("clean plan: column %q cannot take kind %s", r.Column, r.Kind)
		}
	}
	if len(plan.DateLayouts) == 0 {
		return nil, fmt.Errorf("clean plan: no date layouts")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cleaner{plan: plan, log: log}, nil
}

func (c *Cleaner) compile(t *table.Table) []compiledRule {
	out := make([]compiledRule, 0, len(c.plan.Rules))
	for _, r := range c.plan.Rules {
		idx, ok := t.Index(r.Column)
		if !ok {
			continue
		}
		out = append(out, compiledRule{idx: idx, column: r.Column, kind: r.Kind, set: bindings[r.Column].set})
	}
	return out
}

// Clean converts every row of t into a movie record. Per-value failures are
// counted in Stats and leave the field unset; only context cancellation
// aborts the pass. Output order follows the table.
func (c *Cleaner) Clean(ctx context.Context, t *table.Table) ([]movie.Movie, Stats, error) {
	rules := c.compile(t)
	st := Stats{Missing: map[string]int{}, Invalid: map[string]int{}}
	agg := etlerr.NewAgg(errorLimit)

	out := make([]movie.Movie, 0, t.Len())
	for i, row := range t.Rows {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, st, err
			}
		}
		var m movie.Movie
		for _, r := range rules {
			v, err := c.convert(r.kind, row[r.idx])
			if err != nil {
				st.Invalid[r.column]++
				agg.Add(fmt.Sprintf("row %d column %s: %v", i+1, r.column, err))
			}
			if v == nil {
				st.Missing[r.column]++
				continue
			}
			r.set(&m, v)
		}
		if m.ID == "" {
			st.Dropped++
			continue
		}
		if !m.Financial() {
			st.NonFinancial++
		}
		out = append(out, m)
	}
	st.Rows = len(out)
	st.Errors = agg.First()

	if agg.Count() > 0 {
		c.log.WarnContext(ctx, "invalid values treated as missing", "count", agg.Count(), "first", st.Errors)
	}
	c.log.InfoContext(ctx, "cleaned", "rows", st.Rows, "non_financial", st.NonFinancial,
		"dropped", st.Dropped, "missing_columns", st.MissingColumns())
	return out, st, nil
}

// convert returns the typed value, or nil when the value is missing. A
// non-nil error means the value was present but invalid.
func (c *Cleaner) convert(k Kind, s string) (any, error) {
	switch k {
	case KindInt:
		if blank(s) {
			return nil, nil
		}
		v, ok := builtin.ParseInt(s)
		if !ok {
			return nil, fmt.Errorf("not an integer: %q", s)
		}
		return v, nil
	case KindMoney:
		if blank(s) {
			return nil, nil
		}
		if _, ok := builtin.ParseInt(s); !ok {
			return nil, fmt.Errorf("not an amount: %q", s)
		}
		v, ok := builtin.ParseMoney(s, c.plan.MinFinancial)
		if !ok {
			return nil, nil
		}
		return v, nil
	case KindFloat:
		if blank(s) {
			return nil, nil
		}
		v, ok := builtin.ParseFloat(s)
		if !ok {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		return v, nil
	case KindDate:
		if blank(s) {
			return nil, nil
		}
		v, ok := builtin.ParseDate(s, c.plan.DateLayouts)
		if !ok {
			return nil, fmt.Errorf("not a date: %q", s)
		}
		return v, nil
	case KindNames:
		v, err := builtin.Names(s)
		if err != nil || v == nil {
			return nil, err
		}
		return v, nil
	case KindCast:
		v, err := builtin.Cast(s)
		if err != nil || v == nil {
			return nil, err
		}
		return v, nil
	case KindCrew:
		v, err := builtin.Crew(s)
		if err != nil || v == nil {
			return nil, err
		}
		return v, nil
	default:
		v := builtin.Normalize(s)
		if v == "" {
			return nil, nil
		}
		return v, nil
	}
}

func blank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}
