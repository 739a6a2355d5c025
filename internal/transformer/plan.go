// Package transformer turns the merged string table into typed movie records.
//
// The cleaner is driven by a declared Plan: one Rule per source column naming
// the conversion to apply. The plan is compiled once against the table header
// so the per-row loop only does positional lookups.
package transformer

import (
	"fmt"
	"strings"

	"tmdbetl/internal/config"
)

// Kind is the conversion applied to a column.
type Kind int

const (
	KindText  Kind = iota // Unicode NFC + trim
	KindInt               // whole number
	KindFloat             // finite float
	KindMoney             // positive whole number above the financial floor
	KindDate              // calendar date tried against the plan's layouts
	KindNames             // JSON list of objects -> list of "name" values
	KindCast              // JSON cast list ordered by billing order
	KindCrew              // JSON crew list
)

var kindNames = map[Kind]string{
	KindText:  "text",
	KindInt:   "int",
	KindFloat: "float",
	KindMoney: "money",
	KindDate:  "date",
	KindNames: "names",
	KindCast:  "cast",
	KindCrew:  "crew",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name to its Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown column kind %q", s)
}

// Rule binds a source column to a conversion.
type Rule struct {
	Column string
	Kind   Kind
}

// Plan declares how each column of the merged table is cleaned.
type Plan struct {
	Rules []Rule

	// DateLayouts are tried in order for KindDate columns.
	DateLayouts []string

	// MinFinancial is the floor for KindMoney; amounts at or below it are
	// treated as missing.
	MinFinancial int64
}

// DefaultRules is the TMDB column plan. Columns absent from the input are
// skipped; only the loader's required columns must exist.
var DefaultRules = []Rule{
	{"id", KindText},
	{"title", KindText},
	{"original_title", KindText},
	{"budget", KindMoney},
	{"revenue", KindMoney},
	{"genres", KindNames},
	{"release_date", KindDate},
	{"runtime", KindFloat},
	{"vote_average", KindFloat},
	{"vote_count", KindInt},
	{"popularity", KindFloat},
	{"spoken_languages", KindNames},
	{"production_countries", KindNames},
	{"production_companies", KindNames},
	{"keywords", KindNames},
	{"cast", KindCast},
	{"crew", KindCrew},
}

// PlanFrom builds the default plan with the pipeline's clean settings.
func PlanFrom(c config.Clean) Plan {
	layouts := c.DateLayouts
	if len(layouts) == 0 {
		layouts = []string{config.DefaultDateLayout}
	}
	return Plan{
		Rules:        append([]Rule(nil), DefaultRules...),
		DateLayouts:  layouts,
		MinFinancial: c.MinFinancial,
	}
}
