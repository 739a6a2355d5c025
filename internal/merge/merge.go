// Package merge joins the movie and credits tables on the shared identifier.
package merge

import (
	"fmt"
	"strings"

	"tmdbetl/internal/config"
	"tmdbetl/internal/etlerr"
	"tmdbetl/internal/table"
)

// Options configures InnerJoin. Zero values select the defaults.
type Options struct {
	LeftKey  string // default "id"
	RightKey string // default "movie_id"

	// Duplicates is config.DuplicatesFirst (default) or config.DuplicatesFail.
	Duplicates string
}

// OptionsFrom converts the pipeline merge section.
func OptionsFrom(m config.Merge) Options {
	return Options{LeftKey: m.LeftKey, RightKey: m.RightKey, Duplicates: m.Duplicates}
}

func (o *Options) applyDefaults() {
	if o.LeftKey == "" {
		o.LeftKey = config.DefaultLeftKey
	}
	if o.RightKey == "" {
		o.RightKey = config.DefaultRightKey
	}
	if o.Duplicates == "" {
		o.Duplicates = config.DuplicatesFirst
	}
}

// Stats reports what the join kept and dropped.
type Stats struct {
	LeftRows  int
	RightRows int
	Matched   int

	// Unmatched counts distinct identifiers present on one side only.
	LeftUnmatched  int
	RightUnmatched int

	// Duplicates counts rows dropped because their identifier was already seen
	// on the same side.
	LeftDuplicates  int
	RightDuplicates int

	// EmptyKeys counts rows (both sides) whose identifier was blank.
	EmptyKeys int

	// Renamed maps right-hand columns that collided with a left column to
	// their output name.
	Renamed map[string]string
}

// MergedName is the name of the table InnerJoin returns.
const MergedName = "merged"

// InnerJoin returns one row per identifier present in both inputs. Output
// rows follow the left input order; columns are all left columns followed by
// the right columns except its key. A right column whose name is already
// taken is renamed "<right table>_<column>".
//
// A missing key column wraps etlerr.ErrJoinKeyMismatch. With the "fail"
// policy a repeated identifier on either side wraps etlerr.ErrDuplicateKey;
// otherwise the first occurrence wins.
func InnerJoin(left, right *table.Table, opts Options) (*table.Table, Stats, error) {
	opts.applyDefaults()
	st := Stats{LeftRows: left.Len(), RightRows: right.Len(), Renamed: map[string]string{}}

	li, ok := left.Index(opts.LeftKey)
	if !ok {
		return nil, st, fmt.Errorf("merge: %w", etlerr.MissingJoinKey(left.Name, opts.LeftKey))
	}
	ri, ok := right.Index(opts.RightKey)
	if !ok {
		return nil, st, fmt.Errorf("merge: %w", etlerr.MissingJoinKey(right.Name, opts.RightKey))
	}
	failOnDup := opts.Duplicates == config.DuplicatesFail

	byKey := make(map[string]int, right.Len())
	for r, row := range right.Rows {
		k := strings.TrimSpace(row[ri])
		if k == "" {
			st.EmptyKeys++
			continue
		}
		if _, dup := byKey[k]; dup {
			if failOnDup {
				return nil, st, duplicateErr(right.Name, opts.RightKey, k)
			}
			st.RightDuplicates++
			continue
		}
		byKey[k] = r
	}

	cols, rightCols := outputColumns(left, right, ri, st.Renamed)
	out := table.New(MergedName, cols)

	seen := make(map[string]struct{}, left.Len())
	matched := make(map[string]struct{}, len(byKey))
	for _, row := range left.Rows {
		k := strings.TrimSpace(row[li])
		if k == "" {
			st.EmptyKeys++
			continue
		}
		if _, dup := seen[k]; dup {
			if failOnDup {
				return nil, st, duplicateErr(left.Name, opts.LeftKey, k)
			}
			st.LeftDuplicates++
			continue
		}
		seen[k] = struct{}{}

		r, ok := byKey[k]
		if !ok {
			st.LeftUnmatched++
			continue
		}
		matched[k] = struct{}{}

		merged := make([]string, 0, len(cols))
		merged = append(merged, row...)
		for _, c := range rightCols {
			merged = append(merged, right.Rows[r][c])
		}
		out.Rows = append(out.Rows, merged)
	}
	st.Matched = out.Len()
	st.RightUnmatched = len(byKey) - len(matched)
	return out, st, nil
}

// outputColumns returns the merged header and the right-hand column
// positions copied after the left columns.
func outputColumns(left, right *table.Table, rightKey int, renamed map[string]string) ([]string, []int) {
	cols := append([]string(nil), left.Columns...)
	taken := make(map[string]struct{}, len(cols)+len(right.Columns))
	for _, c := range cols {
		taken[c] = struct{}{}
	}
	var rightCols []int
	for i, c := range right.Columns {
		if i == rightKey {
			continue
		}
		name := c
		if _, clash := taken[name]; clash {
			name = right.Name + "_" + c
			for n := 2; ; n++ {
				if _, clash := taken[name]; !clash {
					break
				}
				name = fmt.Sprintf("%s_%s_%d", right.Name, c, n)
			}
			renamed[c] = name
		}
		taken[name] = struct{}{}
		cols = append(cols, name)
		rightCols = append(rightCols, i)
	}
	return cols, rightCols
}

func duplicateErr(tableName, key, value string) error {
	return fmt.Errorf("merge: %s: %w: %s=%q", tableName, etlerr.ErrDuplicateKey, key, value)
}
