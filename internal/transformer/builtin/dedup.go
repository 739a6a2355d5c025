package builtin

import (
	"bytes"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns a 128-bit hash of a row's cells. Cells are separated by
// a unit separator so ["ab","c"] and ["a","bc"] differ.
func Fingerprint(row []string) xxh3.Uint128 {
	var buf bytes.Buffer
	for i, c := range row {
		if i > 0 {
			buf.WriteByte('\x1f')
		}
		buf.WriteString(c)
	}
	return xxh3.Hash128(buf.Bytes())
}

// DeDup drops rows whose cells are identical to an earlier row. The first
// occurrence is kept and relative order is preserved.
type DeDup struct {
	seen map[xxh3.Uint128]struct{}
}

// NewDeDup returns an empty DeDup.
func NewDeDup() *DeDup { return &DeDup{seen: make(map[xxh3.Uint128]struct{})} }

// Seen records row and reports whether an identical row was already seen.
func (d *DeDup) Seen(row []string) bool {
	fp := Fingerprint(row)
	if _, ok := d.seen[fp]; ok {
		return true
	}
	d.seen[fp] = struct{}{}
	return false
}

// Apply returns rows without exact duplicates and the number removed.
func (d *DeDup) Apply(rows [][]string) ([][]string, int) {
	out := rows[:0:0]
	dropped := 0
	for _, r := range rows {
		if d.Seen(r) {
			dropped++
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}
