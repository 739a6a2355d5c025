// Package builtin holds the per-value conversions the cleaner applies:
// number and date coercion, text normalization, flattening of the JSON list
// columns and exact-duplicate row detection.
package builtin

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseInt parses a whole number. Values written in float notation
// ("1.5e+08", "300.0") are accepted when they are integral.
func ParseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	f, ok := ParseFloat(s)
	if !ok || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseFloat parses a finite float.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseMoney parses a budget or revenue amount. Values at or below min, and
// non-positive values, are reported as missing.
func ParseMoney(s string, min int64) (int64, bool) {
	v, ok := ParseInt(s)
	if !ok || v <= 0 || v <= min {
		return 0, false
	}
	return v, true
}

// ParseDate tries each layout in order and returns the first valid calendar
// date in UTC.
func ParseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
