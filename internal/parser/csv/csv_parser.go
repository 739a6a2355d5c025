// Package csv parses delimited text into a table.Table. The header row is
// normalized to canonical keys and rows whose width differs from the header
// are soft-skipped and reported rather than aborting the read.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tmdbetl/internal/config"
	"tmdbetl/internal/etlerr"
	"tmdbetl/internal/table"
)

// Options configures the CSV parser behavior. Zero values select defaults.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// LazyQuotes allows a quote to appear in an unquoted field.
	LazyQuotes bool

	// HeaderMap maps source header names to canonical keys. Lookups use the
	// trimmed header text before lowercasing.
	HeaderMap map[string]string
}

// OptionsFrom reads parser options from a pipeline options bag.
//
//	comma (string), trim_space (bool, default true), lazy_quotes (bool),
//	header_map (object)
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:      o.Rune("comma", ','),
		TrimSpace:  o.Bool("trim_space", true),
		LazyQuotes: o.Bool("lazy_quotes", false),
		HeaderMap:  o.StringMap("header_map"),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but a single Parse call is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// ctxCheckEvery bounds how many rows are read between context checks.
const ctxCheckEvery = 1024

// Parse reads all records from r into a table named name. Per-row problems
// (bad quoting, wrong field count) are passed to onError with the 1-based
// data line and the row is skipped. onError may be nil.
//
// A missing header is fatal and wraps etlerr.ErrMalformedInput.
func (p *Parser) Parse(ctx context.Context, r io.Reader, name string, onError func(line int, err error)) (*table.Table, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	// Width is enforced below so that a bad row is skipped, not fatal.
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%s: %w: empty input, no header row", name, etlerr.ErrMalformedInput)
		}
		return nil, 0, fmt.Errorf("%s: read csv header: %w: %w", name, etlerr.ErrMalformedInput, err)
	}
	t := table.New(name, normalizeHeaders(h, p.opt))

	skipped := 0
	report := func(line int, err error) {
		skipped++
		if onError != nil {
			onError(line, err)
		}
	}

	for line := 1; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, skipped, err
			}
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, skipped, fmt.Errorf("%s: read row %d: %w", name, line, err)
			}
			report(line, err)
			continue
		}
		if len(row) != len(t.Columns) {
			report(line, fmt.Errorf("incorrect number of fields (expected %d, got %d)", len(t.Columns), len(row)))
			continue
		}
		if p.opt.TrimSpace {
			for i := range row {
				row[i] = strings.TrimSpace(row[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, skipped, nil
}

// normalizeHeaders produces canonical header keys using HeaderMap (when
// provided) and simple normalization (lowercase, spaces to underscores). It
// also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimSpace(strings.TrimPrefix(c, utf8BOM))
		}
		if m, ok := opt.HeaderMap[c]; ok {
			res[i] = m
			continue
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}
