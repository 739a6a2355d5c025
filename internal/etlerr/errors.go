// Package etlerr defines the fatal error taxonomy shared by the pipeline
// stages. Callers classify failures with errors.Is; the concrete error values
// returned by stages wrap these sentinels with the offending file or column.
//
// Per-row problems (a missing budget, an unparsable date) are not errors in
// this sense. They are counted by the cleaner and handled by the financial
// exclusion policy instead of aborting the run.
package etlerr

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound reports that an input file does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMalformedInput reports that an input is missing a required column or
	// has no readable header.
	ErrMalformedInput = errors.New("malformed input")

	// ErrJoinKeyMismatch reports that a join key column is missing from one of
	// the merge inputs.
	ErrJoinKeyMismatch = errors.New("join key mismatch")

	// ErrDuplicateKey reports a repeated identifier when the merge policy is
	// configured to fail on duplicates.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ColumnError names the table and column behind a fatal input error.
type ColumnError struct {
	Kind   error  // one of the sentinels above
	Source string // logical table name or file path
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%v: %s: column %q", e.Kind, e.Source, e.Column)
}

// Unwrap lets errors.Is match the sentinel kind.
func (e *ColumnError) Unwrap() error { return e.Kind }

// MissingColumn is shorthand for a ColumnError of kind ErrMalformedInput.
func MissingColumn(source, column string) error {
	return &ColumnError{Kind: ErrMalformedInput, Source: source, Column: column}
}

// MissingJoinKey is shorthand for a ColumnError of kind ErrJoinKeyMismatch.
func MissingJoinKey(source, column string) error {
	return &ColumnError{Kind: ErrJoinKeyMismatch, Source: source, Column: column}
}
