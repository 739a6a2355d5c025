package etlerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestColumnError_IsAndMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		kind   error
		substr string
	}{
		{"missing_column", MissingColumn("movies.csv", "budget"), ErrMalformedInput, `movies.csv: column "budget"`},
		{"missing_join_key", MissingJoinKey("credits", "movie_id"), ErrJoinKeyMismatch, `credits: column "movie_id"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("stage: %w", tc.err)
			if !errors.Is(wrapped, tc.kind) {
				t.Fatalf("errors.Is(%v, %v) = false", wrapped, tc.kind)
			}
			if !strings.Contains(wrapped.Error(), tc.substr) {
				t.Fatalf("error %q does not mention %q", wrapped.Error(), tc.substr)
			}
			var ce *ColumnError
			if !errors.As(wrapped, &ce) {
				t.Fatalf("errors.As did not find *ColumnError")
			}
		})
	}
}
