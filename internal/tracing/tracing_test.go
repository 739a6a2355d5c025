package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tmdbetl/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(config.Tracing{}, "tmdb", nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_WritesSpansToFile(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	out := filepath.Join(t.TempDir(), "spans.json")
	shutdown, err := Setup(config.Tracing{Enabled: true, Output: out}, "tmdb", nil)
	require.NoError(t, err)

	ctx, span := Start(context.Background(), "merge", attribute.Int("rows", 3))
	_, child := Start(ctx, "merge.index")
	End(child, nil)
	End(span, errors.New("duplicate key"))

	require.NoError(t, shutdown(context.Background()))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(b)
	assert.Contains(t, body, `"Name":"merge"`)
	assert.Contains(t, body, `"Name":"merge.index"`)
	assert.Contains(t, body, "duplicate key")
	assert.Equal(t, 2, strings.Count(body, `"SpanContext"`))
}

func TestSetup_BadOutput(t *testing.T) {
	_, err := Setup(config.Tracing{Enabled: true, Output: filepath.Join(t.TempDir(), "missing", "x.json")}, "tmdb", nil)
	assert.ErrorContains(t, err, "tracing: open")
}
