package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AppendAndLookup(t *testing.T) {
	tb := New("movies", []string{"id", "title", "budget"})
	require.NoError(t, tb.Append([]string{"19995", "Avatar", "237000000"}))
	require.Error(t, tb.Append([]string{"1"}))

	assert.Equal(t, 1, tb.Len())
	assert.True(t, tb.Has("budget"))
	assert.False(t, tb.Has("revenue"))
	assert.Equal(t, "Avatar", tb.Value(0, "title"))
	assert.Equal(t, "", tb.Value(0, "revenue"))
	assert.Equal(t, map[string]string{"id": "19995", "title": "Avatar", "budget": "237000000"}, tb.Record(0))
}

func TestTable_DuplicateColumnsResolveToFirst(t *testing.T) {
	tb := New("x", []string{"a", "a"})
	require.NoError(t, tb.Append([]string{"1", "2"}))
	i, ok := tb.Index("a")
	require.True(t, ok)
	assert.Equal(t, 0, i)
	assert.Equal(t, "1", tb.Record(0)["a"])
}
