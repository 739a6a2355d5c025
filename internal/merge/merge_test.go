package merge

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmdbetl/internal/config"
	"tmdbetl/internal/etlerr"
	"tmdbetl/internal/table"
)

func mustTable(t *testing.T, name string, cols []string, rows ...[]string) *table.Table {
	t.Helper()
	tb := table.New(name, cols)
	for _, r := range rows {
		require.NoError(t, tb.Append(r))
	}
	return tb
}

func movies(t *testing.T) *table.Table {
	return mustTable(t, "movies", []string{"id", "title", "budget"},
		[]string{"3", "C", "30"},
		[]string{"1", "A", "10"},
		[]string{"", "Blank", "0"},
		[]string{"2", "B", "20"},
		[]string{"1", "A-dup", "11"},
		[]string{"9", "Lonely", "90"},
	)
}

func credits(t *testing.T) *table.Table {
	return mustTable(t, "credits", []string{"movie_id", "title", "cast", "crew"},
		[]string{"1", "A", "[a]", "[x]"},
		[]string{"2", "B", "[b]", "[y]"},
		[]string{"3", "C", "[c]", "[z]"},
		[]string{"2", "B-dup", "[bb]", "[yy]"},
		[]string{"7", "Orphan", "[]", "[]"},
	)
}

func TestInnerJoin_FirstWins(t *testing.T) {
	out, st, err := InnerJoin(movies(t), credits(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "title", "budget", "credits_title", "cast", "crew"}, out.Columns)
	assert.Equal(t, map[string]string{"title": "credits_title"}, st.Renamed)

	require.Equal(t, 3, out.Len())
	// Left order is kept: 3, 1, 2.
	assert.Equal(t, []string{"3", "C", "30", "C", "[c]", "[z]"}, out.Rows[0])
	assert.Equal(t, []string{"1", "A", "10", "A", "[a]", "[x]"}, out.Rows[1])
	assert.Equal(t, []string{"2", "B", "20", "B", "[b]", "[y]"}, out.Rows[2])

	assert.Equal(t, Stats{
		LeftRows: 6, RightRows: 5, Matched: 3,
		LeftUnmatched: 1, RightUnmatched: 1,
		LeftDuplicates: 1, RightDuplicates: 1,
		EmptyKeys: 1,
		Renamed:   map[string]string{"title": "credits_title"},
	}, st)
}

func TestInnerJoin_FailOnDuplicate(t *testing.T) {
	_, _, err := InnerJoin(movies(t), credits(t), Options{Duplicates: config.DuplicatesFail})
	require.ErrorIs(t, err, etlerr.ErrDuplicateKey)
	assert.Contains(t, err.Error(), `movie_id="2"`)
}

func TestInnerJoin_MissingKeyColumn(t *testing.T) {
	noKey := mustTable(t, "credits", []string{"id", "cast"}, []string{"1", "[]"})

	_, _, err := InnerJoin(movies(t), noKey, Options{})
	require.ErrorIs(t, err, etlerr.ErrJoinKeyMismatch)
	assert.Contains(t, err.Error(), `credits: column "movie_id"`)

	_, _, err = InnerJoin(movies(t), credits(t), Options{LeftKey: "movie_key"})
	require.ErrorIs(t, err, etlerr.ErrJoinKeyMismatch)
}

func TestInnerJoin_EveryRowMatchesBothSides(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		left := table.New("movies", []string{"id", "v"})
		right := table.New("credits", []string{"movie_id", "w"})
		leftIDs := map[string]bool{}
		rightIDs := map[string]bool{}
		for i := 0; i < 40; i++ {
			id := string(rune('a' + rng.Intn(26)))
			left.Rows = append(left.Rows, []string{id, "l"})
			leftIDs[id] = true
		}
		for i := 0; i < 40; i++ {
			id := string(rune('a' + rng.Intn(26)))
			right.Rows = append(right.Rows, []string{id, "r"})
			rightIDs[id] = true
		}

		out, st, err := InnerJoin(left, right, Options{})
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, row := range out.Rows {
			id := row[0]
			assert.True(t, leftIDs[id] && rightIDs[id], "id %q not in both sides", id)
			assert.False(t, seen[id], "id %q emitted twice", id)
			seen[id] = true
		}
		both := 0
		for id := range leftIDs {
			if rightIDs[id] {
				both++
			}
		}
		assert.Equal(t, both, st.Matched)
		assert.Equal(t, len(leftIDs)-both, st.LeftUnmatched)
		assert.Equal(t, len(rightIDs)-both, st.RightUnmatched)
	}
}

func TestOptionsFrom(t *testing.T) {
	o := OptionsFrom(config.Merge{LeftKey: "movie_key", Duplicates: "fail"})
	o.applyDefaults()
	assert.Equal(t, Options{LeftKey: "movie_key", RightKey: "movie_id", Duplicates: "fail"}, o)
}
