package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLookup(t *testing.T) {
	ctx := Context{
		"level": 5,
		"environment": map[string]any{
			"weather": "rain",
			"nested":  map[string]any{"deep": true},
		},
	}

	tests := []struct {
		name     string
		path     string
		expected any
		found    bool
	}{
		{"top level", "level", 5, true},
		{"nested", "environment.weather", "rain", true},
		{"deeply nested", "environment.nested.deep", true, true},
		{"missing top", "gold", nil, false},
		{"missing nested", "environment.season", nil, false},
		{"path through scalar", "level.x", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ctx.Lookup(tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, v)
			}
		})
	}
}

func TestContextLookupNil(t *testing.T) {
	var ctx Context
	_, ok := ctx.Lookup("level")
	assert.False(t, ok)
}

func TestContextNumber(t *testing.T) {
	ctx := Context{
		"int":    7,
		"int64":  int64(8),
		"float":  2.5,
		"string": "nope",
		"relationships": map[string]any{
			"mira": 10,
		},
	}

	v, ok := ctx.Number("int")
	require.True(t, ok)
	assert.Equal(t, float64(7), v)

	v, ok = ctx.Number("int64")
	require.True(t, ok)
	assert.Equal(t, float64(8), v)

	v, ok = ctx.Number("float")
	require.True(t, ok)
	assert.Equal(t, 2.5, v)

	_, ok = ctx.Number("string")
	assert.False(t, ok)

	_, ok = ctx.Number("missing")
	assert.False(t, ok)

	v, ok = ctx.Number("relationships.mira")
	require.True(t, ok)
	assert.Equal(t, float64(10), v)
}

func TestContextStrings(t *testing.T) {
	ctx := Context{
		"inventory": []string{"rope", "torch"},
		"quests":    []any{"main", "side"},
		"mixed":     []any{"ok", 42},
		"scalar":    "x",
	}

	assert.Equal(t, []string{"rope", "torch"}, ctx.Strings("inventory"))
	assert.Equal(t, []string{"main", "side"}, ctx.Strings("quests"))
	assert.Equal(t, []string{"ok"}, ctx.Strings("mixed"), "non-strings are skipped")
	assert.Nil(t, ctx.Strings("scalar"))
	assert.Nil(t, ctx.Strings("missing"))
}

func TestContextRelationship(t *testing.T) {
	ctx := Context{
		"relationships": map[string]any{"mira": 10, "aldo": -2.5},
	}

	v, ok := ctx.Relationship("mira")
	require.True(t, ok)
	assert.Equal(t, float64(10), v)

	v, ok = ctx.Relationship("aldo")
	require.True(t, ok)
	assert.Equal(t, -2.5, v)

	_, ok = ctx.Relationship("stranger")
	assert.False(t, ok)
}

func TestContextSnapshotDeepCopies(t *testing.T) {
	ctx := Context{
		"level":     5,
		"inventory": []string{"rope"},
		"environment": map[string]any{
			"weather": "rain",
		},
	}

	snap := ctx.Snapshot()
	snap["level"] = 99
	snap["inventory"].([]string)[0] = "changed"
	snap["environment"].(map[string]any)["weather"] = "snow"

	assert.Equal(t, 5, ctx["level"])
	assert.Equal(t, "rope", ctx["inventory"].([]string)[0])
	assert.Equal(t, "rain", ctx["environment"].(map[string]any)["weather"])
}

func TestContextSnapshotStripsPredicates(t *testing.T) {
	ctx := Context{
		"level": 5,
		PredicateKey: map[string]func(Context) bool{
			"always": func(Context) bool { return true },
		},
	}

	snap := ctx.Snapshot()
	_, present := snap[PredicateKey]
	assert.False(t, present)
	assert.Equal(t, 5, snap["level"])

	// The original keeps its predicate table.
	assert.NotNil(t, ctx.Predicates())
}

func TestContextPredicates(t *testing.T) {
	assert.Nil(t, Context{}.Predicates())
	assert.Nil(t, Context(nil).Predicates())
	assert.Nil(t, Context{PredicateKey: "not a table"}.Predicates())

	ctx := Context{PredicateKey: map[string]func(Context) bool{
		"x": func(Context) bool { return true },
	}}
	require.NotNil(t, ctx.Predicates())
	assert.True(t, ctx.Predicates()["x"](ctx))
}

func TestContextSnapshotNil(t *testing.T) {
	var ctx Context
	snap := ctx.Snapshot()
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}
