package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrata/loom/internal/content"
)

func TestProcessedKey(t *testing.T) {
	ctx := content.Context{
		"level":      float64(5),
		"gold":       float64(120),
		"perception": 7.5,
	}

	key := ProcessedKey("ambush", ctx)
	assert.Equal(t, "ambush|level=5|reputation=any|gold=120|perception=7.5|charisma=any", key)
}

func TestProcessedKeyAllAbsent(t *testing.T) {
	key := ProcessedKey("ambush", content.Context{})
	assert.Equal(t, "ambush|level=any|reputation=any|gold=any|perception=any|charisma=any", key)
}

func TestProcessedKeyIgnoresNonBucketFields(t *testing.T) {
	a := ProcessedKey("ambush", content.Context{"level": 5, "inventory": []string{"rope"}})
	b := ProcessedKey("ambush", content.Context{"level": 5, "inventory": []string{"sword"}})
	assert.Equal(t, a, b, "inventory is not part of the coarse bucket")
}

func TestGenerationKeyExactMatch(t *testing.T) {
	ctx := content.Context{
		"level":     float64(5),
		"inventory": []string{"rope"},
	}

	key1, err := GenerationKey("ambush", ctx)
	require.NoError(t, err)
	key2, err := GenerationKey("ambush", ctx)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	// Changing a fine-grained field changes the key.
	other, err := GenerationKey("ambush", content.Context{
		"level":     float64(5),
		"inventory": []string{"sword"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, key1, other)
}

func TestGenerationKeyIgnoresUnrelatedFields(t *testing.T) {
	key1, err := GenerationKey("ambush", content.Context{"level": 5, "weather": "rain"})
	require.NoError(t, err)
	key2, err := GenerationKey("ambush", content.Context{"level": 5, "weather": "snow"})
	require.NoError(t, err)
	assert.Equal(t, key1, key2, "only stats, relationships, quests, and inventory feed the key")
}

func TestGenerationKeyUnserializableContext(t *testing.T) {
	_, err := GenerationKey("ambush", content.Context{
		"inventory": struct{ X int }{1},
	})
	assert.Error(t, err)
}

func TestProcessedTierHitMiss(t *testing.T) {
	c := New()
	key := ProcessedKey("ambush", content.Context{})

	_, ok := c.GetProcessed(key)
	assert.False(t, ok)

	c.PutProcessed(key, content.Template{ID: "ambush", Title: "Ambush"})

	tpl, ok := c.GetProcessed(key)
	require.True(t, ok)
	assert.Equal(t, "Ambush", tpl.Title)

	stats := c.Stats()
	assert.Equal(t, 1, stats.ProcessedHits)
	assert.Equal(t, 1, stats.ProcessedMisses)
}

func TestGenerationTierClonesOnPutAndGet(t *testing.T) {
	c := New()
	ev := content.Event{
		ID:      "ev-1",
		Title:   "Ambush",
		Choices: []content.Choice{{Text: "Fight", Effect: map[string]float64{"health": -5}}},
	}
	c.PutGeneration("key", ev)

	// Mutating the original after put must not affect the cache.
	ev.Choices[0].Effect["health"] = 0

	got, ok := c.GetGeneration("key")
	require.True(t, ok)
	assert.Equal(t, float64(-5), got.Choices[0].Effect["health"])

	// Mutating the returned copy must not affect later gets.
	got.Choices[0].Effect["health"] = 99
	again, ok := c.GetGeneration("key")
	require.True(t, ok)
	assert.Equal(t, float64(-5), again.Choices[0].Effect["health"])
}

func TestInvalidatePurgesByTemplate(t *testing.T) {
	c := New()
	ctx := content.Context{"level": 5}

	ambushKey := ProcessedKey("ambush", ctx)
	marketKey := ProcessedKey("market", ctx)
	c.PutProcessed(ambushKey, content.Template{ID: "ambush"})
	c.PutProcessed(marketKey, content.Template{ID: "market"})

	ambushGen, err := GenerationKey("ambush", ctx)
	require.NoError(t, err)
	marketGen, err := GenerationKey("market", ctx)
	require.NoError(t, err)
	c.PutGeneration(ambushGen, content.Event{ID: "e1"})
	c.PutGeneration(marketGen, content.Event{ID: "e2"})

	c.Invalidate("ambush")

	_, ok := c.GetProcessed(ambushKey)
	assert.False(t, ok)
	_, ok = c.GetProcessed(marketKey)
	assert.True(t, ok)

	_, ok = c.GetGeneration(ambushGen)
	assert.False(t, ok)
	_, ok = c.GetGeneration(marketGen)
	assert.True(t, ok)
}

func TestInvalidateDoesNotMatchIdPrefix(t *testing.T) {
	c := New()
	ctx := content.Context{}

	c.PutProcessed(ProcessedKey("amb", ctx), content.Template{ID: "amb"})
	c.PutProcessed(ProcessedKey("ambush", ctx), content.Template{ID: "ambush"})

	c.Invalidate("amb")

	_, ok := c.GetProcessed(ProcessedKey("amb", ctx))
	assert.False(t, ok)
	_, ok = c.GetProcessed(ProcessedKey("ambush", ctx))
	assert.True(t, ok, `invalidating "amb" must not purge "ambush" keys`)
}

func TestClear(t *testing.T) {
	c := New()
	c.PutProcessed("a|x=1", content.Template{})
	c.PutGeneration("a|{}", content.Event{})

	c.Clear()

	processed, generated := c.Len()
	assert.Zero(t, processed)
	assert.Zero(t, generated)
}
