package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrata/loom/internal/content"
)

func TestApplyAddTags(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    []string
	}{
		{"string slice", []string{"urgent", "night"}, []string{"road", "urgent", "night"}},
		{"any slice from decoded JSON", []any{"urgent"}, []string{"road", "urgent"}},
		{"non-string element skips effect", []any{"urgent", 3}, []string{"road"}},
		{"wrong type skips effect", "urgent", []string{"road"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &content.Event{Tags: []string{"road"}}
			applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{"addTags": tt.payload}})
			assert.Equal(t, tt.want, ev.Tags)
		})
	}
}

func TestApplyTextVerbs(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"append", map[string]any{"append": " [night]"}, "Ambush [night]"},
		{"prepend", map[string]any{"prepend": "Urgent: "}, "Urgent: Ambush"},
		{"replace", map[string]any{"replace": "Midnight Raid"}, "Midnight Raid"},
		{"replace wins over other verbs", map[string]any{"append": " x", "prepend": "y ", "replace": "Final"}, "Final"},
		{"append then prepend", map[string]any{"append": " [a]", "prepend": "[p] "}, "[p] Ambush [a]"},
		{"empty replace clears", map[string]any{"replace": ""}, ""},
		{"empty append is a no-op", map[string]any{"append": ""}, "Ambush"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &content.Event{Title: "Ambush", Description: "Ambush"}
			applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{
				"modifyTitle":       tt.payload,
				"modifyDescription": tt.payload,
			}})
			assert.Equal(t, tt.want, ev.Title)
			assert.Equal(t, tt.want, ev.Description, "description follows the same verb rules")
		})
	}
}

func TestApplyTextBadPayload(t *testing.T) {
	ev := &content.Event{Title: "Kept"}
	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{"modifyTitle": "not an object"}})
	assert.Equal(t, "Kept", ev.Title)
}

func TestApplyAdjustEffects(t *testing.T) {
	ev := &content.Event{
		Choices: []content.Choice{
			{Text: "Fight", Effect: map[string]float64{"gold": 5, "health": -10}},
			{Text: "Flee", Effect: map[string]float64{"health": -2}},
		},
	}

	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{
		"adjustEffects": map[string]any{"gold": float64(10), "stamina": float64(3)},
	}})

	require.Len(t, ev.Choices, 2)
	assert.Equal(t, float64(15), ev.Choices[0].Effect["gold"])
	assert.Equal(t, float64(-10), ev.Choices[0].Effect["health"], "untargeted keys untouched")
	_, ok := ev.Choices[0].Effect["stamina"]
	assert.False(t, ok, "deltas never create new keys")
	_, ok = ev.Choices[1].Effect["gold"]
	assert.False(t, ok)
}

func TestApplyAdjustEffectsBadPayload(t *testing.T) {
	ev := &content.Event{Choices: []content.Choice{{Effect: map[string]float64{"gold": 5}}}}
	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{
		"adjustEffects": map[string]any{"gold": "ten"},
	}})
	assert.Equal(t, float64(5), ev.Choices[0].Effect["gold"])
}

func TestApplyModifyDifficulty(t *testing.T) {
	ev := &content.Event{Difficulty: 3}
	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{"modifyDifficulty": float64(7)}})
	assert.Equal(t, 7, ev.Difficulty)

	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{"modifyDifficulty": "hard"}})
	assert.Equal(t, 7, ev.Difficulty, "bad payload leaves difficulty alone")
}

func TestApplySetUrgency(t *testing.T) {
	ev := &content.Event{}
	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{"setUrgency": "high"}})
	assert.Equal(t, "high", ev.Urgency)

	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{"setUrgency": 3}})
	assert.Equal(t, "high", ev.Urgency)
}

func TestApplyAddContext(t *testing.T) {
	ev := &content.Event{}
	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{
		"addContext": map[string]any{"weather": "storm"},
	}})
	require.NotNil(t, ev.Context)
	assert.Equal(t, "storm", ev.Context["weather"])

	// Merges into an existing snapshot without dropping prior keys.
	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{
		"addContext": map[string]any{"time": "night"},
	}})
	assert.Equal(t, "storm", ev.Context["weather"])
	assert.Equal(t, "night", ev.Context["time"])
}

func TestApplyEffectsUnknownKeySkipped(t *testing.T) {
	ev := &content.Event{Title: "Ambush"}
	applyEffects(ev, content.Rule{Name: "t", Effects: map[string]any{
		"teleportPlayer": true,
		"setUrgency":     "low",
	}})
	assert.Equal(t, "low", ev.Urgency, "known effects still apply alongside unknown keys")
}
