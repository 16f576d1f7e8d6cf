package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrata/loom/internal/content"
)

func testEvent() *content.Event {
	return &content.Event{
		ID:          "ev-1",
		Title:       "Ambush",
		Description: "Bandits on the road.",
		Choices:     []content.Choice{{Text: "Fight", Effect: map[string]float64{"gold": 5}}},
		Difficulty:  3,
	}
}

func TestAddRemoveRules(t *testing.T) {
	e := NewEngine()
	assert.Zero(t, e.Len())

	e.AddRule("a", content.Rule{Effects: map[string]any{"setUrgency": "low"}})
	e.AddRule("b", content.Rule{Effects: map[string]any{"setUrgency": "high"}})
	assert.Equal(t, 2, e.Len())

	// The stored rule carries its registration name.
	assert.Equal(t, "a", e.Rules()["a"].Name)

	assert.True(t, e.RemoveRule("a"))
	assert.False(t, e.RemoveRule("a"), "second removal reports absence")
	assert.Equal(t, 1, e.Len())
}

func TestRulesReturnsCopy(t *testing.T) {
	e := NewEngine()
	e.AddRule("a", content.Rule{Effects: map[string]any{"setUrgency": "low"}})

	rules := e.Rules()
	delete(rules, "a")
	assert.Equal(t, 1, e.Len())
}

func TestProcessEventNil(t *testing.T) {
	e := NewEngine()
	assert.Nil(t, e.ProcessEvent(nil, content.Context{}))
}

func TestProcessEventPriorityOrder(t *testing.T) {
	e := NewEngine()
	e.AddRule("low", content.Rule{
		Priority: 1,
		Effects:  map[string]any{"modifyTitle": map[string]any{"append": " [low]"}},
	})
	e.AddRule("high", content.Rule{
		Priority: 10,
		Effects:  map[string]any{"modifyTitle": map[string]any{"append": " [high]"}},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{})

	// Higher priority applies first, so its text lands closer to the base.
	assert.Equal(t, "Ambush [high] [low]", ev.Title)
}

func TestProcessEventTieBreakInsertionOrder(t *testing.T) {
	e := NewEngine()
	e.AddRule("first", content.Rule{
		Priority: 5,
		Effects:  map[string]any{"modifyTitle": map[string]any{"append": " one"}},
	})
	e.AddRule("second", content.Rule{
		Priority: 5,
		Effects:  map[string]any{"modifyTitle": map[string]any{"append": " two"}},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{})
	assert.Equal(t, "Ambush one two", ev.Title)
}

func TestReAddKeepsInsertionPosition(t *testing.T) {
	e := NewEngine()
	e.AddRule("first", content.Rule{
		Priority: 5,
		Effects:  map[string]any{"modifyTitle": map[string]any{"append": " one"}},
	})
	e.AddRule("second", content.Rule{
		Priority: 5,
		Effects:  map[string]any{"modifyTitle": map[string]any{"append": " two"}},
	})

	// Replacing "first" must not move it behind "second" in tie-breaks.
	e.AddRule("first", content.Rule{
		Priority: 5,
		Effects:  map[string]any{"modifyTitle": map[string]any{"append": " ONE"}},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{})
	assert.Equal(t, "Ambush ONE two", ev.Title)
}

func TestProcessEventDisabledSkipped(t *testing.T) {
	disabled := false
	e := NewEngine()
	e.AddRule("off", content.Rule{
		Enabled: &disabled,
		Effects: map[string]any{"setUrgency": "high"},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{})
	assert.Empty(t, ev.Urgency)
}

func TestProcessEventConditionGating(t *testing.T) {
	e := NewEngine()
	e.AddRule("night-urgency", content.Rule{
		Conditions: []content.Condition{{Type: "stat", Stat: "level", Operator: "gte", Value: 5}},
		Effects:    map[string]any{"setUrgency": "high"},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{"level": 3})
	assert.Empty(t, ev.Urgency)

	ev = e.ProcessEvent(testEvent(), content.Context{"level": 7})
	assert.Equal(t, "high", ev.Urgency)
}

func TestProcessEventAccumulatesAcrossRules(t *testing.T) {
	// Scenario: a high-priority rule raises difficulty, a lower one adjusts
	// gold rewards; both land on the same event.
	e := NewEngine()
	e.AddRule("harden", content.Rule{
		Priority: 10,
		Effects:  map[string]any{"modifyDifficulty": 8},
	})
	e.AddRule("reward", content.Rule{
		Priority: 1,
		Effects:  map[string]any{"adjustEffects": map[string]any{"gold": 10}},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{})
	assert.Equal(t, 8, ev.Difficulty)
	require.Len(t, ev.Choices, 1)
	assert.Equal(t, float64(15), ev.Choices[0].Effect["gold"])
}

func TestProcessEventAddTagsPriorityOrder(t *testing.T) {
	e := NewEngine()
	e.AddRule("flag", content.Rule{
		Priority: 5,
		Effects:  map[string]any{"addTags": []string{"flagged"}},
	})
	e.AddRule("vip", content.Rule{
		Priority: 10,
		Effects:  map[string]any{"addTags": []string{"vip"}},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{})
	assert.Equal(t, []string{"vip", "flagged"}, ev.Tags)
}

func TestProcessEventUrgencyLastWriteWins(t *testing.T) {
	e := NewEngine()
	e.AddRule("high-prio", content.Rule{
		Priority: 10,
		Effects:  map[string]any{"setUrgency": "critical"},
	})
	e.AddRule("low-prio", content.Rule{
		Priority: 1,
		Effects:  map[string]any{"setUrgency": "low"},
	})

	ev := e.ProcessEvent(testEvent(), content.Context{})
	assert.Equal(t, "low", ev.Urgency, "the last-applied rule owns urgency")
}
