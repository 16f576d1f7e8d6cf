package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inlineScenario() *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline content",
		Templates: []map[string]any{
			{
				"id":        "camp",
				"title":     "Night Camp",
				"narrative": "The fire burns low.",
				"choices":   []any{map[string]any{"text": "Sleep"}, map[string]any{"text": "Keep watch"}},
			},
		},
		Context:     map[string]any{"level": 3},
		Generations: []GenerationStep{{Template: "camp"}},
		Assertions:  []Assertion{{Type: AssertEventCount, Count: 1}},
	}
}

func TestRunInlineScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "inline-basic.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Events, 1)
	ev := result.Events[0]
	assert.Equal(t, "event-1", ev.ID, "default id prefix is deterministic")
	assert.Equal(t, "Night Camp", ev.Title)
	require.Len(t, ev.Choices, 2)
}

func TestRunPackScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "pack-roadside.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	ev := result.Events[0]
	assert.Equal(t, "Bandit Ambush", ev.Title)
	assert.Equal(t, []string{"road", "combat"}, ev.Tags)
	assert.Equal(t, "high", ev.Urgency, "apply_rules ran the rule engine")
}

func TestRunFailedAssertionsCollect(t *testing.T) {
	s := inlineScenario()
	s.Assertions = []Assertion{
		{Type: AssertEventCount, Count: 5},
		{Type: AssertHasChoice, Choice: "Sleep"},
		{Type: AssertHasTag, Tag: "no-such-tag"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2, "only failed assertions report")
}

func TestRunUnknownTemplate(t *testing.T) {
	s := inlineScenario()
	s.Generations = []GenerationStep{{Template: "ghost"}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown template "ghost"`)
}

func TestRunStepContextOverride(t *testing.T) {
	s := inlineScenario()
	s.Templates[0]["dynamic_fields"] = []any{
		map[string]any{
			"field":          "title",
			"conditions":     []any{map[string]any{"type": "stat", "stat": "level", "operator": "gte", "value": 10}},
			"value_if_true":  "Veteran Camp",
			"value_if_false": "Night Camp",
		},
	}
	s.Generations = []GenerationStep{
		{Template: "camp"},
		{Template: "camp", Context: map[string]any{"level": 12}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "Night Camp", result.Events[0].Title)
	assert.Equal(t, "Veteran Camp", result.Events[1].Title, "step context wins over scenario context")
}

func TestRunInlineTemplateRequiresID(t *testing.T) {
	s := inlineScenario()
	delete(s.Templates[0], "id")

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}

func TestRunInlineRules(t *testing.T) {
	s := inlineScenario()
	s.Rules = []map[string]any{
		{
			"name":    "tag-night",
			"effects": map[string]any{"addTags": []any{"night"}},
		},
	}
	s.Generations = []GenerationStep{{Template: "camp", ApplyRules: true}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"night"}, result.Events[0].Tags)
}

func TestRunIDPrefix(t *testing.T) {
	s := inlineScenario()
	s.IDPrefix = "scene"
	s.Generations = []GenerationStep{{Template: "camp"}, {Template: "camp"}}

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "scene-1", result.Events[0].ID)
	assert.Equal(t, "scene-2", result.Events[1].ID)
}

func TestRunWithGolden(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "inline-basic.yaml"))
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, s))
}

func TestSnapshotJSONDeterministic(t *testing.T) {
	s := inlineScenario()

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := SnapshotJSON(s.Name, first)
	require.NoError(t, err)
	b, err := SnapshotJSON(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
