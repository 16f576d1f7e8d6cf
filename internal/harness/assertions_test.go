package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrata/loom/internal/content"
)

func resultWithEvents(events ...content.Event) *Result {
	r := NewResult()
	r.Events = events
	return r
}

func sampleEvent() content.Event {
	return content.Event{
		ID:          "ev-1",
		Title:       "Bandit Ambush",
		Description: "Bandits block the road.",
		Type:        "encounter",
		Difficulty:  3,
		Urgency:     "high",
		TemplateID:  "ambush",
		Tags:        []string{"road", "combat"},
		Choices:     []content.Choice{{Text: "Fight"}, {Text: "Flee"}},
	}
}

func TestEvaluateAssertions(t *testing.T) {
	result := resultWithEvents(sampleEvent())

	tests := []struct {
		name      string
		assertion Assertion
		wantFail  bool
	}{
		{"event count pass", Assertion{Type: AssertEventCount, Count: 1}, false},
		{"event count fail", Assertion{Type: AssertEventCount, Count: 2}, true},
		{"choice count pass", Assertion{Type: AssertChoiceCount, Count: 2}, false},
		{"choice count fail", Assertion{Type: AssertChoiceCount, Count: 3}, true},
		{"has choice pass", Assertion{Type: AssertHasChoice, Choice: "Fight"}, false},
		{"has choice fail", Assertion{Type: AssertHasChoice, Choice: "Surrender"}, true},
		{"has tag pass", Assertion{Type: AssertHasTag, Tag: "combat"}, false},
		{"has tag fail", Assertion{Type: AssertHasTag, Tag: "sea"}, true},
		{"title contains pass", Assertion{Type: AssertTitleContains, Contains: "Ambush"}, false},
		{"title contains fail", Assertion{Type: AssertTitleContains, Contains: "Market"}, true},
		{"description contains pass", Assertion{Type: AssertDescriptionContains, Contains: "road"}, false},
		{"field equals string", Assertion{Type: AssertFieldEquals, Field: "urgency", Value: "high"}, false},
		{"field equals int", Assertion{Type: AssertFieldEquals, Field: "difficulty", Value: 3}, false},
		{"field equals mismatch", Assertion{Type: AssertFieldEquals, Field: "type", Value: "ambient"}, true},
		{"field equals template id", Assertion{Type: AssertFieldEquals, Field: "template_id", Value: "ambush"}, false},
		{"unknown field", Assertion{Type: AssertFieldEquals, Field: "moon", Value: 1}, true},
		{"unknown type", Assertion{Type: "glows"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			if tt.wantFail {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestEvaluateAssertionsEventIndex(t *testing.T) {
	first := sampleEvent()
	second := sampleEvent()
	second.Title = "Market Day"
	result := resultWithEvents(first, second)

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTitleContains, Event: 1, Contains: "Market"},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertTitleContains, Event: 5, Contains: "Market"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "event index 5 out of range")
}

func TestFieldValuesEqualNumericCoercion(t *testing.T) {
	// YAML parses whole numbers as int; event fields may be int or float64.
	assert.True(t, fieldValuesEqual(3, 3))
	assert.True(t, fieldValuesEqual(3, float64(3)))
	assert.True(t, fieldValuesEqual(int64(3), 3))
	assert.False(t, fieldValuesEqual(3, 4))
	assert.False(t, fieldValuesEqual(3.5, 3))
	assert.True(t, fieldValuesEqual("high", "high"))
}

func TestAssertionErrorIncludesEventDetail(t *testing.T) {
	ev := sampleEvent()
	err := &AssertionError{
		Type:     AssertHasTag,
		Expected: `tag "sea" present`,
		Actual:   "tags [road combat]",
		Event:    &ev,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: has_tag")
	assert.Contains(t, msg, "ev-1")
	assert.Contains(t, msg, "[1] Fight")
	assert.Contains(t, msg, "tags: [road combat]")
}
