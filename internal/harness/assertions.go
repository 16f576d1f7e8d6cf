package harness

import (
	"fmt"
	"strings"

	"github.com/narrata/loom/internal/content"
)

// Assertion validates a generated event or the event list as a whole.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_count": the scenario produced exactly N events
	// - "choice_count": event has exactly N choices
	// - "has_choice": event has a choice with the given text
	// - "has_tag": event carries the given tag
	// - "title_contains": event title contains the substring
	// - "description_contains": event description contains the substring
	// - "field_equals": a scalar event field equals the given value
	Type string `yaml:"type"`

	// Event is the index of the event to assert on (default 0).
	// Ignored by event_count.
	Event int `yaml:"event,omitempty"`

	// Count is the expected count (used by event_count, choice_count).
	Count int `yaml:"count,omitempty"`

	// Tag is the expected tag (used by has_tag).
	Tag string `yaml:"tag,omitempty"`

	// Choice is the expected choice text (used by has_choice).
	Choice string `yaml:"choice,omitempty"`

	// Contains is the expected substring (used by *_contains).
	Contains string `yaml:"contains,omitempty"`

	// Field names a scalar event field (used by field_equals):
	// "id", "title", "description", "type", "difficulty", "urgency",
	// "template_id".
	Field string `yaml:"field,omitempty"`

	// Value is the expected field value (used by field_equals).
	Value any `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount          = "event_count"
	AssertChoiceCount         = "choice_count"
	AssertHasChoice           = "has_choice"
	AssertHasTag              = "has_tag"
	AssertTitleContains       = "title_contains"
	AssertDescriptionContains = "description_contains"
	AssertFieldEquals         = "field_equals"
)

// AssertionError is returned when an assertion fails.
// It includes the event under test to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Event    *content.Event
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Event != nil {
		fmt.Fprintf(&buf, "\nEvent %s (%s):\n", e.Event.ID, e.Event.Title)
		for i, choice := range e.Event.Choices {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, choice.Text)
		}
		if len(e.Event.Tags) > 0 {
			fmt.Fprintf(&buf, "  tags: %v\n", e.Event.Tags)
		}
	}
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if assertion.Type == AssertEventCount {
			err = assertEventCount(result.Events, assertion)
		} else {
			ev, evErr := eventAt(result.Events, assertion.Event)
			if evErr != nil {
				errors = append(errors, fmt.Sprintf("assertions[%d]: %v", i, evErr))
				continue
			}
			switch assertion.Type {
			case AssertChoiceCount:
				err = assertChoiceCount(ev, assertion)
			case AssertHasChoice:
				err = assertHasChoice(ev, assertion)
			case AssertHasTag:
				err = assertHasTag(ev, assertion)
			case AssertTitleContains:
				err = assertContains(AssertTitleContains, ev, ev.Title, assertion.Contains)
			case AssertDescriptionContains:
				err = assertContains(AssertDescriptionContains, ev, ev.Description, assertion.Contains)
			case AssertFieldEquals:
				err = assertFieldEquals(ev, assertion)
			default:
				err = fmt.Errorf("assertions[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func eventAt(events []content.Event, index int) (*content.Event, error) {
	if index < 0 || index >= len(events) {
		return nil, fmt.Errorf("event index %d out of range (have %d events)", index, len(events))
	}
	return &events[index], nil
}

func assertEventCount(events []content.Event, assertion Assertion) error {
	if len(events) != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d events", assertion.Count),
			Actual:   fmt.Sprintf("%d events", len(events)),
		}
	}
	return nil
}

func assertChoiceCount(ev *content.Event, assertion Assertion) error {
	if len(ev.Choices) != assertion.Count {
		return &AssertionError{
			Type:     AssertChoiceCount,
			Expected: fmt.Sprintf("%d choices", assertion.Count),
			Actual:   fmt.Sprintf("%d choices", len(ev.Choices)),
			Event:    ev,
		}
	}
	return nil
}

func assertHasChoice(ev *content.Event, assertion Assertion) error {
	for _, choice := range ev.Choices {
		if choice.Text == assertion.Choice {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertHasChoice,
		Expected: fmt.Sprintf("choice %q present", assertion.Choice),
		Actual:   "not found",
		Event:    ev,
	}
}

func assertHasTag(ev *content.Event, assertion Assertion) error {
	for _, tag := range ev.Tags {
		if tag == assertion.Tag {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertHasTag,
		Expected: fmt.Sprintf("tag %q present", assertion.Tag),
		Actual:   fmt.Sprintf("tags %v", ev.Tags),
		Event:    ev,
	}
}

func assertContains(kind string, ev *content.Event, text, substring string) error {
	if strings.Contains(text, substring) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("text containing %q", substring),
		Actual:   fmt.Sprintf("%q", text),
		Event:    ev,
	}
}

func assertFieldEquals(ev *content.Event, assertion Assertion) error {
	actual, err := eventField(ev, assertion.Field)
	if err != nil {
		return err
	}
	if !fieldValuesEqual(assertion.Value, actual) {
		return &AssertionError{
			Type:     AssertFieldEquals,
			Expected: fmt.Sprintf("%s = %v (type %T)", assertion.Field, assertion.Value, assertion.Value),
			Actual:   fmt.Sprintf("%s = %v (type %T)", assertion.Field, actual, actual),
			Event:    ev,
		}
	}
	return nil
}

// eventField extracts a scalar field by name.
func eventField(ev *content.Event, field string) (any, error) {
	switch field {
	case "id":
		return ev.ID, nil
	case "title":
		return ev.Title, nil
	case "description":
		return ev.Description, nil
	case "type":
		return ev.Type, nil
	case "difficulty":
		return ev.Difficulty, nil
	case "urgency":
		return ev.Urgency, nil
	case "template_id":
		return ev.TemplateID, nil
	default:
		return nil, fmt.Errorf("unknown event field %q", field)
	}
}

// fieldValuesEqual compares an expected YAML-parsed value with an event
// field. YAML parses whole numbers as int, so numeric comparison coerces
// both sides to int64.
func fieldValuesEqual(expected, actual any) bool {
	if expInt, ok := toInt64(expected); ok {
		actInt, ok := toInt64(actual)
		return ok && expInt == actInt
	}
	return expected == actual
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, eventCount int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Type != AssertEventCount && (a.Event < 0 || a.Event >= eventCount) {
		return fmt.Errorf("assertions[%d]: event index %d out of range (have %d generations)", index, a.Event, eventCount)
	}

	switch a.Type {
	case AssertEventCount, AssertChoiceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertHasChoice:
		if a.Choice == "" {
			return fmt.Errorf("assertions[%d]: choice is required for has_choice", index)
		}
	case AssertHasTag:
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for has_tag", index)
		}
	case AssertTitleContains, AssertDescriptionContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for %s", index, a.Type)
		}
	case AssertFieldEquals:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for field_equals", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
