package content

import (
	"encoding/json"
	"fmt"
)

// Template is a reusable content definition. Templates are registered in an
// id-indexed table; extends, mixins, and composition entries reference other
// templates by id.
type Template struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Narrative string `json:"narrative"`
	Type      string `json:"type,omitempty"`

	Difficulty int      `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Choices    []Choice `json:"choices,omitempty"`

	// Conditions gate whether the template is eligible for a given context.
	// Evaluated by callers selecting candidate templates, not by the
	// generation pipeline itself.
	Conditions []Condition `json:"conditions,omitempty"`

	// ConditionalChoices maps a choice index to its visibility spec.
	ConditionalChoices map[int]ConditionalChoice `json:"conditional_choices,omitempty"`

	DynamicFields []DynamicField     `json:"dynamic_fields,omitempty"`
	Composition   []CompositionEntry `json:"composition,omitempty"`

	// Extends names one or more parent templates. Accepts a single id or a
	// list in JSON/CUE input.
	Extends StringList `json:"extends,omitempty"`
	Mixins  []string   `json:"mixins,omitempty"`
}

// Choice is one selectable option on a generated event. Text doubles as the
// conflict-resolution key during mixin merges.
type Choice struct {
	Text string `json:"text"`

	// Effect maps stat name -> additive delta applied when the choice is taken.
	Effect map[string]float64 `json:"effect,omitempty"`

	Consequence  string             `json:"consequence,omitempty"`
	Requirements map[string]float64 `json:"requirements,omitempty"`
}

// Clone returns a deep copy of the choice.
func (c Choice) Clone() Choice {
	out := c
	if c.Effect != nil {
		out.Effect = make(map[string]float64, len(c.Effect))
		for k, v := range c.Effect {
			out.Effect[k] = v
		}
	}
	if c.Requirements != nil {
		out.Requirements = make(map[string]float64, len(c.Requirements))
		for k, v := range c.Requirements {
			out.Requirements[k] = v
		}
	}
	return out
}

// CloneChoices deep-copies a choice list.
func CloneChoices(choices []Choice) []Choice {
	if choices == nil {
		return nil
	}
	out := make([]Choice, len(choices))
	for i, c := range choices {
		out[i] = c.Clone()
	}
	return out
}

// ConditionalChoice controls the visibility of the choice at its index.
//
// ShowWhen defaults to true ("show when conditions hold"). False inverts:
// the choice is shown only when the conditions do NOT hold.
type ConditionalChoice struct {
	Conditions []Condition `json:"conditions,omitempty"`
	ShowWhen   *bool       `json:"show_when,omitempty"`
}

// Show reports the effective show_when flag.
func (cc ConditionalChoice) Show() bool {
	return cc.ShowWhen == nil || *cc.ShowWhen
}

// DynamicField conditionally overrides a scalar or choice-text field during
// template processing.
type DynamicField struct {
	// Field is the target: "title", "narrative", or "choice_text".
	Field string `json:"field"`

	// ChoiceIndex selects the choice for the "choice_text" target.
	ChoiceIndex int `json:"choice_index,omitempty"`

	Conditions   []Condition `json:"conditions,omitempty"`
	ValueIfTrue  string      `json:"value_if_true,omitempty"`
	ValueIfFalse string      `json:"value_if_false,omitempty"`
}

// Dynamic field targets.
const (
	FieldTitle      = "title"
	FieldNarrative  = "narrative"
	FieldChoiceText = "choice_text"
)

// CompositionEntry merges a component template into the base, gated by
// conditions and ordered by priority (ascending).
type CompositionEntry struct {
	TemplateID    string      `json:"template_id"`
	Priority      int         `json:"priority,omitempty"`
	Conditions    []Condition `json:"conditions,omitempty"`
	MergeStrategy string      `json:"merge_strategy,omitempty"`
}

// Merge strategies for composition entries. MergeDefault applies when the
// entry names no strategy (or an unrecognized one).
const (
	MergeAppend  = "append"
	MergePrepend = "prepend"
	MergeReplace = "replace"
	MergeDefault = "merge"
)

// StringList accepts either a single JSON string or an array of strings.
// Used for the extends field, which supports single and multiple inheritance.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("extends must be a string or list of strings: %w", err)
	}
	*s = StringList(list)
	return nil
}

// MarshalJSON emits a bare string for single-element lists to round-trip the
// compact input form.
func (s StringList) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}
