package compiler

import (
	"encoding/json"
	"strings"

	"cuelang.org/go/cue"

	"github.com/narrata/loom/internal/content"
)

// CompileTemplate parses a CUE value into a Template.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the template struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`template: ambush: { ... }`)
//	tpl, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.ambush")))
//
// The template id comes from the struct label unless the body sets one.
func CompileTemplate(v cue.Value) (*content.Template, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// Required fields checked against the CUE value first, so errors carry
	// source positions instead of pointing at decoded Go data.
	titleVal := v.LookupPath(cue.ParsePath("title"))
	if !titleVal.Exists() {
		return nil, &CompileError{Field: "title", Message: "title is required", Pos: v.Pos()}
	}
	if _, err := titleVal.String(); err != nil {
		return nil, formatCUEError(err)
	}

	narrativeVal := v.LookupPath(cue.ParsePath("narrative"))
	if !narrativeVal.Exists() {
		return nil, &CompileError{Field: "narrative", Message: "narrative is required", Pos: v.Pos()}
	}
	if _, err := narrativeVal.String(); err != nil {
		return nil, formatCUEError(err)
	}

	tpl := &content.Template{}
	if err := decodeValue(v, tpl); err != nil {
		return nil, err
	}

	if tpl.ID == "" {
		tpl.ID = labelOf(v)
	}
	return tpl, nil
}

// CompileRule parses a CUE value into a Rule. The rule name comes from the
// struct label unless the body sets one.
func CompileRule(v cue.Value) (*content.Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	effectsVal := v.LookupPath(cue.ParsePath("effects"))
	if !effectsVal.Exists() {
		return nil, &CompileError{Field: "effects", Message: "effects are required", Pos: v.Pos()}
	}

	rule := &content.Rule{}
	if err := decodeValue(v, rule); err != nil {
		return nil, err
	}

	if rule.Name == "" {
		rule.Name = labelOf(v)
	}
	return rule, nil
}

// decodeValue exports the CUE value as JSON and decodes it through the
// content types' own unmarshalers. Going through JSON (rather than
// cue.Value.Decode) keeps the string-or-list extends form and the
// integer-keyed conditional_choices map working identically across CUE,
// JSON, and catalog input.
func decodeValue(v cue.Value, target any) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return formatCUEError(err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &CompileError{
			Field:   "decode",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return nil
}

// labelOf returns the last path selector as a plain name.
// e.g. `template.ambush` -> "ambush", `rule."night-urgency"` -> "night-urgency".
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return strings.Trim(labels[len(labels)-1].String(), `"`)
}
