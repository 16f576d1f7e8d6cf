package compose

import (
	"log/slog"

	"github.com/narrata/loom/internal/cond"
	"github.com/narrata/loom/internal/content"
)

// ApplyDynamicFields evaluates each dynamic field spec against the context
// and overrides the target field with the selected value.
//
// An empty selected value leaves the field unchanged, so specs may supply
// only value_if_true and fall back to the template's own content otherwise.
// A choice_text index out of range is a no-op.
func ApplyDynamicFields(tpl content.Template, ctx content.Context) content.Template {
	if len(tpl.DynamicFields) == 0 {
		return tpl
	}

	out := tpl
	for _, df := range tpl.DynamicFields {
		value := df.ValueIfFalse
		if cond.All(df.Conditions, ctx) {
			value = df.ValueIfTrue
		}
		if value == "" {
			continue
		}

		switch df.Field {
		case content.FieldTitle:
			out.Title = value

		case content.FieldNarrative:
			out.Narrative = value

		case content.FieldChoiceText:
			if df.ChoiceIndex < 0 || df.ChoiceIndex >= len(out.Choices) {
				continue
			}
			// Copy-on-write: choice slices may be shared with cached or
			// registered templates.
			choices := content.CloneChoices(out.Choices)
			choices[df.ChoiceIndex].Text = value
			out.Choices = choices

		default:
			slog.Warn("unknown dynamic field target", "template", tpl.ID, "field", df.Field)
		}
	}
	return out
}
