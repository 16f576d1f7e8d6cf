package compose

import (
	"log/slog"
	"sort"

	"github.com/narrata/loom/internal/cond"
	"github.com/narrata/loom/internal/content"
)

// Compose applies the template's composition entries in ascending priority
// order. Each entry's conditions gate whether it applies to this context;
// unmet conditions skip the entry, a missing component id warns and skips.
//
// The sort is stable so entries with equal priority keep declaration order.
func (r *Resolver) Compose(tpl content.Template, ctx content.Context) content.Template {
	if len(tpl.Composition) == 0 {
		return tpl
	}

	entries := make([]content.CompositionEntry, len(tpl.Composition))
	copy(entries, tpl.Composition)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority < entries[j].Priority
	})

	out := tpl
	for _, entry := range entries {
		if !cond.All(entry.Conditions, ctx) {
			continue
		}

		component, ok := r.reg.Lookup(entry.TemplateID)
		if !ok {
			slog.Warn("composition component not found, skipping",
				"template", tpl.ID, "component", entry.TemplateID)
			continue
		}

		out = applyMerge(out, component, entry.MergeStrategy)
	}
	return out
}

// applyMerge merges a component into the accumulated template per the
// entry's strategy. Unrecognized strategies fall through to the default
// merge rather than erroring.
func applyMerge(acc, component content.Template, strategy string) content.Template {
	switch strategy {
	case content.MergeAppend:
		acc.Choices = concatChoices(acc.Choices, component.Choices)
		acc.Tags = concatTags(acc.Tags, component.Tags)
		return acc

	case content.MergePrepend:
		acc.Choices = concatChoices(component.Choices, acc.Choices)
		acc.Tags = concatTags(component.Tags, acc.Tags)
		return acc

	case content.MergeReplace:
		return replaceFields(acc, component)

	default:
		return mergeShallow(acc, component)
	}
}

// replaceFields wholly replaces each field the component sets (shallow).
func replaceFields(acc, component content.Template) content.Template {
	out := acc
	if component.Title != "" {
		out.Title = component.Title
	}
	if component.Narrative != "" {
		out.Narrative = component.Narrative
	}
	if component.Type != "" {
		out.Type = component.Type
	}
	if component.Difficulty != 0 {
		out.Difficulty = component.Difficulty
	}
	if len(component.Choices) > 0 {
		out.Choices = concatChoices(nil, component.Choices)
	}
	if len(component.Tags) > 0 {
		out.Tags = concatTags(nil, component.Tags)
	}
	return out
}

// mergeShallow is the default strategy: scalar overwrite from the component
// with choices and tags concatenated template-first.
func mergeShallow(acc, component content.Template) content.Template {
	out := acc
	if component.Title != "" {
		out.Title = component.Title
	}
	if component.Narrative != "" {
		out.Narrative = component.Narrative
	}
	if component.Type != "" {
		out.Type = component.Type
	}
	if component.Difficulty != 0 {
		out.Difficulty = component.Difficulty
	}
	out.Choices = concatChoices(acc.Choices, component.Choices)
	out.Tags = concatTags(acc.Tags, component.Tags)
	return out
}
