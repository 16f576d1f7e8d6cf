// Package compose turns a stored template into its fully processed form:
// inheritance and mixin resolution, ordered conditional composition, and
// dynamic field evaluation.
//
// Templates reference ancestors, mixins, and components by id through a
// Registry, never by live pointer. Linearization is a visited-set-guarded
// depth-first traversal, so cyclic or diamond-shaped template graphs resolve
// deterministically instead of recursing without bound.
package compose

import (
	"log/slog"

	"github.com/narrata/loom/internal/content"
)

// Registry is the id-indexed template table the resolver reads from.
// Implemented by the engine's in-memory store.
type Registry interface {
	Lookup(id string) (content.Template, bool)
}

// Resolver linearizes and merges parent and mixin templates.
type Resolver struct {
	reg Registry
}

// NewResolver creates a resolver over the given template registry.
func NewResolver(reg Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve applies inheritance then mixins to a template.
//
// The ancestor chain runs from most-distant ancestor to the template itself;
// merges apply base->derived so the more specific template wins scalar
// conflicts. Mixins apply afterwards, in declaration order, as defaults.
func (r *Resolver) Resolve(tpl content.Template) content.Template {
	visited := map[string]bool{tpl.ID: true}
	chain := r.ancestors(tpl, visited)

	resolved := tpl
	if len(chain) > 0 {
		resolved = chain[0]
		for _, next := range chain[1:] {
			resolved = mergeDerived(resolved, next)
		}
		resolved = mergeDerived(resolved, tpl)
	}

	for _, mixinID := range tpl.Mixins {
		mixin, ok := r.reg.Lookup(mixinID)
		if !ok {
			slog.Warn("mixin not found, skipping", "template", tpl.ID, "mixin", mixinID)
			continue
		}
		resolved = mergeMixin(resolved, mixin)
	}

	resolved.ID = tpl.ID
	return resolved
}

// ancestors builds the linearized ancestor list via depth-first traversal of
// extends. Each ancestor id is visited at most once - the visited set guards
// against both cycles and diamond duplication. Order is most-distant first:
// a parent's own ancestors precede it.
func (r *Resolver) ancestors(tpl content.Template, visited map[string]bool) []content.Template {
	var chain []content.Template
	for _, parentID := range tpl.Extends {
		if visited[parentID] {
			continue
		}
		visited[parentID] = true

		parent, ok := r.reg.Lookup(parentID)
		if !ok {
			slog.Warn("parent template not found, skipping", "template", tpl.ID, "parent", parentID)
			continue
		}

		chain = append(chain, r.ancestors(parent, visited)...)
		chain = append(chain, parent)
	}
	return chain
}

// mergeDerived merges a more specific template over the accumulated base.
// Scalars override when the derived template sets them; choices and tags
// concatenate parent-first (no dedup - see mergeMixin for the contrast);
// the conditional metadata fields use child-overrides-else-inherit.
func mergeDerived(base, derived content.Template) content.Template {
	out := base

	if derived.Title != "" {
		out.Title = derived.Title
	}
	if derived.Narrative != "" {
		out.Narrative = derived.Narrative
	}
	if derived.Type != "" {
		out.Type = derived.Type
	}
	if derived.Difficulty != 0 {
		out.Difficulty = derived.Difficulty
	}

	out.Choices = concatChoices(base.Choices, derived.Choices)
	out.Tags = concatTags(base.Tags, derived.Tags)

	if len(derived.Conditions) > 0 {
		out.Conditions = derived.Conditions
	}
	if len(derived.ConditionalChoices) > 0 {
		out.ConditionalChoices = derived.ConditionalChoices
	}
	if len(derived.DynamicFields) > 0 {
		out.DynamicFields = derived.DynamicFields
	}
	if len(derived.Composition) > 0 {
		out.Composition = derived.Composition
	}

	return out
}

// mergeMixin merges a mixin as defaults under the template: the template's
// own fields win every conflict. Choices dedup by text with the first
// occurrence winning; tags dedup as a set union. Both differ deliberately
// from the plain inheritance path, which concatenates without dedup.
func mergeMixin(tpl, mixin content.Template) content.Template {
	out := tpl

	if out.Title == "" {
		out.Title = mixin.Title
	}
	if out.Narrative == "" {
		out.Narrative = mixin.Narrative
	}
	if out.Type == "" {
		out.Type = mixin.Type
	}
	if out.Difficulty == 0 {
		out.Difficulty = mixin.Difficulty
	}

	out.Choices = dedupChoices(concatChoices(tpl.Choices, mixin.Choices))
	out.Tags = dedupTags(concatTags(tpl.Tags, mixin.Tags))

	if len(out.Conditions) == 0 {
		out.Conditions = mixin.Conditions
	}
	if len(out.ConditionalChoices) == 0 {
		out.ConditionalChoices = mixin.ConditionalChoices
	}
	if len(out.DynamicFields) == 0 {
		out.DynamicFields = mixin.DynamicFields
	}
	if len(out.Composition) == 0 {
		out.Composition = mixin.Composition
	}

	return out
}

func concatChoices(first, second []content.Choice) []content.Choice {
	if len(first) == 0 && len(second) == 0 {
		return nil
	}
	out := make([]content.Choice, 0, len(first)+len(second))
	out = append(out, first...)
	out = append(out, second...)
	return out
}

func concatTags(first, second []string) []string {
	if len(first) == 0 && len(second) == 0 {
		return nil
	}
	out := make([]string, 0, len(first)+len(second))
	out = append(out, first...)
	out = append(out, second...)
	return out
}

// dedupChoices keeps the first occurrence of each choice text.
func dedupChoices(choices []content.Choice) []content.Choice {
	seen := make(map[string]bool, len(choices))
	out := choices[:0]
	for _, c := range choices {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		out = append(out, c)
	}
	return out
}

// dedupTags keeps the first occurrence of each tag.
func dedupTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
