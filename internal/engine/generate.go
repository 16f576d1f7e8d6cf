package engine

import (
	"log/slog"

	"github.com/narrata/loom/internal/cache"
	"github.com/narrata/loom/internal/compose"
	"github.com/narrata/loom/internal/cond"
	"github.com/narrata/loom/internal/content"
)

// FallbackChoiceText is the synthesized choice used when conditional
// filtering would leave an event with no choices at all.
const FallbackChoiceText = "Continue…"

// GenerateFromTemplate runs the full generation pipeline for a template id.
// Returns nil only when the id is unknown - every other degradation path
// still yields an event with at least one choice.
func (e *Engine) GenerateFromTemplate(id string, ctx content.Context) *content.Event {
	tpl, ok := e.templates[id]
	if !ok {
		slog.Warn("template not found", "id", id)
		return nil
	}

	// Generation tier: exact context match. A hit reuses every field
	// verbatim but substitutes a fresh id - cached generations are
	// content-identical, identity-distinct.
	genKey, err := cache.GenerationKey(id, ctx)
	if err != nil {
		// Unserializable context values disable the generation tier for
		// this call; the pipeline still runs.
		slog.Warn("generation cache key unavailable", "id", id, "error", err)
		genKey = ""
	}
	if genKey != "" {
		if ev, ok := e.cache.GetGeneration(genKey); ok {
			slog.Debug("generation cache hit", "id", id)
			ev.ID = e.idGen.Generate()
			return &ev
		}
	}

	processed := e.processedTemplate(tpl, ctx)
	choices := e.filterChoices(processed, ctx)

	ev := content.Event{
		ID:          e.idGen.Generate(),
		Title:       processed.Title,
		Description: processed.Narrative,
		Choices:     choices,
		Type:        processed.Type,
		Context:     ctx.Snapshot(),
		Difficulty:  processed.Difficulty,
		Tags:        append([]string(nil), processed.Tags...),
		TemplateID:  id,
	}

	if genKey != "" {
		e.cache.PutGeneration(genKey, ev)
	}
	return &ev
}

// processedTemplate returns the resolve/compose/dynamic-fields output,
// memoized under the coarse context bucket. These stages are the expensive
// ones and context-insensitive at fine granularity, so they share across
// calls within a bucket.
func (e *Engine) processedTemplate(tpl content.Template, ctx content.Context) content.Template {
	key := cache.ProcessedKey(tpl.ID, ctx)
	if cached, ok := e.cache.GetProcessed(key); ok {
		slog.Debug("processed cache hit", "id", tpl.ID)
		return cached
	}

	processed := e.resolver.Resolve(tpl)
	processed = e.resolver.Compose(processed, ctx)
	processed = compose.ApplyDynamicFields(processed, ctx)

	e.cache.PutProcessed(key, processed)
	return processed
}

// filterChoices applies conditional-choice visibility per generation call.
// This stage is never cached: it is the most context-sensitive one, and a
// stale cache would show differently-eligible choices.
//
// show_when true (the default) means "show when conditions hold"; false
// inverts the visibility. Choices with no spec are always shown. If nothing
// survives, one fallback choice is synthesized so the event keeps the
// at-least-one-choice guarantee.
func (e *Engine) filterChoices(tpl content.Template, ctx content.Context) []content.Choice {
	var out []content.Choice
	for i, choice := range tpl.Choices {
		spec, gated := tpl.ConditionalChoices[i]
		if gated {
			met := cond.All(spec.Conditions, ctx)
			if met != spec.Show() {
				continue
			}
		}
		out = append(out, choice.Clone())
	}

	if len(out) == 0 {
		slog.Debug("all choices filtered, synthesizing fallback", "id", tpl.ID)
		out = []content.Choice{{Text: FallbackChoiceText, Effect: map[string]float64{}}}
	}
	return out
}
