package rules

import (
	"log/slog"

	"github.com/narrata/loom/internal/content"
)

// effectApplier mutates the event for one effect type.
type effectApplier func(ev *content.Event, payload any, rule string)

// effectOrder fixes the application sequence within a single rule. Effects
// are independent per key, but text and numeric effects interact across
// rules, so a deterministic order matters for reproducible output.
var effectOrder = []string{
	content.EffectAddTags,
	content.EffectModifyTitle,
	content.EffectModifyDescription,
	content.EffectAdjustEffects,
	content.EffectModifyDifficulty,
	content.EffectSetUrgency,
	content.EffectAddContext,
}

var effectAppliers = map[string]effectApplier{
	content.EffectAddTags:           applyAddTags,
	content.EffectModifyTitle:       applyModifyTitle,
	content.EffectModifyDescription: applyModifyDescription,
	content.EffectAdjustEffects:     applyAdjustEffects,
	content.EffectModifyDifficulty:  applyModifyDifficulty,
	content.EffectSetUrgency:        applySetUrgency,
	content.EffectAddContext:        applyAddContext,
}

// applyEffects runs a rule's effects in the fixed order, then warns about
// any unrecognized effect keys. A bad payload skips only that effect.
func applyEffects(ev *content.Event, rule content.Rule) {
	for _, key := range effectOrder {
		payload, ok := rule.Effects[key]
		if !ok {
			continue
		}
		effectAppliers[key](ev, payload, rule.Name)
	}

	for key := range rule.Effects {
		if _, known := effectAppliers[key]; !known {
			slog.Warn("unknown effect type, skipping", "rule", rule.Name, "effect", key)
		}
	}
}

func applyAddTags(ev *content.Event, payload any, rule string) {
	tags := toStringList(payload)
	if tags == nil {
		slog.Warn("addTags payload must be a string list", "rule", rule)
		return
	}
	ev.Tags = append(ev.Tags, tags...)
}

// applyModifyTitle handles {append|prepend|replace: string}. When multiple
// verbs are given they apply append, then prepend, then replace - replace
// wins by going last.
func applyModifyTitle(ev *content.Event, payload any, rule string) {
	spec, ok := toTextSpec(payload)
	if !ok {
		slog.Warn("modifyTitle payload must be an object of string verbs", "rule", rule)
		return
	}
	ev.Title = applyTextSpec(ev.Title, spec)
}

func applyModifyDescription(ev *content.Event, payload any, rule string) {
	spec, ok := toTextSpec(payload)
	if !ok {
		slog.Warn("modifyDescription payload must be an object of string verbs", "rule", rule)
		return
	}
	ev.Description = applyTextSpec(ev.Description, spec)
}

// applyAdjustEffects adds numeric deltas into every choice's effect map for
// keys the choice already carries. It never creates new keys.
func applyAdjustEffects(ev *content.Event, payload any, rule string) {
	deltas := toNumberMap(payload)
	if deltas == nil {
		slog.Warn("adjustEffects payload must be a map of numbers", "rule", rule)
		return
	}
	for i := range ev.Choices {
		for stat, delta := range deltas {
			if _, ok := ev.Choices[i].Effect[stat]; ok {
				ev.Choices[i].Effect[stat] += delta
			}
		}
	}
}

func applyModifyDifficulty(ev *content.Event, payload any, rule string) {
	n, ok := toNumber(payload)
	if !ok {
		slog.Warn("modifyDifficulty payload must be a number", "rule", rule)
		return
	}
	ev.Difficulty = int(n)
}

func applySetUrgency(ev *content.Event, payload any, rule string) {
	s, ok := payload.(string)
	if !ok {
		slog.Warn("setUrgency payload must be a string", "rule", rule)
		return
	}
	ev.Urgency = s
}

// applyAddContext shallow-merges extra fields into the event's context
// snapshot.
func applyAddContext(ev *content.Event, payload any, rule string) {
	extra, ok := payload.(map[string]any)
	if !ok {
		slog.Warn("addContext payload must be an object", "rule", rule)
		return
	}
	if ev.Context == nil {
		ev.Context = content.Context{}
	}
	for k, v := range extra {
		ev.Context[k] = v
	}
}

// textSpec holds the verbs of a modifyTitle/modifyDescription payload.
type textSpec struct {
	appendText  string
	prependText string
	replaceText string
	hasReplace  bool
}

func toTextSpec(payload any) (textSpec, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return textSpec{}, false
	}
	var spec textSpec
	if v, ok := m["append"].(string); ok {
		spec.appendText = v
	}
	if v, ok := m["prepend"].(string); ok {
		spec.prependText = v
	}
	if v, ok := m["replace"].(string); ok {
		spec.replaceText = v
		spec.hasReplace = true
	}
	return spec, true
}

func applyTextSpec(current string, spec textSpec) string {
	out := current
	if spec.appendText != "" {
		out += spec.appendText
	}
	if spec.prependText != "" {
		out = spec.prependText + out
	}
	if spec.hasReplace {
		out = spec.replaceText
	}
	return out
}

func toStringList(payload any) []string {
	switch list := payload.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

func toNumberMap(payload any) map[string]float64 {
	switch m := payload.(type) {
	case map[string]float64:
		out := make(map[string]float64, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, v := range m {
			n, ok := toNumber(v)
			if !ok {
				return nil
			}
			out[k] = n
		}
		return out
	}
	return nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
