// Package rules implements the post-generation rule engine.
//
// Rules are stored by name and evaluated fresh on every call - never cached,
// because the context varies per call. Evaluation order is descending
// priority with insertion-order tie-break (stable sort), and effects mutate
// the event in place so lower-priority rules see the accumulated result of
// earlier ones.
package rules

import (
	"log/slog"
	"sort"

	"github.com/narrata/loom/internal/cond"
	"github.com/narrata/loom/internal/content"
)

// Engine is the rule store plus evaluator. Single-owner like the rest of the
// pipeline: mutations (AddRule/RemoveRule) are expected between generation
// bursts, not concurrently with them.
type Engine struct {
	rules map[string]content.Rule

	// order tracks insertion sequence for stable priority tie-breaks.
	order []string
}

// NewEngine creates an empty rule engine.
func NewEngine() *Engine {
	return &Engine{rules: make(map[string]content.Rule)}
}

// AddRule registers or replaces a rule under the given name. Re-adding an
// existing name keeps its original insertion position for tie-breaking.
func (e *Engine) AddRule(name string, rule content.Rule) {
	if _, exists := e.rules[name]; !exists {
		e.order = append(e.order, name)
	}
	rule.Name = name
	e.rules[name] = rule
}

// RemoveRule deletes a rule by name. Returns false if no such rule exists.
func (e *Engine) RemoveRule(name string) bool {
	if _, exists := e.rules[name]; !exists {
		return false
	}
	delete(e.rules, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// Rules returns a copy of the rule table keyed by name.
func (e *Engine) Rules() map[string]content.Rule {
	out := make(map[string]content.Rule, len(e.rules))
	for name, rule := range e.rules {
		out[name] = rule
	}
	return out
}

// Len returns the number of registered rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// ProcessEvent evaluates every enabled rule against the context and applies
// the effects of matching rules to the event, in priority order.
//
// Rule conditions use AND semantics; embedded and/or/not composite nodes
// define their own sub-logic. A matching rule's effects mutate the event in
// place before the next rule is evaluated.
func (e *Engine) ProcessEvent(ev *content.Event, ctx content.Context) *content.Event {
	if ev == nil {
		return nil
	}

	for _, rule := range e.active() {
		if !cond.All(rule.Conditions, ctx) {
			continue
		}
		slog.Debug("rule matched", "rule", rule.Name, "event", ev.ID)
		applyEffects(ev, rule)
	}
	return ev
}

// active returns enabled rules sorted descending by priority; ties keep
// insertion order.
func (e *Engine) active() []content.Rule {
	out := make([]content.Rule, 0, len(e.rules))
	for _, name := range e.order {
		rule, ok := e.rules[name]
		if !ok || !rule.IsEnabled() {
			continue
		}
		out = append(out, rule)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}
