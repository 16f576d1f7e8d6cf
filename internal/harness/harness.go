// Package harness provides a declarative test framework for the loom
// generation pipeline.
//
// A scenario YAML file names the content to register (a CUE pack, inline
// templates, or both), a player context, a list of generation steps, and
// assertions over the resulting events:
//
//	name: bandit-ambush
//	description: High-level player sees the perception choice
//	pack: ../packs/roadside
//	context:
//	  level: 7
//	  perception: 12
//	generations:
//	  - template: ambush
//	    apply_rules: true
//	assertions:
//	  - type: choice_count
//	    count: 3
//	  - type: has_tag
//	    tag: combat
//
// The harness runs scenarios against the real engine with a deterministic
// id generator, so the same scenario always produces byte-identical events.
// Golden file comparison (golden.go) builds on that determinism.
package harness

import (
	"encoding/json"
	"fmt"

	"github.com/narrata/loom/internal/compiler"
	"github.com/narrata/loom/internal/content"
	"github.com/narrata/loom/internal/engine"
	"github.com/narrata/loom/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success. True if every assertion held.
	Pass bool `json:"pass"`

	// Events contains the generated events in step order.
	Events []content.Event `json:"events"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Events: []content.Event{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine for isolation. Event ids come
// from a sequence generator, so reruns are reproducible.
//
// Execution flow:
//  1. Build engine with deterministic id generator
//  2. Register pack content, then inline templates and rules
//  3. Run each generation step, optionally applying rules
//  4. Evaluate assertions against the collected events
func Run(scenario *Scenario) (*Result, error) {
	eng := engine.New(engine.WithIDGenerator(testutil.NewSequenceGenerator(scenario.IDPrefix)))

	if err := registerContent(eng, scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Generations {
		ctx := buildContext(scenario.Context, step.Context)

		ev := eng.GenerateFromTemplate(step.Template, ctx)
		if ev == nil {
			return nil, fmt.Errorf("generations[%d]: unknown template %q", i, step.Template)
		}
		if step.ApplyRules {
			ev = eng.ProcessEvent(ev, ctx)
		}
		result.Events = append(result.Events, *ev)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// registerContent loads the pack (if any) and the inline definitions into
// the engine. Pack content registers first so inline definitions can rely
// on pack templates as parents and mixins.
func registerContent(eng *engine.Engine, scenario *Scenario) error {
	if scenario.Pack != "" {
		pack, errs := compiler.LoadPack(scenario.Pack)
		if pack == nil {
			return fmt.Errorf("failed to load pack %s: %v", scenario.Pack, errs[0])
		}
		if len(errs) > 0 {
			return fmt.Errorf("pack %s has %d error(s), first: %v", scenario.Pack, len(errs), errs[0])
		}
		for _, tpl := range pack.Templates {
			if !eng.RegisterTemplate(tpl.ID, tpl) {
				return fmt.Errorf("failed to register pack template %q", tpl.ID)
			}
		}
		for _, rule := range pack.Rules {
			eng.AddRule(rule.Name, rule)
		}
	}

	for i, raw := range scenario.Templates {
		var tpl content.Template
		if err := decodeInline(raw, &tpl); err != nil {
			return fmt.Errorf("templates[%d]: %w", i, err)
		}
		if tpl.ID == "" {
			return fmt.Errorf("templates[%d]: id is required", i)
		}
		if !eng.RegisterTemplate(tpl.ID, tpl) {
			return fmt.Errorf("templates[%d]: failed to register %q", i, tpl.ID)
		}
	}

	for i, raw := range scenario.Rules {
		var rule content.Rule
		if err := decodeInline(raw, &rule); err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		if rule.Name == "" {
			return fmt.Errorf("rules[%d]: name is required", i)
		}
		eng.AddRule(rule.Name, rule)
	}

	return nil
}

// decodeInline converts a YAML-parsed map into a content record through the
// JSON unmarshalers, so inline scenario content accepts exactly the catalog
// format (string-or-list extends, integer conditional_choices keys).
func decodeInline(raw map[string]any, target any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode definition: %w", err)
	}
	return nil
}

// buildContext merges the scenario context with a step's overrides.
// Step values win on key collision.
func buildContext(base, override map[string]any) content.Context {
	ctx := make(content.Context, len(base)+len(override))
	for k, v := range base {
		ctx[k] = v
	}
	for k, v := range override {
		ctx[k] = v
	}
	return ctx
}
