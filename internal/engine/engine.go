package engine

import (
	"log/slog"

	"github.com/narrata/loom/internal/cache"
	"github.com/narrata/loom/internal/compose"
	"github.com/narrata/loom/internal/cond"
	"github.com/narrata/loom/internal/content"
	"github.com/narrata/loom/internal/rules"
)

// Engine generates narrative events from registered templates and
// post-processes them through the rule engine.
type Engine struct {
	templates map[string]content.Template
	resolver  *compose.Resolver
	cache     *cache.Cache
	rules     *rules.Engine
	idGen     IDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the event id generator. Tests use
// testutil.NewSequenceGenerator for deterministic ids.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = gen
	}
}

// New creates an engine with an empty template registry and rule set.
func New(opts ...Option) *Engine {
	e := &Engine{
		templates: make(map[string]content.Template),
		cache:     cache.New(),
		rules:     rules.NewEngine(),
		idGen:     UUIDGenerator{},
	}
	e.resolver = compose.NewResolver(e)

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookup implements compose.Registry over the in-memory template table.
func (e *Engine) Lookup(id string) (content.Template, bool) {
	tpl, ok := e.templates[id]
	return tpl, ok
}

// RegisterTemplate adds a template under the given id. Returns false if the
// id is already registered or the template fails structural validation
// (title, narrative, and a non-empty base choice list are required).
//
// Successful registration purges cache entries referencing the id, covering
// the re-register-after-unregister path.
func (e *Engine) RegisterTemplate(id string, tpl content.Template) bool {
	if _, exists := e.templates[id]; exists {
		slog.Warn("template already registered", "id", id)
		return false
	}
	if v := ValidateTemplate(tpl); !v.Valid {
		slog.Warn("template failed validation", "id", id, "errors", v.Errors)
		return false
	}

	tpl.ID = id
	e.templates[id] = tpl
	e.cache.Invalidate(id)
	return true
}

// UnregisterTemplate removes a template and purges every cache entry whose
// key references it. Returns false if the id is unknown.
func (e *Engine) UnregisterTemplate(id string) bool {
	if _, exists := e.templates[id]; !exists {
		return false
	}
	delete(e.templates, id)
	e.cache.Invalidate(id)
	return true
}

// TemplateCount returns the number of registered templates.
func (e *Engine) TemplateCount() int {
	return len(e.templates)
}

// TemplateIDs returns the registered ids in arbitrary order.
func (e *Engine) TemplateIDs() []string {
	ids := make([]string, 0, len(e.templates))
	for id := range e.templates {
		ids = append(ids, id)
	}
	return ids
}

// Eligible evaluates the template-level gating conditions against a context.
// Callers use it to select candidate templates; generation itself does not
// gate on it. Unknown ids are ineligible.
func (e *Engine) Eligible(id string, ctx content.Context) bool {
	tpl, ok := e.templates[id]
	if !ok {
		return false
	}
	return cond.All(tpl.Conditions, ctx)
}

// AddRule registers a rule under the given name.
func (e *Engine) AddRule(name string, rule content.Rule) {
	e.rules.AddRule(name, rule)
}

// RemoveRule deletes a rule by name; false if absent.
func (e *Engine) RemoveRule(name string) bool {
	return e.rules.RemoveRule(name)
}

// Rules returns a copy of the rule table keyed by name.
func (e *Engine) Rules() map[string]content.Rule {
	return e.rules.Rules()
}

// ValidateRule reports structural problems with a rule without registering it.
func (e *Engine) ValidateRule(rule content.Rule) content.Validation {
	return rules.Validate(rule)
}

// ProcessEvent applies the registered rules to an already-generated event.
// This is the orchestrator's entry point between core generation and any
// downstream post-processing.
func (e *Engine) ProcessEvent(ev *content.Event, ctx content.Context) *content.Event {
	return e.rules.ProcessEvent(ev, ctx)
}

// CacheStats exposes the cache hit/miss counters for tests and diagnostics.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// ClearCaches drops both cache tiers.
func (e *Engine) ClearCaches() {
	e.cache.Clear()
}

// ValidateTemplate performs the structural checks RegisterTemplate enforces.
func ValidateTemplate(tpl content.Template) content.Validation {
	var errs []string
	if tpl.Title == "" {
		errs = append(errs, "title is required")
	}
	if tpl.Narrative == "" {
		errs = append(errs, "narrative is required")
	}
	if len(tpl.Choices) == 0 {
		errs = append(errs, "at least one base choice is required")
	}
	return content.Validation{Valid: len(errs) == 0, Errors: errs}
}
