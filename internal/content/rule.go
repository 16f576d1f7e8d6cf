package content

// Rule is a named condition set plus effects, applied to an event after
// generation. Rules are evaluated fresh on every call (never cached) because
// the context varies per call.
type Rule struct {
	Name       string      `json:"name,omitempty"`
	Conditions []Condition `json:"conditions"`

	// Effects maps effect type -> payload. Payload shapes per type:
	//   addTags:           []string
	//   modifyTitle:       {append|prepend|replace: string}
	//   modifyDescription: {append|prepend|replace: string}
	//   adjustEffects:     {stat: number}
	//   modifyDifficulty:  number
	//   setUrgency:        string
	//   addContext:        {key: value}
	// Unknown types are warned about and skipped.
	Effects map[string]any `json:"effects"`

	// Priority orders evaluation: higher runs first, ties break by insertion
	// order. Default 0.
	Priority int `json:"priority,omitempty"`

	// Enabled defaults to true when absent.
	Enabled *bool `json:"enabled,omitempty"`
}

// IsEnabled reports the effective enabled flag.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Effect types recognized by the rule engine.
const (
	EffectAddTags           = "addTags"
	EffectModifyTitle       = "modifyTitle"
	EffectModifyDescription = "modifyDescription"
	EffectAdjustEffects     = "adjustEffects"
	EffectModifyDifficulty  = "modifyDifficulty"
	EffectSetUrgency        = "setUrgency"
	EffectAddContext        = "addContext"
)

// Validation is the result-object form of structural validation: malformed
// rules and templates are reported, never panicked over.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
