package content

// Event is a generated narrative instance. Events are ephemeral: built by
// the engine, optionally cached, returned to the caller, and mutated only by
// the rule engine during the same generation call.
//
// ID is unique per generation call - a cache hit reuses every other field
// verbatim but substitutes a fresh id.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Choices     []Choice `json:"choices"`
	Type        string   `json:"type,omitempty"`
	Context     Context  `json:"context,omitempty"`
	Difficulty  int      `json:"difficulty,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// Urgency is set exclusively by rule effects (last write wins).
	Urgency string `json:"urgency,omitempty"`

	// TemplateID records which template produced the event.
	TemplateID string `json:"template_id,omitempty"`
}

// Clone returns a deep copy of the event. Cached events are cloned on both
// put and get so callers and rules can never mutate shared state.
func (e Event) Clone() Event {
	out := e
	out.Choices = CloneChoices(e.Choices)
	if e.Tags != nil {
		out.Tags = make([]string, len(e.Tags))
		copy(out.Tags, e.Tags)
	}
	out.Context = e.Context.Snapshot()
	return out
}
