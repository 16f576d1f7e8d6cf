package content

// Condition is a tagged union: Type selects which fields are meaningful and
// which handler evaluates it. Unknown types evaluate to false (with a
// warning) rather than failing the pipeline.
type Condition struct {
	// Type is one of the Cond* constants.
	Type string `json:"type"`

	// Stat comparison: Stat is a dot-path into the context, Operator one of
	// gte/lte/gt/lt/eq/neq, Value the comparison operand.
	Stat     string  `json:"stat,omitempty"`
	Operator string  `json:"operator,omitempty"`
	Value    float64 `json:"value,omitempty"`

	// Inventory membership: Operator is "has" (default) or "not_has".
	Item string `json:"item,omitempty"`

	// Relationship threshold: Target names the relationship, Threshold the
	// bound, Operator the comparison (default gte).
	Target    string  `json:"target,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`

	// Quest flag membership: Operator is "has" (default) or "not_has".
	Quest string `json:"quest,omitempty"`

	// Custom predicate name, looked up in the context's predicate table.
	Name string `json:"name,omitempty"`

	// Nested conditions for the structural types and/or/not.
	Conditions []Condition `json:"conditions,omitempty"`

	// Negate inverts the result of an atomic condition.
	Negate bool `json:"negate,omitempty"`
}

// Condition types.
const (
	CondStat         = "stat"
	CondItem         = "item"
	CondRelationship = "relationship"
	CondQuest        = "quest"
	CondCustom       = "custom"
	CondAnd          = "and"
	CondOr           = "or"
	CondNot          = "not"
)

// Comparison operators.
const (
	OpGTE = "gte"
	OpLTE = "lte"
	OpGT  = "gt"
	OpLT  = "lt"
	OpEQ  = "eq"
	OpNEQ = "neq"

	OpHas    = "has"
	OpNotHas = "not_has"
)

// KnownConditionType reports whether t names a recognized condition type.
// Used by rule validation; the evaluator handles unknown types by warning
// and returning false.
func KnownConditionType(t string) bool {
	switch t {
	case CondStat, CondItem, CondRelationship, CondQuest, CondCustom,
		CondAnd, CondOr, CondNot:
		return true
	}
	return false
}
