// Package cond evaluates boolean conditions against a caller context.
//
// The evaluator is a pure function library shared by template composition,
// choice filtering, and the rule engine. Dispatch is a lookup table from
// condition type tag to handler; the default branch warns and evaluates to
// false rather than failing, preserving fail-soft semantics end to end.
package cond

import (
	"log/slog"

	"github.com/narrata/loom/internal/content"
)

// handler evaluates one condition type. Handlers return the raw result;
// negation of atomic results happens in Evaluate.
type handler func(c content.Condition, ctx content.Context) bool

// handlers maps condition type tags to their evaluators. The structural
// types (and/or/not) recurse through Evaluate and are exempt from the
// negate flag, which applies to atomic results only.
var handlers = map[string]handler{
	content.CondStat:         evalStat,
	content.CondItem:         evalItem,
	content.CondRelationship: evalRelationship,
	content.CondQuest:        evalQuest,
	content.CondCustom:       evalCustom,
}

// Evaluate checks a single condition against the context. Pure: no side
// effects beyond a warning log for unknown types.
func Evaluate(c content.Condition, ctx content.Context) bool {
	switch c.Type {
	case content.CondAnd:
		return All(c.Conditions, ctx)
	case content.CondOr:
		return anyOf(c.Conditions, ctx)
	case content.CondNot:
		return !All(c.Conditions, ctx)
	}

	h, ok := handlers[c.Type]
	if !ok {
		slog.Warn("unknown condition type", "type", c.Type)
		return false
	}

	result := h(c, ctx)
	if c.Negate {
		return !result
	}
	return result
}

// All evaluates a condition list under AND semantics. An empty or nil list
// is vacuously true - a template or rule with no conditions always applies.
func All(conditions []content.Condition, ctx content.Context) bool {
	for _, c := range conditions {
		if !Evaluate(c, ctx) {
			return false
		}
	}
	return true
}

func anyOf(conditions []content.Condition, ctx content.Context) bool {
	for _, c := range conditions {
		if Evaluate(c, ctx) {
			return true
		}
	}
	return false
}

// comparators maps operator tags for numeric comparisons.
var comparators = map[string]func(a, b float64) bool{
	content.OpGTE: func(a, b float64) bool { return a >= b },
	content.OpLTE: func(a, b float64) bool { return a <= b },
	content.OpGT:  func(a, b float64) bool { return a > b },
	content.OpLT:  func(a, b float64) bool { return a < b },
	content.OpEQ:  func(a, b float64) bool { return a == b },
	content.OpNEQ: func(a, b float64) bool { return a != b },
}

func compare(op string, a, b float64) bool {
	cmp, ok := comparators[op]
	if !ok {
		slog.Warn("unknown comparison operator", "operator", op)
		return false
	}
	return cmp(a, b)
}

// evalStat compares a numeric context field (dot-path resolved) against the
// condition value. A missing field fails the comparison.
func evalStat(c content.Condition, ctx content.Context) bool {
	actual, ok := ctx.Number(c.Stat)
	if !ok {
		return false
	}
	op := c.Operator
	if op == "" {
		op = content.OpGTE
	}
	return compare(op, actual, c.Value)
}

func evalItem(c content.Condition, ctx content.Context) bool {
	return membership(c.Operator, c.Item, ctx.Strings("inventory"))
}

func evalQuest(c content.Condition, ctx content.Context) bool {
	return membership(c.Operator, c.Quest, ctx.Strings("quests"))
}

// membership implements has/not_has over a string list. The default
// operator is "has".
func membership(op, needle string, haystack []string) bool {
	found := false
	for _, item := range haystack {
		if item == needle {
			found = true
			break
		}
	}
	if op == content.OpNotHas {
		return !found
	}
	return found
}

// evalRelationship compares a relationship strength against the threshold.
// An unknown relationship has strength 0, so "neutral or better" thresholds
// still evaluate sensibly for strangers.
func evalRelationship(c content.Condition, ctx content.Context) bool {
	strength, _ := ctx.Relationship(c.Target)
	op := c.Operator
	if op == "" {
		op = content.OpGTE
	}
	return compare(op, strength, c.Threshold)
}

// evalCustom looks the predicate up by name in the caller-supplied table on
// the context. Missing table or missing predicate evaluates to false.
func evalCustom(c content.Condition, ctx content.Context) bool {
	tbl := ctx.Predicates()
	if tbl == nil {
		return false
	}
	pred, ok := tbl[c.Name]
	if !ok {
		slog.Warn("custom predicate not found", "name", c.Name)
		return false
	}
	return pred(ctx)
}
