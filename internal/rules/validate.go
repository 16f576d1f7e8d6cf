package rules

import (
	"fmt"

	"github.com/narrata/loom/internal/content"
)

// Validate performs structural validation of a rule. It never panics; bad
// input comes back as a result object so callers can reject registrations
// gracefully.
//
// Checks: conditions must all carry recognized type tags (recursively for
// composite nodes), and effects must be present.
func Validate(rule content.Rule) content.Validation {
	var errs []string

	errs = append(errs, validateConditions(rule.Conditions, "conditions")...)

	if len(rule.Effects) == 0 {
		errs = append(errs, "effects are required")
	}

	return content.Validation{Valid: len(errs) == 0, Errors: errs}
}

func validateConditions(conditions []content.Condition, path string) []string {
	var errs []string
	for i, c := range conditions {
		at := fmt.Sprintf("%s[%d]", path, i)
		if !content.KnownConditionType(c.Type) {
			errs = append(errs, fmt.Sprintf("%s: unknown condition type %q", at, c.Type))
			continue
		}
		switch c.Type {
		case content.CondAnd, content.CondOr, content.CondNot:
			if len(c.Conditions) == 0 {
				errs = append(errs, fmt.Sprintf("%s: composite %q requires nested conditions", at, c.Type))
			}
			errs = append(errs, validateConditions(c.Conditions, at)...)
		}
	}
	return errs
}
