// Package compiler turns CUE content packs into loom content records.
//
// A pack is a directory of .cue files declaring templates and rules:
//
//	template: ambush: {
//		title:     "Ambush!"
//		narrative: "Bandits block the road."
//		choices: [{text: "Fight"}, {text: "Flee"}]
//	}
//
//	rule: "night-urgency": {
//		conditions: [{type: "stat", stat: "level", operator: "gte", value: 5}]
//		effects: setUrgency: "high"
//	}
//
// Compilation preserves CUE source positions in errors so authors get
// file:line:column diagnostics, and AnalyzeCycles performs static analysis
// over the template reference graph before anything reaches an engine.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
