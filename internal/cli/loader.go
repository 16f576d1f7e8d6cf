package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/narrata/loom/internal/compiler"
)

// LoadError represents an error that occurred during pack loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadPack loads a content pack and converts errors into coded LoadErrors.
// A nil pack means the directory itself could not be loaded; otherwise the
// pack is usable and the returned errors describe individual records.
func LoadPack(dir string) (*compiler.Pack, []*LoadError) {
	pack, errs := compiler.LoadPack(dir)

	loadErrs := make([]*LoadError, 0, len(errs))
	for _, err := range errs {
		loadErrs = append(loadErrs, convertLoadError(err))
	}
	return pack, loadErrs
}

// convertLoadError attaches an error code and CUE position where available.
func convertLoadError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // CUE load/build failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	// Template validation errors
	ErrCodeTemplateTitle     = "E101" // Missing title
	ErrCodeTemplateNarrative = "E102" // Missing narrative
	ErrCodeTemplateChoices   = "E103" // No choices defined

	// Rule validation errors
	ErrCodeRuleEffects    = "E111" // Missing effects
	ErrCodeRuleConditions = "E112" // Invalid conditions
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "title":
		return ErrCodeTemplateTitle
	case "narrative":
		return ErrCodeTemplateNarrative
	case "choices":
		return ErrCodeTemplateChoices
	case "effects":
		return ErrCodeRuleEffects
	case "conditions":
		return ErrCodeRuleConditions
	case "cue":
		return ErrCodeLoadFailed
	default:
		return ErrCodeGeneric
	}
}
