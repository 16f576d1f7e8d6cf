package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narrata/loom/internal/compiler"
	"github.com/narrata/loom/internal/engine"
	"github.com/narrata/loom/internal/rules"
)

// ValidationError describes a single problem found during validation.
type ValidationError struct {
	Record  string `json:"record"`  // "template.<id>" or "rule.<name>"
	Message string `json:"message"` // human-readable message
	Code    string `json:"code"`    // error code (E1xx)
}

// ValidationReport holds validation results for a pack.
type ValidationReport struct {
	Valid    bool                    `json:"valid"`
	Errors   []ValidationError       `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <pack-dir>",
		Short: "Validate a content pack without writing a catalog",
		Long: `Validate CUE templates and rules without producing output files.

Checks required fields, rule structure, and reference cycles across
extends, mixins, and composition. Cycles are reported as warnings since
resolution handles them safely, but they usually indicate a mistake.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, packDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pack, loadErrors := LoadPack(packDir)
	if pack == nil {
		_ = formatter.Error(loadErrors[0].Code, loadErrors[0].Message, nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", pack.FileCount, packDir)

	report := ValidationReport{Valid: true}

	// Compile errors first: a record that did not compile produces exactly
	// one entry and skips the structural checks below.
	for _, loadErr := range loadErrors {
		report.Errors = append(report.Errors, ValidationError{
			Record:  "pack",
			Message: loadErr.Message,
			Code:    loadErr.Code,
		})
	}

	for _, tpl := range pack.Templates {
		formatter.VerboseLog("Validating template: %s", tpl.ID)
		if v := engine.ValidateTemplate(tpl); !v.Valid {
			for _, msg := range v.Errors {
				report.Errors = append(report.Errors, ValidationError{
					Record:  "template." + tpl.ID,
					Message: msg,
					Code:    templateErrorCode(msg),
				})
			}
		}
	}

	for _, rule := range pack.Rules {
		formatter.VerboseLog("Validating rule: %s", rule.Name)
		if v := rules.Validate(rule); !v.Valid {
			for _, msg := range v.Errors {
				report.Errors = append(report.Errors, ValidationError{
					Record:  "rule." + rule.Name,
					Message: msg,
					Code:    ErrCodeRuleConditions,
				})
			}
		}
	}

	report.Warnings = compiler.AnalyzeCycles(pack.Templates)
	report.Valid = len(report.Errors) == 0

	return outputValidationReport(formatter, report)
}

// templateErrorCode maps a structural validation message to an error code.
func templateErrorCode(msg string) string {
	switch {
	case msg == "title is required":
		return ErrCodeTemplateTitle
	case msg == "narrative is required":
		return ErrCodeTemplateNarrative
	default:
		return ErrCodeTemplateChoices
	}
}

// outputValidationReport renders the report and picks the exit code.
func outputValidationReport(formatter *OutputFormatter, report ValidationReport) error {
	if formatter.Format == "json" {
		if report.Valid {
			return formatter.Success(report)
		}

		response := CLIResponse{
			Status: "error",
			Data:   report,
			Error: &CLIError{
				Code:    report.Errors[0].Code,
				Message: report.Errors[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(report.Errors)))
	}

	// Text format
	for _, warning := range report.Warnings {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", warning.Message)
	}

	if report.Valid {
		fmt.Fprintln(formatter.Writer, "✓ Pack valid")
		return nil
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range report.Errors {
		fmt.Fprintf(formatter.Writer, "  %s [%s]: %s\n", err.Record, err.Code, err.Message)
	}
	fmt.Fprintln(formatter.Writer)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(report.Errors)))
}
