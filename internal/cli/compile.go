package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/narrata/loom/internal/content"
	"github.com/narrata/loom/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output catalog file path
	DB     string // SQLite catalog path
}

// Catalog holds the compiled templates and rules.
type Catalog struct {
	Templates []content.Template `json:"templates"`
	Rules     []content.Rule     `json:"rules"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <pack-dir>",
		Short: "Compile a CUE content pack to a catalog",
		Long: `Compile CUE templates and rules to the JSON catalog format.

The compiler parses CUE files, checks required fields, and outputs the
catalog consumed by the engine. With --db the catalog is written to a
SQLite database instead of (or in addition to) a JSON file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Errors are formatted by our own output path
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output catalog file path")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite catalog path to write templates and rules into")

	return cmd
}

func runCompile(opts *CompileOptions, packDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	pack, loadErrors := LoadPack(packDir)
	if pack == nil {
		return outputCompileError(formatter, loadErrors[0].Code, loadErrors[0].Message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", pack.FileCount, packDir)
	for _, tpl := range pack.Templates {
		formatter.VerboseLog("Compiled template: %s", tpl.ID)
	}
	for _, rule := range pack.Rules {
		formatter.VerboseLog("Compiled rule: %s", rule.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	catalog := &Catalog{
		Templates: pack.Templates,
		Rules:     pack.Rules,
	}

	if opts.Output != "" {
		if err := writeCatalogToFile(catalog, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if opts.DB != "" {
		if err := writeCatalogToStore(cmd, catalog, opts.DB); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing catalog database: %v", err))
		}
	}

	return outputCompileSuccess(formatter, catalog, opts)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, catalog *Catalog, opts *CompileOptions) error {
	if formatter.Format == "json" {
		return formatter.Success(catalog)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d template(s), %d rule(s)\n\n",
		len(catalog.Templates), len(catalog.Rules))

	if len(catalog.Templates) > 0 {
		fmt.Fprintln(formatter.Writer, "Templates:")
		for _, tpl := range catalog.Templates {
			fmt.Fprintf(formatter.Writer, "  %s: %d choice(s)", tpl.ID, len(tpl.Choices))
			if len(tpl.Extends) > 0 {
				fmt.Fprintf(formatter.Writer, ", extends %v", []string(tpl.Extends))
			}
			fmt.Fprintln(formatter.Writer)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if len(catalog.Rules) > 0 {
		fmt.Fprintln(formatter.Writer, "Rules:")
		for _, rule := range catalog.Rules {
			fmt.Fprintf(formatter.Writer, "  %s: priority %d, %d effect(s)\n",
				rule.Name, rule.Priority, len(rule.Effects))
		}
		fmt.Fprintln(formatter.Writer)
	}

	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote catalog to %s\n", opts.Output)
	}
	if opts.DB != "" {
		fmt.Fprintf(formatter.Writer, "Wrote catalog database to %s\n", opts.DB)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []*LoadError) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = CLIError{
				Code:    err.Code,
				Message: err.Message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				err.Pos.Filename(), err.Pos.Line(), err.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeCatalogToFile writes the catalog to a file as indented JSON.
// Indented JSON here is for readability; canonical JSON is only used for
// cache keys and golden snapshots.
func writeCatalogToFile(catalog *Catalog, filename string) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// writeCatalogToStore persists the catalog into a SQLite database.
func writeCatalogToStore(cmd *cobra.Command, catalog *Catalog, path string) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	for _, tpl := range catalog.Templates {
		if err := st.SaveTemplate(ctx, tpl); err != nil {
			return err
		}
	}
	for _, rule := range catalog.Rules {
		if err := st.SaveRule(ctx, rule.Name, rule); err != nil {
			return err
		}
	}
	return nil
}
