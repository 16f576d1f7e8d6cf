package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/narrata/loom/internal/content"
	"github.com/narrata/loom/internal/engine"
	"github.com/narrata/loom/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Template    string // template id to generate from
	ContextFile string // player context YAML path
	Count       int    // number of events to generate
	NoRules     bool   // skip the rule engine
	Archive     string // SQLite path to archive events into
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <pack-dir>",
		Short: "Generate events from a content pack",
		Long: `Generate narrative events from a compiled content pack.

Loads the pack, registers its templates and rules, and runs the full
generation pipeline against a player context read from a YAML file.
Generated events print to stdout; --archive appends them to a SQLite
event archive.

Examples:
  loom generate ./packs/roadside --template ambush --context player.yaml
  loom generate ./packs/roadside --template ambush --context player.yaml --count 3 --archive events.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "template id to generate from (required)")
	cmd.Flags().StringVarP(&opts.ContextFile, "context", "c", "", "player context YAML file")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of events to generate")
	cmd.Flags().BoolVar(&opts.NoRules, "no-rules", false, "skip rule post-processing")
	cmd.Flags().StringVar(&opts.Archive, "archive", "", "SQLite path to archive generated events into")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func runGenerate(opts *GenerateOptions, packDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Count < 1 {
		return NewExitError(ExitCommandError, "count must be at least 1")
	}

	pack, loadErrors := LoadPack(packDir)
	if pack == nil {
		_ = formatter.Error(loadErrors[0].Code, loadErrors[0].Message, nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	ctx, err := loadPlayerContext(opts.ContextFile)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	eng := engine.New()
	for _, tpl := range pack.Templates {
		if !eng.RegisterTemplate(tpl.ID, tpl) {
			msg := fmt.Sprintf("failed to register template %q", tpl.ID)
			_ = formatter.Error(ErrCodeGeneric, msg, nil)
			return NewExitError(ExitFailure, msg)
		}
	}
	for _, rule := range pack.Rules {
		eng.AddRule(rule.Name, rule)
	}

	formatter.VerboseLog("Registered %d template(s), %d rule(s)", eng.TemplateCount(), len(pack.Rules))

	events := make([]content.Event, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		ev := eng.GenerateFromTemplate(opts.Template, ctx)
		if ev == nil {
			msg := fmt.Sprintf("unknown template %q", opts.Template)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		if !opts.NoRules {
			ev = eng.ProcessEvent(ev, ctx)
		}
		events = append(events, *ev)
	}

	if opts.Archive != "" {
		if err := archiveEvents(cmd, events, opts.Archive); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		formatter.VerboseLog("Archived %d event(s) to %s", len(events), opts.Archive)
	}

	return outputEvents(formatter, events)
}

// loadPlayerContext reads a context YAML file into a Context.
// A missing path yields an empty context.
func loadPlayerContext(path string) (content.Context, error) {
	if path == "" {
		return content.Context{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing context file: %w", err)
	}
	return content.Context(raw), nil
}

// archiveEvents appends events to the SQLite archive.
func archiveEvents(cmd *cobra.Command, events []content.Event, path string) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, ev := range events {
		if err := st.ArchiveEvent(cmd.Context(), ev); err != nil {
			return err
		}
	}
	return nil
}

// outputEvents renders the generated events.
func outputEvents(formatter *OutputFormatter, events []content.Event) error {
	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: events}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	}

	for _, ev := range events {
		fmt.Fprintf(formatter.Writer, "%s  [%s]\n", ev.Title, ev.ID)
		fmt.Fprintf(formatter.Writer, "  %s\n", ev.Description)
		if len(ev.Tags) > 0 {
			fmt.Fprintf(formatter.Writer, "  tags: %v\n", ev.Tags)
		}
		if ev.Urgency != "" {
			fmt.Fprintf(formatter.Writer, "  urgency: %s\n", ev.Urgency)
		}
		for i, choice := range ev.Choices {
			fmt.Fprintf(formatter.Writer, "  [%d] %s\n", i+1, choice.Text)
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}
