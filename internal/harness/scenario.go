package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a declarative generation test.
// Scenarios register content, generate events against a context, and assert
// on the resulting events.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pack is an optional path to a CUE content pack directory.
	// Relative paths are resolved against the scenario file location.
	Pack string `yaml:"pack,omitempty"`

	// Templates holds inline template definitions, in the same shape as the
	// JSON catalog format. Inline templates register after the pack, so a
	// scenario can layer test-only templates over shared pack content.
	Templates []map[string]any `yaml:"templates,omitempty"`

	// Rules holds inline rule definitions.
	Rules []map[string]any `yaml:"rules,omitempty"`

	// Context is the player context shared by all generation steps.
	Context map[string]any `yaml:"context,omitempty"`

	// Generations lists the events to generate, in order.
	Generations []GenerationStep `yaml:"generations"`

	// Assertions validate the generated events.
	Assertions []Assertion `yaml:"assertions"`

	// IDPrefix overrides the deterministic event id prefix.
	// Defaults to "event", giving ids "event-1", "event-2", ...
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// GenerationStep generates one event from a template.
type GenerationStep struct {
	// Template is the template id to generate from.
	Template string `yaml:"template"`

	// Context overrides fields of the scenario context for this step only.
	Context map[string]any `yaml:"context,omitempty"`

	// ApplyRules runs the rule engine over the generated event.
	ApplyRules bool `yaml:"apply_rules,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields. The pack path is
// resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file, resolving
// the pack path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Pack != "" && !filepath.IsAbs(scenario.Pack) && basePath != "" {
		scenario.Pack = filepath.Join(basePath, scenario.Pack)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Pack == "" && len(s.Templates) == 0 {
		return fmt.Errorf("a pack path or inline templates are required")
	}

	if s.Pack != "" {
		if _, err := os.Stat(s.Pack); os.IsNotExist(err) {
			return fmt.Errorf("pack directory not found: %s", s.Pack)
		}
	}

	if len(s.Generations) == 0 {
		return fmt.Errorf("generations list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Generations {
		if step.Template == "" {
			return fmt.Errorf("generations[%d]: template is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Generations)); err != nil {
			return err
		}
	}

	return nil
}
