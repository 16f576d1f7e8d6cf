package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/narrata/loom/internal/content"
)

// EventSnapshot captures the full event list for a scenario execution.
// Serialized with canonical JSON so map ordering and Unicode normalization
// never produce spurious golden diffs.
type EventSnapshot struct {
	ScenarioName string
	Events       []content.Event
}

// toCanonicalMap converts the snapshot to plain maps for MarshalCanonical,
// which only handles primitives and map/slice shapes. Events go through
// their JSON form so the snapshot matches the catalog field names.
func (s *EventSnapshot) toCanonicalMap() (map[string]any, error) {
	eventList := make([]any, len(s.Events))
	for i, ev := range s.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", ev.ID, err)
		}
		eventList[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"events":        eventList,
	}, nil
}

// RunWithGolden executes a scenario and compares the generated events
// against a golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution or serialization fails. A mismatch
// against the golden file fails the test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	eventJSON, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, eventJSON)

	return nil
}

// SnapshotJSON serializes a result's events as a canonical JSON snapshot.
// The CLI test command uses this for its own golden comparison, so CLI
// golden files and go-test golden files share one format.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := EventSnapshot{
		ScenarioName: scenarioName,
		Events:       result.Events,
	}
	canonicalMap, err := snapshot.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return content.MarshalCanonical(canonicalMap)
}
