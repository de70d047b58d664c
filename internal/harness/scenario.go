package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a wiring of demo units, a
// script of commands, and expectations on the final states.
type Scenario struct {
	// Name uniquely identifies the scenario. Golden files are keyed by
	// it.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Wiring selects the demo domains to register: "counter",
	// "checkout", or both. Empty means both.
	Wiring []string `yaml:"wiring,omitempty"`

	// MaxSteps overrides the reaction step budget. Zero keeps the
	// default.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Steps is the command script, dispatched in order.
	Steps []Step `yaml:"steps"`

	// Expect holds final-state expectations, checked after the script
	// completes.
	Expect Expect `yaml:"expect,omitempty"`
}

// Step dispatches one command to one unit.
type Step struct {
	Unit    string         `yaml:"unit"`
	Command string         `yaml:"command"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Expect declares the final states the scenario must reach. States maps
// unit name to the expected state value; comparison is on canonical
// JSON bytes, so field order in the scenario file does not matter.
type Expect struct {
	States map[string]map[string]any `yaml:"states,omitempty"`
}

// LoadScenario reads and strictly decodes a scenario file. Unknown
// fields are errors so typos in scenario files fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: at least one step is required", path)
	}
	return &sc, nil
}
