// Package harness runs conformance scenarios against a real System.
//
// Scenarios are YAML files: a wiring of demo units, a command script,
// and final-state expectations. Runs are fully deterministic: the
// logical clock starts at zero and flow tokens come from a fixed
// source, so the same scenario always produces the same trace. Golden
// files lock that trace down.
package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weftlabs/weft/internal/canon"
	"github.com/weftlabs/weft/internal/demo"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/testutil"
	"github.com/weftlabs/weft/internal/trace"
)

// Result captures one scenario execution.
type Result struct {
	// States holds each unit's final state as canonical JSON.
	States map[string][]byte

	// Trace is the full trace, oldest first.
	Trace []trace.Entry

	// Failures lists unmet expectations. Empty means the scenario
	// passed.
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes a scenario on a fresh System and evaluates its
// expectations. Execution errors (bad wiring, unknown units or command
// kinds) return an error; expectation mismatches land in
// Result.Failures instead.
func Run(scenario *Scenario) (*Result, error) {
	tokens := make([]string, len(scenario.Steps))
	for i := range tokens {
		tokens[i] = fmt.Sprintf("flow-%04d", i+1)
	}

	opts := []engine.Option{
		engine.WithClock(trace.NewClock()),
		engine.WithTokenSource(testutil.NewFixedTokenSource(tokens...)),
	}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}

	sys := engine.NewSystem(opts...)
	defer sys.Destroy()

	if err := wire(sys, scenario.Wiring); err != nil {
		return nil, err
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		unit, err := sys.Unit(step.Unit)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		var payload []byte
		if step.Payload != nil {
			payload, err = json.Marshal(step.Payload)
			if err != nil {
				return nil, fmt.Errorf("step %d: encode payload: %w", i+1, err)
			}
		}
		cmd, err := demo.DecodeCommand(step.Command, payload)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		unit.Dispatch(ctx, cmd)
	}

	result := &Result{States: make(map[string][]byte)}
	for _, name := range sys.Units() {
		unit, err := sys.Unit(name)
		if err != nil {
			return nil, err
		}
		state, err := canon.Encode(unit.State())
		if err != nil {
			return nil, fmt.Errorf("encode final state of %q: %w", name, err)
		}
		result.States[name] = state
	}

	// Ring snapshots are most-recent-first; scenarios read forward.
	snap := sys.Trace()
	result.Trace = make([]trace.Entry, len(snap))
	for i, e := range snap {
		result.Trace[len(snap)-1-i] = e
	}

	evaluate(scenario, result)
	return result, nil
}

func wire(sys *engine.System, wiring []string) error {
	if len(wiring) == 0 {
		wiring = []string{"counter", "checkout"}
	}
	for _, w := range wiring {
		switch w {
		case "counter":
			if _, err := demo.AddCounter(sys, "counter"); err != nil {
				return fmt.Errorf("wire counter: %w", err)
			}
		case "checkout":
			if _, err := demo.WireCheckout(sys); err != nil {
				return fmt.Errorf("wire checkout: %w", err)
			}
		default:
			return fmt.Errorf("unknown wiring %q", w)
		}
	}
	return nil
}

// evaluate checks expectations, comparing canonical bytes so map key
// order never matters.
func evaluate(scenario *Scenario, result *Result) {
	for unit, want := range scenario.Expect.States {
		got, ok := result.States[unit]
		if !ok {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expected state for unregistered unit %q", unit))
			continue
		}

		wantBytes, err := canon.Encode(want)
		if err != nil {
			result.Failures = append(result.Failures,
				fmt.Sprintf("unit %q: expected state is not canonical: %v", unit, err))
			continue
		}
		if string(got) != string(wantBytes) {
			result.Failures = append(result.Failures,
				fmt.Sprintf("unit %q: state = %s, want %s", unit, got, wantBytes))
		}
	}
}
