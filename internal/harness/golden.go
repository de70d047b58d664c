package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/weftlabs/weft/internal/canon"
)

// TraceBytes renders a result's trace as canonical JSON for golden
// comparison. Wall-clock times are excluded; everything kept is
// deterministic under a fresh clock and fixed tokens.
func TraceBytes(scenarioName string, result *Result) ([]byte, error) {
	entries := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		entry := map[string]any{
			"seq":  e.Seq,
			"kind": string(e.Kind),
		}
		if e.Unit != "" {
			entry["unit"] = e.Unit
		}
		if e.Name != "" {
			entry["name"] = e.Name
		}
		if e.Token != "" {
			entry["token"] = e.Token
		}
		if e.Detail != "" {
			entry["detail"] = e.Detail
		}
		if e.Err != "" {
			entry["error"] = e.Err
		}
		entries[i] = entry
	}

	return canon.Marshal(map[string]any{
		"scenario": scenarioName,
		"trace":    entries,
	})
}

// RunWithGolden executes a scenario, fails the test on unmet
// expectations, and compares the trace against
// testdata/golden/{name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %q failed to run: %v", scenario.Name, err)
	}
	for _, failure := range result.Failures {
		t.Errorf("scenario %q: %s", scenario.Name, failure)
	}

	traceJSON, err := TraceBytes(scenario.Name, result)
	if err != nil {
		t.Fatalf("scenario %q: render trace: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result
}
