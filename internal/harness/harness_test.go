package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", name+".yaml"))
	require.NoError(t, err)
	return sc
}

func TestScenario_CounterIncrements(t *testing.T) {
	sc := loadTestScenario(t, "counter-increments")
	result := RunWithGolden(t, sc)
	assert.Equal(t, `{"total":7}`, string(result.States["counter"]))
}

func TestScenario_CounterRejection(t *testing.T) {
	sc := loadTestScenario(t, "counter-rejection")
	result := RunWithGolden(t, sc)
	assert.Equal(t, `{"total":2}`, string(result.States["counter"]))
}

func TestScenario_CheckoutCascade(t *testing.T) {
	sc := loadTestScenario(t, "checkout-cascade")
	result := RunWithGolden(t, sc)
	assert.Equal(t, `{}`, string(result.States["cart"]))
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	sc := loadTestScenario(t, "checkout-cascade")

	first, err := Run(sc)
	require.NoError(t, err)
	second, err := Run(sc)
	require.NoError(t, err)

	firstBytes, err := TraceBytes(sc.Name, first)
	require.NoError(t, err)
	secondBytes, err := TraceBytes(sc.Name, second)
	require.NoError(t, err)

	assert.Equal(t, string(firstBytes), string(secondBytes))
	assert.Equal(t, first.States, second.States)
}

func TestRun_ExpectationMismatchIsFailureNotError(t *testing.T) {
	sc := loadTestScenario(t, "counter-increments")
	sc.Expect.States["counter"] = map[string]any{"total": 999}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Passed())
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], `unit "counter"`)
}

func TestRun_UnknownWiring(t *testing.T) {
	_, err := Run(&Scenario{
		Name:   "bad",
		Wiring: []string{"nope"},
		Steps:  []Step{{Unit: "counter", Command: "counter.increment"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown wiring")
}

func TestRun_UnknownUnit(t *testing.T) {
	_, err := Run(&Scenario{
		Name:   "bad",
		Wiring: []string{"counter"},
		Steps:  []Step{{Unit: "ghost", Command: "counter.increment"}},
	})
	require.Error(t, err)
}

func TestRun_UnknownCommandKind(t *testing.T) {
	_, err := Run(&Scenario{
		Name:   "bad",
		Wiring: []string{"counter"},
		Steps:  []Step{{Unit: "counter", Command: "counter.launch"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command kind")
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nbogus: true\nsteps:\n  - unit: counter\n    command: counter.increment\n"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenario_RequiresNameAndSteps(t *testing.T) {
	dir := t.TempDir()

	noName := filepath.Join(dir, "noname.yaml")
	require.NoError(t, os.WriteFile(noName, []byte("steps:\n  - unit: counter\n    command: counter.increment\n"), 0o644))
	_, err := LoadScenario(noName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	noSteps := filepath.Join(dir, "nosteps.yaml")
	require.NoError(t, os.WriteFile(noSteps, []byte("name: empty\n"), 0o644))
	_, err = LoadScenario(noSteps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one step")
}
