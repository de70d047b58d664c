package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "weft", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "scenario", "states", "validate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := execute(t, "--format", "xml", "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRun_TextOutput(t *testing.T) {
	out, err := execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "final states:")
	assert.Contains(t, out, `counter: {"total":7}`)
	assert.Contains(t, out, "order.created")
}

func TestRun_JSONOutput(t *testing.T) {
	out, err := execute(t, "--format", "json", "run")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRun_PersistWritesSnapshots(t *testing.T) {
	db := filepath.Join(t.TempDir(), "weft.db")

	_, err := execute(t, "run", "--persist", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "states", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "counter")
	assert.Contains(t, out, `{"total":7}`)
	assert.Contains(t, out, "order")
}

func TestStates_MissingDatabase(t *testing.T) {
	_, err := execute(t, "states", "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenario_Pass(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: cli-pass
wiring: [counter]
steps:
  - unit: counter
    command: counter.increment
    payload: {amount: 5}
expect:
  states:
    counter:
      total: 5
`), 0o644))

	out, err := execute(t, "scenario", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS cli-pass")
}

func TestScenario_FailureExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: cli-fail
wiring: [counter]
steps:
  - unit: counter
    command: counter.increment
    payload: {amount: 5}
expect:
  states:
    counter:
      total: 99
`), 0o644))

	out, err := execute(t, "scenario", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL cli-fail")
}

func TestScenario_MissingFile(t *testing.T) {
	_, err := execute(t, "scenario", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_ValidPayload(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "commands.cue")
	payloadPath := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte("#Increment: {\n\tamount: int & >0\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(payloadPath, []byte(`{"amount": 3}`), 0o644))

	out, err := execute(t, "validate", schemaPath, payloadPath, "--def", "#Increment")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidate_InvalidPayload(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "commands.cue")
	payloadPath := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte("#Increment: {\n\tamount: int & >0\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(payloadPath, []byte(`{"amount": -3}`), 0o644))

	out, err := execute(t, "validate", schemaPath, payloadPath, "--def", "#Increment")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, "amount")
}

func TestValidate_MissingSchema(t *testing.T) {
	dir := t.TempDir()
	payloadPath := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(payloadPath, []byte(`{}`), 0o644))

	_, err := execute(t, "validate", filepath.Join(dir, "nope.cue"), payloadPath, "--def", "#X")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("it broke", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "it broke", resp.Error.Message)
}

func TestExitError(t *testing.T) {
	base := errors.New("underlying")
	wrapped := WrapExitError(ExitCommandError, "context", base)

	assert.Equal(t, "context: underlying", wrapped.Error())
	assert.Equal(t, base, errors.Unwrap(wrapped))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, ExitFailure, GetExitCode(base))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "weft.db", cfg.DB)
	assert.Equal(t, 1000, cfg.MaxSteps)
	assert.Equal(t, 512, cfg.TraceCapacity)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("WEFT_DB", "/tmp/other.db")
	t.Setenv("WEFT_MAX_STEPS", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DB)
	assert.Equal(t, 25, cfg.MaxSteps)
}
