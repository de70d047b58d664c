package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weftlabs/weft/internal/harness"
)

// ScenarioReport is the output payload of the scenario command.
type ScenarioReport struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Failures []string `json:"failures,omitempty"`
}

func (r ScenarioReport) String() string {
	if r.Pass {
		return fmt.Sprintf("PASS %s", r.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FAIL %s", r.Name)
	for _, f := range r.Failures {
		b.WriteString("\n  " + f)
	}
	return b.String()
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <file.yaml>",
		Short: "Run a conformance scenario file",
		Long: `Run one scenario file against a fresh system.

Exit codes:
  0 - scenario passed
  1 - one or more expectations failed
  2 - command error (missing file, bad scenario)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario file not found: %s", path))
	}

	sc, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load scenario", err)
	}

	result, err := harness.Run(sc)
	if err != nil {
		return WrapExitError(ExitCommandError, "run scenario", err)
	}

	report := ScenarioReport{Name: sc.Name, Pass: result.Passed(), Failures: result.Failures}
	if err := out.Success(report); err != nil {
		return err
	}
	if !result.Passed() {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed", sc.Name))
	}
	return nil
}
