package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weftlabs/weft/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Def string
}

// ValidationReport is the output payload of the validate command.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func (r ValidationReport) String() string {
	if r.Valid {
		return "valid"
	}
	var b strings.Builder
	b.WriteString("invalid")
	for _, e := range r.Errors {
		b.WriteString("\n  " + e)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <schema.cue> <payload.json>",
		Short: "Validate a command payload against a schema definition",
		Long: `Validate a JSON command payload against a CUE definition.

The schema file declares command shapes as CUE definitions; --def
selects which definition to check against.

Exit codes:
  0 - payload is valid
  1 - payload violates the schema
  2 - command error (missing files, bad schema)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Def, "def", "", "definition to validate against (e.g. #Increment)")
	cmd.MarkFlagRequired("def")

	return cmd
}

func runValidate(opts *ValidateOptions, schemaPath, payloadPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	source, err := os.ReadFile(schemaPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read schema", err)
	}
	s, err := schema.Compile(string(source))
	if err != nil {
		return WrapExitError(ExitCommandError, "compile schema", err)
	}

	raw, err := os.ReadFile(payloadPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read payload", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return WrapExitError(ExitCommandError, "parse payload", err)
	}

	errs := s.Validate(opts.Def, payload)
	report := ValidationReport{Valid: len(errs) == 0, Errors: errs}
	if err := out.Success(report); err != nil {
		return err
	}
	if !report.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("payload violates %s", opts.Def))
	}
	return nil
}
