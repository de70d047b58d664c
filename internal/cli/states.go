package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftlabs/weft/internal/persist"
)

// StatesOptions holds flags for the states command.
type StatesOptions struct {
	*RootOptions
	DB string
}

// StateRow is one persisted snapshot in the states report.
type StateRow struct {
	Unit      string `json:"unit"`
	State     string `json:"state"`
	Seq       int64  `json:"seq"`
	UpdatedAt string `json:"updated_at"`
}

// StatesReport is the output payload of the states command.
type StatesReport struct {
	Snapshots []StateRow `json:"snapshots"`
}

func (r StatesReport) String() string {
	if len(r.Snapshots) == 0 {
		return "no snapshots"
	}
	var b strings.Builder
	for _, row := range r.Snapshots {
		fmt.Fprintf(&b, "%s seq=%d %s\n", row.Unit, row.Seq, row.State)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewStatesCommand creates the states command.
func NewStatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "states",
		Short: "List persisted state snapshots",
		Long: `List every unit snapshot in the database, ordered by unit.

The database is written by runs with --persist; each snapshot is the
unit's canonical state after its last evolved event.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listStates(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "snapshot database path (defaults to $WEFT_DB)")

	return cmd
}

func listStates(opts *StatesOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid environment", err)
	}
	if opts.DB == "" {
		opts.DB = cfg.DB
	}

	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.DB))
	}

	store, err := persist.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "open snapshot database", err)
	}
	defer store.Close()

	snaps, err := store.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "list snapshots", err)
	}

	report := StatesReport{Snapshots: make([]StateRow, 0, len(snaps))}
	for _, snap := range snaps {
		report.Snapshots = append(report.Snapshots, StateRow{
			Unit:      snap.Unit,
			State:     string(snap.State),
			Seq:       snap.Seq,
			UpdatedAt: snap.UpdatedAt.Format(time.RFC3339),
		})
	}
	return out.Success(report)
}
