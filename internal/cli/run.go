package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weftlabs/weft/internal/canon"
	"github.com/weftlabs/weft/internal/demo"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/persist"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DB      string
	Persist bool
}

// RunReport is the output payload of the run command.
type RunReport struct {
	States map[string]json.RawMessage `json:"states"`
	Trace  []string                   `json:"trace"`
}

func (r RunReport) String() string {
	var b strings.Builder
	b.WriteString("final states:\n")
	for unit, state := range r.States {
		fmt.Fprintf(&b, "  %s: %s\n", unit, state)
	}
	b.WriteString("trace:\n")
	for _, line := range r.Trace {
		b.WriteString("  " + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewRunCommand creates the run command, which executes the built-in
// checkout and counter domains end to end.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo domains and print states and trace",
		Long: `Run the built-in counter and cart/order checkout domains.

Dispatches a short command script: a couple of counter increments, two
cart items, and a checkout. The checkout reaction places an order in
the same dispatch. Prints every unit's final state and the full trace.

With --persist, every evolved state is pushed to the snapshot database
as it happens.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "snapshot database path (defaults to $WEFT_DB)")
	cmd.Flags().BoolVar(&opts.Persist, "persist", false, "persist state snapshots while running")

	return cmd
}

func runDemo(opts *RunOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid environment", err)
	}
	if opts.DB == "" {
		opts.DB = cfg.DB
	}

	sys := engine.NewSystem(
		engine.WithMaxSteps(cfg.MaxSteps),
		engine.WithTraceCapacity(cfg.TraceCapacity),
	)
	defer sys.Destroy()

	counter, err := demo.AddCounter(sys, "counter")
	if err != nil {
		return WrapExitError(ExitCommandError, "wire counter", err)
	}
	flow, err := demo.WireCheckout(sys)
	if err != nil {
		return WrapExitError(ExitCommandError, "wire checkout", err)
	}

	if opts.Persist {
		store, err := persist.Open(opts.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "open snapshot database", err)
		}
		defer store.Close()
		for _, unit := range sys.Units() {
			if _, err := persist.Bind(sys, store, unit); err != nil {
				return WrapExitError(ExitCommandError, "bind persistence", err)
			}
		}
	}

	ctx := context.Background()
	counter.Dispatch(ctx, demo.Increment{Amount: 3})
	counter.Dispatch(ctx, demo.Increment{Amount: 4})
	flow.Cart.Dispatch(ctx, demo.AddItem{SKU: "A1", Qty: 2})
	flow.Cart.Dispatch(ctx, demo.AddItem{SKU: "B7", Qty: 1})
	flow.Cart.Dispatch(ctx, demo.Checkout{})

	report := RunReport{States: make(map[string]json.RawMessage)}
	for _, name := range sys.Units() {
		unit, err := sys.Unit(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "inspect unit", err)
		}
		state, err := canon.Encode(unit.State())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("encode state of %q", name), err)
		}
		report.States[name] = state
	}

	// Snapshot is most-recent-first; the report reads forward.
	snap := sys.Trace()
	report.Trace = make([]string, len(snap))
	for i, e := range snap {
		report.Trace[len(snap)-1-i] = e.String()
	}

	return out.Success(report)
}
