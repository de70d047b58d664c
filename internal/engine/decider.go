package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/weftlabs/weft/internal/channel"
	"github.com/weftlabs/weft/internal/trace"
)

// Decider is a decision unit: the write-side aggregate owning one state
// slice plus its decide/evolve logic.
//
// State has exactly one writer - the unit's own evolve step - and is
// replaced wholesale on every event, never partially mutated, so readers
// never observe a torn value.
//
// Dispatch is serialized per unit. A command dispatched while the unit
// is mid-dispatch is queued and processed strictly after the current
// command's full decide-evolve-publish sequence. This also makes
// reentrant self-dispatch from a cascade safe: the nested call queues
// and returns, and the outer drain loop picks the command up.
type Decider struct {
	name     string
	sys      *System
	validate Validator
	resolve  Resolver
	decide   func(cmd Command, state any, rctx Context) ([]Event, error)
	evolve   func(state any, ev Event) (any, error)

	mu       sync.Mutex
	state    any
	pending  []queuedCommand
	draining bool

	events  *channel.Topic[Event]
	changes *channel.Topic[StateChange]
}

// queuedCommand is one pending dispatch. The token is captured at
// enqueue time so a queued cascade command stays correlated with the
// root dispatch that caused it.
type queuedCommand struct {
	ctx   context.Context
	cmd   Command
	token string
}

// deciderConfig is the untyped construction form used by the generic
// AddDecider adapter.
type deciderConfig struct {
	name     string
	initial  any
	validate Validator
	resolve  Resolver
	decide   func(cmd Command, state any, rctx Context) ([]Event, error)
	evolve   func(state any, ev Event) (any, error)
}

// Name returns the unit's registered name.
func (d *Decider) Name() string { return d.name }

// State returns the unit's current state. Safe to call from readers at
// any time; the value is immutable by convention.
func (d *Decider) State() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Events returns the unit's event topic.
func (d *Decider) Events() *channel.Topic[Event] { return d.events }

// Changes returns the unit's state-change topic. Persistence bindings
// and derived views subscribe here; the engine pushes one StateChange
// per evolved event.
func (d *Decider) Changes() *channel.Topic[StateChange] { return d.changes }

// Dispatch submits a command to the unit.
//
// Dispatch is fire-and-forget from the caller's perspective: rejections
// surface as CommandRejected events and processing failures surface as
// error trace entries, never as a return value. When Dispatch returns,
// the command's full event sequence - and every cascade it triggered -
// has been evolved and published.
func (d *Decider) Dispatch(ctx context.Context, cmd Command) {
	if d.sys.isDestroyed() {
		slog.Warn("dispatch on destroyed system dropped",
			"unit", d.name,
			"command", cmd.CommandKind(),
		)
		return
	}

	token := d.sys.beginDispatch(ctx)
	defer d.sys.endDispatch()

	d.mu.Lock()
	d.pending = append(d.pending, queuedCommand{ctx: ctx, cmd: cmd, token: token})
	if d.draining {
		// The unit is mid-dispatch further up the stack. The command is
		// queued; the outer drain loop will process it after the
		// in-flight command completes.
		d.mu.Unlock()
		return
	}
	d.draining = true
	for len(d.pending) > 0 {
		q := d.pending[0]
		d.pending[0] = queuedCommand{} // release references for GC
		d.pending = d.pending[1:]
		d.mu.Unlock()

		d.process(q)

		d.mu.Lock()
	}
	d.draining = false
	d.mu.Unlock()
}

// process runs the full pipeline for one command: validate, resolve,
// decide, then per-event evolve and publish.
//
// A panic anywhere in the pipeline aborts the command with an error
// trace entry. State holds the last successfully evolved value, which
// gives exactly the required failure semantics: decide panics leave
// state untouched, evolve panics halt the remaining events of the batch.
func (d *Decider) process(q queuedCommand) {
	defer func() {
		if r := recover(); r != nil {
			d.sys.trace(trace.Entry{
				Kind:  trace.KindError,
				Unit:  d.name,
				Name:  q.cmd.CommandKind(),
				Token: q.token,
				Err:   fmt.Sprintf("panic: %v", r),
			})
			slog.Error("command processing panicked",
				"unit", d.name,
				"command", q.cmd.CommandKind(),
				"token", q.token,
				"panic", r,
			)
		}
	}()

	slog.Debug("processing command",
		"unit", d.name,
		"command", q.cmd.CommandKind(),
		"token", q.token,
	)
	d.sys.trace(trace.Entry{
		Kind:  trace.KindCommandReceived,
		Unit:  d.name,
		Name:  q.cmd.CommandKind(),
		Token: q.token,
	})

	// Schema validation precedes everything: a malformed command never
	// reaches context resolution or decide. The failure itself is a
	// normal event the caller can subscribe to.
	if d.validate != nil {
		if errs := d.validate(q.cmd); len(errs) > 0 {
			rejection := CommandRejected{Command: q.cmd.CommandKind(), Errors: errs}
			d.evolveAndPublish(q, []Event{rejection})
			return
		}
	}

	var rctx Context
	if d.resolve != nil {
		resolved, err := d.resolve(q.ctx, q.cmd)
		if err != nil {
			d.sys.trace(trace.Entry{
				Kind:  trace.KindError,
				Unit:  d.name,
				Name:  q.cmd.CommandKind(),
				Token: q.token,
				Err:   fmt.Sprintf("resolve context: %v", err),
			})
			slog.Error("context resolution failed",
				"unit", d.name,
				"command", q.cmd.CommandKind(),
				"token", q.token,
				"error", err,
			)
			return
		}
		rctx = resolved
		d.sys.trace(trace.Entry{
			Kind:  trace.KindContextResolved,
			Unit:  d.name,
			Name:  q.cmd.CommandKind(),
			Token: q.token,
		})
	}

	events, err := d.decide(q.cmd, d.State(), rctx)
	if err != nil {
		d.sys.trace(trace.Entry{
			Kind:  trace.KindError,
			Unit:  d.name,
			Name:  q.cmd.CommandKind(),
			Token: q.token,
			Err:   fmt.Sprintf("decide: %v", err),
		})
		slog.Error("decide failed",
			"unit", d.name,
			"command", q.cmd.CommandKind(),
			"token", q.token,
			"error", err,
		)
		return
	}

	// An empty event list is a legal no-op response.
	d.evolveAndPublish(q, events)
}

// evolveAndPublish folds each event into state and publishes it, one
// event at a time, so downstream subscribers observe a causally
// consistent per-event progression rather than a batch after the fact.
//
// An evolve failure is a design error in the unit: the remaining events
// of the batch are halted and state holds the last good value. Events
// already published stay published.
func (d *Decider) evolveAndPublish(q queuedCommand, events []Event) {
	for _, ev := range events {
		d.sys.trace(trace.Entry{
			Kind:  trace.KindEventProduced,
			Unit:  d.name,
			Name:  ev.EventKind(),
			Token: q.token,
		})

		next, err := d.evolve(d.State(), ev)
		if err != nil {
			d.sys.trace(trace.Entry{
				Kind:  trace.KindError,
				Unit:  d.name,
				Name:  ev.EventKind(),
				Token: q.token,
				Err:   fmt.Sprintf("evolve: %v (halting remaining events)", err),
			})
			slog.Error("evolve failed, halting remaining events of batch",
				"unit", d.name,
				"event", ev.EventKind(),
				"token", q.token,
				"error", err,
			)
			return
		}

		d.mu.Lock()
		d.state = next
		d.mu.Unlock()

		d.sys.trace(trace.Entry{
			Kind:  trace.KindStateEvolved,
			Unit:  d.name,
			Name:  ev.EventKind(),
			Token: q.token,
		})

		d.changes.Emit(StateChange{Unit: d.name, Event: ev, State: next})
		d.events.Emit(ev)
	}
}

// DeciderSpec is the typed configuration for a decision unit.
//
// Decide and Evolve must be pure: no clock reads, no randomness, no
// mutation of the state argument. All business rules - guards,
// preconditions, authorization - live in Decide exclusively. Evolve must
// handle every event kind Decide can produce, including CommandRejected
// (typically a passthrough).
type DeciderSpec[S any] struct {
	// Name uniquely identifies the unit within one System.
	Name string

	// Initial is the unit's starting state.
	Initial S

	// Validate optionally schema-checks commands before resolution.
	Validate Validator

	// Resolve optionally produces the per-command Context. May block on
	// I/O; a nil Resolve skips the resolution step entirely.
	Resolve Resolver

	// Decide turns a command into zero or more events.
	Decide func(cmd Command, state S, rctx Context) ([]Event, error)

	// Evolve folds one event into a new state.
	Evolve func(state S, ev Event) (S, error)
}

// AddDecider constructs and registers a decision unit on the system.
// Fails if the name is already registered or the system is destroyed.
func AddDecider[S any](s *System, spec DeciderSpec[S]) (*Decider, error) {
	if spec.Decide == nil || spec.Evolve == nil {
		return nil, fmt.Errorf("decider %q: Decide and Evolve are required", spec.Name)
	}
	return s.addDecider(deciderConfig{
		name:     spec.Name,
		initial:  spec.Initial,
		validate: spec.Validate,
		resolve:  spec.Resolve,
		decide: func(cmd Command, state any, rctx Context) ([]Event, error) {
			return spec.Decide(cmd, state.(S), rctx)
		},
		evolve: func(state any, ev Event) (any, error) {
			return spec.Evolve(state.(S), ev)
		},
	})
}
