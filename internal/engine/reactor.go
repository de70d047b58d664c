package engine

import (
	"fmt"
	"log/slog"

	"github.com/weftlabs/weft/internal/trace"
)

// ReactorSpec configures a reaction unit: a pure event-to-command
// translator enabling cross-unit workflows.
//
// Filter and React must be pure - no I/O, no async, no side effects
// beyond the returned commands. The orchestrator dispatches the
// returned commands to the target unit synchronously, in order.
type ReactorSpec struct {
	Name string

	// Filter selects the source events the reactor answers.
	Filter func(ev Event) bool

	// React computes the commands to dispatch for a matching event.
	React func(ev Event) []Command
}

// Reactor is a registered reaction unit.
//
// Reactor failures are isolated per event: a panic in Filter or React
// is caught and traced, and neither the triggering event nor the source
// unit's state rolls back.
type Reactor struct {
	name   string
	source string
	target string
	sys    *System
}

// Name returns the reactor's name.
func (r *Reactor) Name() string { return r.name }

// Source returns the name of the unit whose events the reactor watches.
func (r *Reactor) Source() string { return r.source }

// Target returns the name of the unit the reactor dispatches into.
func (r *Reactor) Target() string { return r.target }

// AddReactor wires a reaction unit between two registered decision
// units. Matching events from source produce commands dispatched to
// target; the cascade may recurse through further reactors, bounded by
// the system's step budget.
func (s *System) AddReactor(spec ReactorSpec, source, target string) (*Reactor, error) {
	if spec.Filter == nil || spec.React == nil {
		return nil, fmt.Errorf("reactor %q: Filter and React are required", spec.Name)
	}

	src, err := s.Unit(source)
	if err != nil {
		return nil, err
	}
	tgt, err := s.Unit(target)
	if err != nil {
		return nil, err
	}

	r := &Reactor{name: spec.Name, source: source, target: target, sys: s}

	cancel := src.Events().Subscribe(func(ev Event) {
		r.fire(spec, tgt, ev)
	})
	s.registerCancel(cancel)

	slog.Info("reactor registered",
		"reactor", spec.Name,
		"source", source,
		"target", target,
	)
	return r, nil
}

// fire evaluates one source event and dispatches the resulting
// commands. Failures are contained here; nothing propagates back into
// the publishing unit.
func (r *Reactor) fire(spec ReactorSpec, target *Decider, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.sys.trace(trace.Entry{
				Kind:   trace.KindError,
				Unit:   r.source,
				Name:   r.name,
				Token:  r.sys.currentToken(),
				Detail: "event=" + ev.EventKind(),
				Err:    fmt.Sprintf("react: panic: %v", rec),
			})
			slog.Error("reaction panicked",
				"reactor", r.name,
				"event", ev.EventKind(),
				"panic", rec,
			)
		}
	}()

	if !spec.Filter(ev) {
		return
	}

	cmds := spec.React(ev)
	if len(cmds) == 0 {
		return
	}

	r.sys.trace(trace.Entry{
		Kind:   trace.KindReactionFired,
		Unit:   r.source,
		Name:   r.name,
		Token:  r.sys.currentToken(),
		Detail: fmt.Sprintf("event=%s commands=%d target=%s", ev.EventKind(), len(cmds), r.target),
	})
	slog.Debug("reaction fired",
		"reactor", r.name,
		"event", ev.EventKind(),
		"commands", len(cmds),
		"target", r.target,
	)

	ctx := r.sys.currentContext()
	for _, cmd := range cmds {
		if err := r.sys.spendBudget(); err != nil {
			r.sys.trace(trace.Entry{
				Kind:  trace.KindError,
				Unit:  r.source,
				Name:  r.name,
				Token: r.sys.currentToken(),
				Err:   err.Error(),
			})
			slog.Error("cascade step budget exceeded, dropping command",
				"reactor", r.name,
				"command", cmd.CommandKind(),
				"error", err,
			)
			continue
		}
		target.Dispatch(ctx, cmd)
	}
}
