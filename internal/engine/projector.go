package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/weftlabs/weft/internal/trace"
)

// Projector is a read model builder: it folds published events into a
// derived read state with a lifecycle independent of any decision
// unit's write state.
//
// Projection failures are isolated: an error or panic in the fold
// leaves the read state unchanged, adds an error trace entry, and never
// propagates back to the unit that published the event or to sibling
// subscribers.
type Projector struct {
	name string
	sys  *System

	mu    sync.Mutex
	state any

	fold func(state any, env Envelope) (any, error)
}

// Name returns the projector's name.
func (p *Projector) Name() string { return p.name }

// ReadState returns the current derived read state.
func (p *Projector) ReadState() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// observe folds one envelope into the read state, isolating failures.
func (p *Projector) observe(env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			p.traceError(env, fmt.Sprintf("panic: %v", r))
		}
	}()

	next, err := p.fold(p.ReadState(), env)
	if err != nil {
		p.traceError(env, err.Error())
		return
	}

	p.mu.Lock()
	p.state = next
	p.mu.Unlock()

	p.sys.trace(trace.Entry{
		Kind:   trace.KindProjectionUpdated,
		Unit:   env.Unit,
		Name:   p.name,
		Token:  p.sys.currentToken(),
		Detail: "event=" + env.Event.EventKind(),
	})
}

func (p *Projector) traceError(env Envelope, msg string) {
	p.sys.trace(trace.Entry{
		Kind:   trace.KindError,
		Unit:   env.Unit,
		Name:   p.name,
		Token:  p.sys.currentToken(),
		Detail: "event=" + env.Event.EventKind(),
		Err:    "project: " + msg,
	})
	slog.Error("projection failed, read state unchanged",
		"projector", p.name,
		"unit", env.Unit,
		"event", env.Event.EventKind(),
		"error", msg,
	)
}

// ProjectorSpec is the typed configuration for a read model builder
// subscribed to one or more units' event topics.
//
// Project must be total over every event kind it observes: irrelevant
// events must be returned with state unchanged, never an error.
type ProjectorSpec[R any] struct {
	Name    string
	Initial R
	Project func(state R, ev Event) (R, error)
}

// AddProjector wires a read model builder to the named source units.
// At least one source is required; all sources must be registered.
func AddProjector[R any](s *System, spec ProjectorSpec[R], sources ...string) (*Projector, error) {
	if spec.Project == nil {
		return nil, fmt.Errorf("projector %q: Project is required", spec.Name)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("projector %q: at least one source unit is required", spec.Name)
	}

	p := &Projector{
		name:  spec.Name,
		sys:   s,
		state: spec.Initial,
		fold: func(state any, env Envelope) (any, error) {
			return spec.Project(state.(R), env.Event)
		},
	}

	for _, source := range sources {
		d, err := s.Unit(source)
		if err != nil {
			return nil, err
		}
		unit := source
		cancel := d.Events().Subscribe(func(ev Event) {
			p.observe(Envelope{Unit: unit, Event: ev})
		})
		s.registerCancel(cancel)
	}

	slog.Info("projector registered", "projector", spec.Name, "sources", sources)
	return p, nil
}

// GlobalProjectorSpec is the typed configuration for a read model
// builder subscribed to the global envelope topic, aggregating over
// every unit in the system.
type GlobalProjectorSpec[R any] struct {
	Name    string
	Initial R
	Project func(state R, env Envelope) (R, error)
}

// AddGlobalProjector wires a read model builder to the global topic.
func AddGlobalProjector[R any](s *System, spec GlobalProjectorSpec[R]) (*Projector, error) {
	if spec.Project == nil {
		return nil, fmt.Errorf("projector %q: Project is required", spec.Name)
	}

	p := &Projector{
		name:  spec.Name,
		sys:   s,
		state: spec.Initial,
		fold: func(state any, env Envelope) (any, error) {
			return spec.Project(state.(R), env)
		},
	}

	cancel := s.global.Subscribe(p.observe)
	s.registerCancel(cancel)

	slog.Info("projector registered", "projector", spec.Name, "sources", "global")
	return p, nil
}
