package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/weftlabs/weft/internal/channel"
	"github.com/weftlabs/weft/internal/trace"
)

// System is the orchestrator: it owns the registry of decision units,
// the global fan-in topic, the bounded trace ring, and teardown.
//
// A System is an explicit value with clear construction and teardown,
// never a process-wide singleton - multiple independent systems can
// coexist in one process (e.g. under test).
//
// Thread-safety model:
//   - Registration (AddDecider and friends) locks the registry.
//   - Dispatch is driven by a single logical thread of execution;
//     cascades are synchronous re-entrant calls on that thread.
type System struct {
	mu        sync.Mutex
	units     map[string]*Decider
	order     []string // registration order, for deterministic teardown
	global    *channel.Topic[Envelope]
	ring      *trace.Ring
	clock     *trace.Clock
	tokens    TokenSource
	maxSteps  int
	cancels   []func()
	destroyed bool

	// Root-dispatch flow state. Guarded by mu for the brief begin/end
	// bookkeeping; meaningful only on the dispatch thread.
	depth       int
	activeToken string
	activeCtx   context.Context
	budget      *Budget
}

// Option configures a System.
type Option func(*System)

// WithMaxSteps sets the cascade step budget per root dispatch.
//
// Default: 1000 steps (DefaultMaxSteps)
// Use WithMaxSteps(10) for testing budget enforcement.
func WithMaxSteps(maxSteps int) Option {
	return func(s *System) {
		s.maxSteps = maxSteps
	}
}

// WithTraceCapacity bounds the trace ring. Older entries are evicted
// once the capacity is exceeded.
func WithTraceCapacity(capacity int) Option {
	return func(s *System) {
		s.ring = trace.NewRing(capacity)
	}
}

// WithClock sets a pre-positioned logical clock, e.g. to resume
// sequencing from a known point.
func WithClock(clock *trace.Clock) Option {
	return func(s *System) {
		s.clock = clock
	}
}

// WithTokenSource replaces the UUIDv7 token source. Tests use a fixed
// source for deterministic golden traces.
func WithTokenSource(ts TokenSource) Option {
	return func(s *System) {
		s.tokens = ts
	}
}

// NewSystem creates an empty System.
func NewSystem(opts ...Option) *System {
	s := &System{
		units:    make(map[string]*Decider),
		global:   channel.New[Envelope](),
		ring:     trace.NewRing(trace.DefaultCapacity),
		clock:    trace.NewClock(),
		tokens:   UUIDv7Source{},
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Global returns the global envelope topic: a fan-in of every unit's
// events tagged with their source unit name.
func (s *System) Global() *channel.Topic[Envelope] { return s.global }

// Trace returns the retained trace entries, most recent first.
// The returned slice is a read-only copy.
func (s *System) Trace() []trace.Entry { return s.ring.Snapshot() }

// Clock returns the system's logical clock.
func (s *System) Clock() *trace.Clock { return s.clock }

// Unit returns the registered decision unit with the given name.
func (s *System) Unit(name string) (*Decider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.units[name]
	if !ok {
		return nil, newUnknownUnitError(name)
	}
	return d, nil
}

// Units returns the registered unit names in registration order.
func (s *System) Units() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// addDecider registers a decision unit and wires it into the global
// topic. Duplicate names are a hard error.
func (s *System) addDecider(cfg deciderConfig) (*Decider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return nil, newDestroyedError()
	}
	if _, exists := s.units[cfg.name]; exists {
		return nil, newDuplicateUnitError(cfg.name)
	}

	d := &Decider{
		name:     cfg.name,
		sys:      s,
		validate: cfg.validate,
		resolve:  cfg.resolve,
		decide:   cfg.decide,
		evolve:   cfg.evolve,
		state:    cfg.initial,
		events:   channel.New[Event](),
		changes:  channel.New[StateChange](),
	}
	s.units[cfg.name] = d
	s.order = append(s.order, cfg.name)

	// Fan the unit's events into the global topic, tagged with the
	// source unit name.
	name := cfg.name
	cancel := d.events.Subscribe(func(ev Event) {
		s.global.Emit(Envelope{Unit: name, Event: ev})
	})
	s.cancels = append(s.cancels, cancel)

	slog.Info("decision unit registered", "unit", cfg.name)
	return d, nil
}

// Destroy tears the system down: every subscription wired through this
// system is released and every topic closed. Idempotent. Dispatches
// after Destroy are dropped with a warning.
func (s *System) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	cancels := s.cancels
	s.cancels = nil
	units := make([]*Decider, 0, len(s.order))
	for _, name := range s.order {
		units = append(units, s.units[name])
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	for _, d := range units {
		d.events.Close()
		d.changes.Close()
	}
	s.global.Close()

	slog.Info("system destroyed", "units", len(units))
}

// isDestroyed reports teardown state.
func (s *System) isDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// trace appends one entry, stamping seq and time.
func (s *System) trace(e trace.Entry) {
	e.Seq = s.clock.Next()
	e.Time = time.Now()
	s.ring.Append(e)
}

// beginDispatch enters a dispatch frame. The first frame of a cascade
// (depth zero) mints the correlation token and a fresh step budget;
// nested frames inherit both.
func (s *System) beginDispatch(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.depth == 0 {
		s.activeToken = s.tokens.Generate()
		s.activeCtx = ctx
		s.budget = NewBudget(s.maxSteps)
	}
	s.depth++
	return s.activeToken
}

// endDispatch leaves a dispatch frame.
func (s *System) endDispatch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.depth--
	if s.depth == 0 {
		s.activeCtx = nil
	}
}

// currentToken returns the in-flight cascade's correlation token.
func (s *System) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeToken
}

// currentContext returns the root dispatch's context for cascaded
// dispatches, or Background outside any dispatch.
func (s *System) currentContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeCtx != nil {
		return s.activeCtx
	}
	return context.Background()
}

// spendBudget charges one reaction-issued command against the in-flight
// cascade's budget.
func (s *System) spendBudget() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget == nil {
		s.budget = NewBudget(s.maxSteps)
	}
	return s.budget.Spend(s.activeToken)
}

// registerCancel records a subscription for teardown.
func (s *System) registerCancel(cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		cancel()
		return
	}
	s.cancels = append(s.cancels, cancel)
}
