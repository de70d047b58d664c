package engine

import "context"

// Command is a tagged value expressing intent. Commands may be rejected;
// they are never mutated after creation.
//
// Domain command types are sum types: one struct per command kind,
// resolved through exhaustive type switches in decide.
type Command interface {
	CommandKind() string
}

// Event is a tagged value recording a fact already decided. Once
// produced an event is never retracted - only further events can
// describe subsequent facts, including rejection facts.
type Event interface {
	EventKind() string
}

// Context is the ephemeral data resolved per command (timestamps,
// external lookups). It is never persisted as part of state; its
// lifetime is one dispatch call.
type Context map[string]any

// Resolver produces the per-command Context. It is the engine's opaque,
// awaitable boundary: implementations may perform network or database
// calls. A resolver error aborts the command with state untouched.
type Resolver func(ctx context.Context, cmd Command) (Context, error)

// Validator tests a command's shape before context resolution. A nil or
// empty return means valid; a non-empty return is the structured error
// list carried by the synthesized CommandRejected event.
type Validator func(cmd Command) []string

// RejectedKind is the event kind of CommandRejected.
const RejectedKind = "command.rejected"

// CommandRejected is the built-in rejection event synthesized when a
// configured validator fails a command. It flows through the unit's
// normal evolve-and-publish path, so evolve functions must pass it
// through unchanged.
type CommandRejected struct {
	// Command is the kind tag of the offending command.
	Command string
	// Errors is the structured validation error list.
	Errors []string
}

// EventKind implements Event.
func (CommandRejected) EventKind() string { return RejectedKind }

// Envelope tags an event with its source unit for the global topic.
type Envelope struct {
	Unit  string
	Event Event
}

// StateChange notifies subscribers that a unit folded one event into a
// new state. This is the push signal persistence and derived views hang
// off - there is no polling anywhere in the engine.
type StateChange struct {
	Unit  string
	Event Event
	State any
}
