// Package engine implements the weft event-sourcing execution model.
//
// The engine is the heart of weft - a command enters a decision unit, is
// validated and contextualized, a pure decision function turns it into
// events, each event is folded into a new state and published, read
// models fold the published events, and reactors may answer an event by
// dispatching further commands into other units.
//
// ARCHITECTURE:
//
// Single Logical Thread:
// All dispatches are driven by one logical thread of execution. This
// ensures:
// - Predictable decide/evolve ordering
// - Reproducible trace logs
// - Simple reasoning about causality
//
// Dispatch Flow:
// 1. Validate the command (optional schema validator); failure becomes a
//    first-class CommandRejected event, not an error
// 2. Resolve per-command context (the only step allowed to block on I/O)
// 3. decide(command, state, context) returns an ordered event list
// 4. Per event, in order: evolve state, emit the state change, publish
//    the event on the unit's topic
// 5. Reactors observing the topic may dispatch follow-on commands,
//    recursively repeating the flow
//
// Per-unit dispatch is serialized: a command dispatched while the unit
// is mid-dispatch (including a reaction cascading back into the same
// unit) is queued and processed strictly after the current command's
// full evolve-and-publish sequence. Cross-unit cascades run as
// synchronous re-entrant dispatch calls, so the originating dispatch
// returns only after every downstream effect has settled.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// All trace entries are stamped with a monotonic seq counter from
// trace.Clock. NEVER use wall-clock timestamps for ordering.
//
// Write-Side Isolation:
// decide/evolve failures abort only the current command and are reported
// through the trace ring. Projector and reactor failures are caught at
// the point of invocation and never unwind into the publishing unit.
//
// Cascade Budget:
// Every reaction-issued command spends from a per-root-dispatch step
// budget. A misconfigured reaction cycle terminates with a traced error
// instead of looping forever.
package engine
