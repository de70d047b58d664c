// Package channel implements the synchronous typed pub/sub primitive the
// rest of the engine is built on.
//
// A Topic delivers each emitted value to every listener registered at the
// moment emission starts, in registration order. Listeners registered
// mid-emission see only later emissions (snapshot semantics); listeners
// cancelled mid-emission are skipped.
//
// REENTRANCY:
//
// A listener may call Emit on the topic it is subscribed to. The nested
// emission is queued and delivered only after the current delivery has
// reached every listener. This keeps per-command event ordering strict:
// two emissions never interleave their deliveries on one topic.
//
// Topics are driven by a single logical thread of execution. The internal
// mutex exists so that subscriptions may be added or removed from other
// goroutines (e.g. test setup), not to support parallel emission.
package channel
