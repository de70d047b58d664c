package channel

import "sync"

// Listener receives values emitted on a Topic.
type Listener[T any] func(T)

// subscription pairs a listener with its liveness flag.
// The active flag is checked at delivery time so that cancelling a
// subscription mid-emission prevents its invocation even when it was
// part of the emission snapshot.
type subscription[T any] struct {
	fn     Listener[T]
	active bool
}

// Topic is a synchronous publish/subscribe channel for values of type T.
//
// The zero value is not usable; construct with New.
type Topic[T any] struct {
	mu       sync.Mutex
	subs     []*subscription[T]
	emitting bool
	pending  []T
	closed   bool

	// detach unhooks a derived topic from its parent. Nil for root topics.
	detach func()
}

// New creates an empty Topic.
func New[T any]() *Topic[T] {
	return &Topic[T]{}
}

// Subscribe registers a listener and returns its cancel function.
//
// The cancel function is idempotent. A cancelled listener is never
// invoked again, even if an emission was already in flight when cancel
// was called.
func (t *Topic[T]) Subscribe(fn Listener[T]) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return func() {}
	}

	sub := &subscription[T]{fn: fn, active: true}
	t.subs = append(t.subs, sub)

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if !sub.active {
			return
		}
		sub.active = false
		t.remove(sub)
	}
}

// remove deletes a subscription from the listener list.
// Caller must hold t.mu.
func (t *Topic[T]) remove(sub *subscription[T]) {
	for i, s := range t.subs {
		if s == sub {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers v to every listener registered when the emission starts,
// in registration order.
//
// A reentrant Emit from inside a listener is queued and delivered after
// the current delivery completes. Emit on a closed topic is a no-op.
func (t *Topic[T]) Emit(v T) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.emitting {
		// Nested emission from a listener: queue for delivery after the
		// in-flight value reaches every listener.
		t.pending = append(t.pending, v)
		t.mu.Unlock()
		return
	}
	t.emitting = true
	t.mu.Unlock()

	// A panic escaping a listener unwinds through Emit. The emission
	// state must not stay set on that path or every later Emit would
	// queue forever and never deliver. Values queued by the aborted
	// emission are dropped with it; the panic itself propagates.
	completed := false
	defer func() {
		if completed {
			return
		}
		t.mu.Lock()
		t.emitting = false
		t.pending = nil
		t.mu.Unlock()
	}()

	t.deliver(v)

	// Drain values queued by listeners during delivery, in arrival order.
	for {
		t.mu.Lock()
		if len(t.pending) == 0 {
			t.emitting = false
			completed = true
			t.mu.Unlock()
			return
		}
		next := t.pending[0]
		t.pending[0] = *new(T) // release reference for GC
		t.pending = t.pending[1:]
		t.mu.Unlock()

		t.deliver(next)
	}
}

// deliver invokes every active listener from a snapshot of the
// subscription list. The snapshot excludes listeners registered after
// emission starts; the per-subscription active check excludes listeners
// cancelled during delivery.
func (t *Topic[T]) deliver(v T) {
	t.mu.Lock()
	snapshot := make([]*subscription[T], len(t.subs))
	copy(snapshot, t.subs)
	t.mu.Unlock()

	for _, sub := range snapshot {
		t.mu.Lock()
		live := sub.active
		t.mu.Unlock()
		if live {
			sub.fn(v)
		}
	}
}

// Filter returns a derived topic that forwards only values satisfying
// pred. The derived topic is live (it forwards continuously) and is
// itself subscribable and filterable. Closing the derived topic detaches
// it from its parent.
func (t *Topic[T]) Filter(pred func(T) bool) *Topic[T] {
	derived := New[T]()
	cancel := t.Subscribe(func(v T) {
		if pred(v) {
			derived.Emit(v)
		}
	})
	derived.detach = cancel
	return derived
}

// Close drops all listeners and detaches the topic from its parent if it
// was derived via Filter. Idempotent. Subsequent Emit and Subscribe calls
// are no-ops.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for _, s := range t.subs {
		s.active = false
	}
	t.subs = nil
	t.pending = nil
	detach := t.detach
	t.detach = nil
	t.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// Len returns the current number of active listeners.
// Used for testing and introspection.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
