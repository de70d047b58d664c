package engine

import (
	"fmt"
	"sync"
)

// View is a derived read-only projection of one unit's current state,
// recomputed lazily whenever the state changes.
//
// The view subscribes to the unit's state-change topic and marks itself
// dirty on every change; Get recomputes only when dirty. Consistency is
// eventual with the latest state, which is exact here because state
// changes arrive synchronously.
type View struct {
	mu      sync.Mutex
	compute func(state any) any
	source  any
	latest  any
	dirty   bool
}

// DerivedView creates a lazily recomputed projection of the named
// unit's state. compute must be a pure read-only function.
func (s *System) DerivedView(unit string, compute func(state any) any) (*View, error) {
	if compute == nil {
		return nil, fmt.Errorf("derived view on %q: compute is required", unit)
	}

	d, err := s.Unit(unit)
	if err != nil {
		return nil, err
	}

	v := &View{
		compute: compute,
		source:  d.State(),
		dirty:   true,
	}

	cancel := d.Changes().Subscribe(func(ch StateChange) {
		v.mu.Lock()
		v.source = ch.State
		v.dirty = true
		v.mu.Unlock()
	})
	s.registerCancel(cancel)

	return v, nil
}

// Get returns the projection of the latest state, recomputing only if
// the state changed since the last call.
func (v *View) Get() any {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dirty {
		v.latest = v.compute(v.source)
		v.dirty = false
	}
	return v.latest
}
