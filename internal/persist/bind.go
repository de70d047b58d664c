package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weftlabs/weft/internal/canon"
	"github.com/weftlabs/weft/internal/engine"
)

// Bind subscribes the store to a unit's state changes. Every evolved
// event produces one snapshot write; rejections that leave state
// untouched still write (the snapshot is the state after the event, not
// a diff), which keeps the binding oblivious to event kinds.
//
// The snapshot bytes are canonical JSON, so replaying the same command
// sequence always persists byte-identical state.
//
// Write failures are logged and do not disturb the dispatch that caused
// them. Returns an unsubscribe func; the caller owns the store's
// lifecycle.
func Bind(sys *engine.System, store *Store, unit string) (func(), error) {
	d, err := sys.Unit(unit)
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", unit, err)
	}

	cancel := d.Changes().Subscribe(func(change engine.StateChange) {
		state, err := canon.Encode(change.State)
		if err != nil {
			slog.Error("snapshot encode failed",
				"unit", change.Unit,
				"event", change.Event.EventKind(),
				"error", err)
			return
		}
		seq := sys.Clock().Current()
		if err := store.Save(context.Background(), change.Unit, state, seq); err != nil {
			slog.Error("snapshot write failed",
				"unit", change.Unit,
				"seq", seq,
				"error", err)
		}
	})
	return cancel, nil
}

// Restore loads a unit's snapshot and decodes it into out. Returns
// false when no snapshot exists. The caller supplies out as the unit's
// state type and uses the result as the Initial of a rebuilt unit.
func Restore(ctx context.Context, store *Store, unit string, out any) (bool, error) {
	snap, found, err := store.Load(ctx, unit)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := canon.Decode(snap.State, out); err != nil {
		return false, fmt.Errorf("restore %q: %w", unit, err)
	}
	return true, nil
}
