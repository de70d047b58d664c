package persist

import (
	"context"
	"testing"

	"github.com/weftlabs/weft/internal/engine"
)

type addCmd struct {
	Amount int `json:"amount"`
}

func (addCmd) CommandKind() string { return "add" }

type added struct {
	Amount int `json:"amount"`
}

func (added) EventKind() string { return "added" }

type tally struct {
	Total int `json:"total"`
}

func newTallySystem(t *testing.T) (*engine.System, *engine.Decider) {
	t.Helper()
	sys := engine.NewSystem()
	t.Cleanup(sys.Destroy)

	unit, err := engine.AddDecider(sys, engine.DeciderSpec[tally]{
		Name:    "tally",
		Initial: tally{},
		Decide: func(cmd engine.Command, state tally, rctx engine.Context) ([]engine.Event, error) {
			return []engine.Event{added{Amount: cmd.(addCmd).Amount}}, nil
		},
		Evolve: func(state tally, ev engine.Event) (tally, error) {
			if a, ok := ev.(added); ok {
				state.Total += a.Amount
			}
			return state, nil
		},
	})
	if err != nil {
		t.Fatalf("AddDecider() failed: %v", err)
	}
	return sys, unit
}

func TestBind_PersistsEachStateChange(t *testing.T) {
	s := openTestStore(t)
	sys, unit := newTallySystem(t)

	cancel, err := Bind(sys, s, "tally")
	if err != nil {
		t.Fatalf("Bind() failed: %v", err)
	}
	defer cancel()

	unit.Dispatch(context.Background(), addCmd{Amount: 3})
	unit.Dispatch(context.Background(), addCmd{Amount: 4})

	snap, found, err := s.Load(context.Background(), "tally")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !found {
		t.Fatal("no snapshot written")
	}
	if got := string(snap.State); got != `{"total":7}` {
		t.Errorf("state = %s, want {\"total\":7}", got)
	}
}

func TestBind_UnknownUnit(t *testing.T) {
	s := openTestStore(t)
	sys, _ := newTallySystem(t)

	if _, err := Bind(sys, s, "nope"); err == nil {
		t.Error("Bind() accepted an unknown unit")
	}
}

func TestBind_CancelStopsWrites(t *testing.T) {
	s := openTestStore(t)
	sys, unit := newTallySystem(t)

	cancel, err := Bind(sys, s, "tally")
	if err != nil {
		t.Fatalf("Bind() failed: %v", err)
	}

	unit.Dispatch(context.Background(), addCmd{Amount: 1})
	cancel()
	unit.Dispatch(context.Background(), addCmd{Amount: 10})

	snap, _, err := s.Load(context.Background(), "tally")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := string(snap.State); got != `{"total":1}` {
		t.Errorf("state = %s, want {\"total\":1} (write after cancel)", got)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	sys, unit := newTallySystem(t)

	cancel, err := Bind(sys, s, "tally")
	if err != nil {
		t.Fatalf("Bind() failed: %v", err)
	}
	defer cancel()

	unit.Dispatch(context.Background(), addCmd{Amount: 9})

	var restored tally
	found, err := Restore(context.Background(), s, "tally", &restored)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if !found {
		t.Fatal("Restore() found = false")
	}
	if restored.Total != 9 {
		t.Errorf("restored total = %d, want 9", restored.Total)
	}
}

func TestRestore_Missing(t *testing.T) {
	s := openTestStore(t)

	var restored tally
	found, err := Restore(context.Background(), s, "nope", &restored)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if found {
		t.Error("Restore() found = true for missing snapshot")
	}
}
