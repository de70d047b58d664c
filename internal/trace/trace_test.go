package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_ResumeAt(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(42), c.Next())
}

func TestRing_AppendAndSnapshot(t *testing.T) {
	r := NewRing(4)
	for seq := int64(1); seq <= 3; seq++ {
		r.Append(Entry{Seq: seq, Kind: KindEventProduced})
	}

	snap := r.Snapshot()
	require.Len(t, snap, 3)

	// Most-recent-first.
	assert.Equal(t, int64(3), snap[0].Seq)
	assert.Equal(t, int64(2), snap[1].Seq)
	assert.Equal(t, int64(1), snap[2].Seq)
}

func TestRing_EvictsOldestAtCapacity(t *testing.T) {
	r := NewRing(3)
	for seq := int64(1); seq <= 5; seq++ {
		r.Append(Entry{Seq: seq})
	}

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(5), snap[0].Seq)
	assert.Equal(t, int64(4), snap[1].Seq)
	assert.Equal(t, int64(3), snap[2].Seq)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Capacity())
}

func TestRing_SnapshotIsACopy(t *testing.T) {
	r := NewRing(2)
	r.Append(Entry{Seq: 1, Detail: "original"})

	snap := r.Snapshot()
	snap[0].Detail = "mutated"

	assert.Equal(t, "original", r.Snapshot()[0].Detail)
}

func TestRing_DefaultCapacity(t *testing.T) {
	r := NewRing(0)
	assert.Equal(t, DefaultCapacity, r.Capacity())
}

func TestEntry_String(t *testing.T) {
	e := Entry{Seq: 7, Kind: KindError, Unit: "cart", Name: "cart.checkout", Err: "boom"}
	s := e.String()
	assert.Contains(t, s, "#7")
	assert.Contains(t, s, "error")
	assert.Contains(t, s, "unit=cart")
	assert.Contains(t, s, "boom")
}
