package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivedView_TracksLatestState(t *testing.T) {
	sys, counter := newCounter(t)

	view, err := sys.DerivedView("counter", func(state any) any {
		return state.(counterState).Value * 2
	})
	require.NoError(t, err)

	assert.Equal(t, 0, view.Get())

	counter.Dispatch(context.Background(), incrementCmd{Amount: 3})
	assert.Equal(t, 6, view.Get())

	counter.Dispatch(context.Background(), incrementCmd{Amount: 1})
	assert.Equal(t, 8, view.Get())
}

func TestDerivedView_RecomputesLazily(t *testing.T) {
	sys, counter := newCounter(t)

	computes := 0
	view, err := sys.DerivedView("counter", func(state any) any {
		computes++
		return state.(counterState).Value
	})
	require.NoError(t, err)

	view.Get()
	view.Get()
	view.Get()
	assert.Equal(t, 1, computes, "repeated Get without a state change recomputes once")

	counter.Dispatch(context.Background(), incrementCmd{Amount: 1})
	view.Get()
	view.Get()
	assert.Equal(t, 2, computes)
}

func TestDerivedView_UnknownUnit(t *testing.T) {
	sys := NewSystem()
	t.Cleanup(sys.Destroy)

	_, err := sys.DerivedView("ghost", func(state any) any { return state })
	require.Error(t, err)
	assert.True(t, IsUnknownUnit(err))
}
