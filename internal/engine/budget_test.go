package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_SpendWithinLimit(t *testing.T) {
	b := NewBudget(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Spend("tok-1"))
	}
	assert.Equal(t, 3, b.Current())
	assert.Equal(t, 3, b.MaxSteps())
}

func TestBudget_SpendPastLimit(t *testing.T) {
	b := NewBudget(2)

	require.NoError(t, b.Spend("tok-1"))
	require.NoError(t, b.Spend("tok-1"))

	err := b.Spend("tok-1")
	require.Error(t, err)
	assert.True(t, IsBudgetExceeded(err))

	var be *BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "tok-1", be.Token)
	assert.Equal(t, 3, be.Steps)
	assert.Equal(t, 2, be.Limit)
}

func TestBudget_ExceededErrorWrapped(t *testing.T) {
	err := fmt.Errorf("cascade halted: %w", &BudgetExceededError{Token: "t", Steps: 5, Limit: 4})
	assert.True(t, IsBudgetExceeded(err))
}

func TestIsBudgetExceeded_OtherErrors(t *testing.T) {
	assert.False(t, IsBudgetExceeded(fmt.Errorf("unrelated")))
	assert.False(t, IsBudgetExceeded(nil))
}
