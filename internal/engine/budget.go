package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps is the default cascade budget per root dispatch.
// This prevents a misconfigured reaction cycle from consuming unbounded
// resources.
const DefaultMaxSteps = 1000

// Budget counts reaction-issued commands within one root dispatch and
// enforces a maximum steps limit.
//
// Each root dispatch (a dispatch entered while no other dispatch is in
// flight) gets a fresh Budget. Every command a reactor emits spends one
// step; commands dispatched directly by the application do not.
//
// Reaction cycles (A reacts into B which reacts back into A) are
// tolerated, not prevented: the reentrant per-unit queues keep the call
// stack bounded, and the budget turns an endless ping-pong into a traced
// termination.
type Budget struct {
	maxSteps int
	current  int
}

// NewBudget creates a budget allowing maxSteps reaction-issued commands.
func NewBudget(maxSteps int) *Budget {
	return &Budget{maxSteps: maxSteps}
}

// Spend consumes one step and validates against the limit.
// Returns BudgetExceededError once the cascade is over budget.
func (b *Budget) Spend(token string) error {
	b.current++
	if b.current > b.maxSteps {
		return &BudgetExceededError{
			Token: token,
			Steps: b.current,
			Limit: b.maxSteps,
		}
	}
	return nil
}

// Current returns the number of steps spent so far.
func (b *Budget) Current() int {
	return b.current
}

// MaxSteps returns the budget limit.
func (b *Budget) MaxSteps() int {
	return b.maxSteps
}

// BudgetExceededError is returned when a cascade exceeds its step
// budget. Every further reaction-issued command in the same root
// dispatch is dropped with an error trace entry.
type BudgetExceededError struct {
	Token string // Correlation token of the root dispatch
	Steps int    // Steps spent, including the rejected one
	Limit int    // Maximum allowed steps
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("cascade %s exceeded step budget: %d steps > %d limit",
		e.Token, e.Steps, e.Limit)
}

// IsBudgetExceeded reports whether err is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
