// Package demo wires two small domains used by the CLI and the scenario
// harness: a guarded counter and a cart/order checkout cascade. Both are
// ordinary applications of the engine; nothing here is engine-internal.
package demo

import (
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/schema"
)

// CounterSchema declares the counter's command shapes.
const CounterSchema = `
#Increment: {
	amount: int & >0
}
#Decrement: {
	amount: int & >0
}
`

// Increment raises the counter by Amount.
type Increment struct {
	Amount int `json:"amount"`
}

func (Increment) CommandKind() string { return "counter.increment" }

// Decrement lowers the counter by Amount. Rejected when the counter
// would go below zero.
type Decrement struct {
	Amount int `json:"amount"`
}

func (Decrement) CommandKind() string { return "counter.decrement" }

// Incremented records a successful increment.
type Incremented struct {
	Amount int `json:"amount"`
}

func (Incremented) EventKind() string { return "counter.incremented" }

// Decremented records a successful decrement.
type Decremented struct {
	Amount int `json:"amount"`
}

func (Decremented) EventKind() string { return "counter.decremented" }

// CounterState is the counter's full state.
type CounterState struct {
	Total int `json:"total"`
}

// AddCounter registers a counter unit under the given name.
//
// Schema validation guards command shape (positive integer amounts);
// the below-zero guard lives in the decision step and surfaces as a
// CommandRejected event, leaving state untouched.
func AddCounter(sys *engine.System, name string) (*engine.Decider, error) {
	s, err := schema.Compile(CounterSchema)
	if err != nil {
		return nil, err
	}

	return engine.AddDecider(sys, engine.DeciderSpec[CounterState]{
		Name:    name,
		Initial: CounterState{},
		Validate: s.Validator(map[string]string{
			"counter.increment": "#Increment",
			"counter.decrement": "#Decrement",
		}),
		Decide: func(cmd engine.Command, state CounterState, rctx engine.Context) ([]engine.Event, error) {
			switch c := cmd.(type) {
			case Increment:
				return []engine.Event{Incremented{Amount: c.Amount}}, nil
			case Decrement:
				if state.Total-c.Amount < 0 {
					return []engine.Event{engine.CommandRejected{
						Command: c.CommandKind(),
						Errors:  []string{"counter cannot go below zero"},
					}}, nil
				}
				return []engine.Event{Decremented{Amount: c.Amount}}, nil
			default:
				return nil, nil
			}
		},
		Evolve: func(state CounterState, ev engine.Event) (CounterState, error) {
			switch e := ev.(type) {
			case Incremented:
				state.Total += e.Amount
			case Decremented:
				state.Total -= e.Amount
			}
			return state, nil
		},
	})
}
