package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/engine"
)

const counterSchema = `
#Increment: {
	amount: int & >0
}
#SetLabel: {
	label: string & !=""
}
`

type incrementCmd struct {
	Amount int `json:"amount"`
}

func (incrementCmd) CommandKind() string { return "increment" }

type setLabelCmd struct {
	Label string `json:"label"`
}

func (setLabelCmd) CommandKind() string { return "set-label" }

type unboundCmd struct{}

func (unboundCmd) CommandKind() string { return "unbound" }

func TestCompileRejectsBadSource(t *testing.T) {
	_, err := Compile(`#Broken: {`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile schema")
}

func TestValidatePassesConformingPayload(t *testing.T) {
	s := MustCompile(counterSchema)

	errs := s.Validate("#Increment", incrementCmd{Amount: 3})
	assert.Empty(t, errs)
}

func TestValidateReportsConstraintViolation(t *testing.T) {
	s := MustCompile(counterSchema)

	errs := s.Validate("#Increment", incrementCmd{Amount: -1})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "amount")
}

func TestValidateReportsEmptyString(t *testing.T) {
	s := MustCompile(counterSchema)

	errs := s.Validate("#SetLabel", setLabelCmd{Label: ""})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "label")
}

func TestValidateUnknownDefinition(t *testing.T) {
	s := MustCompile(counterSchema)

	errs := s.Validate("#Missing", incrementCmd{Amount: 1})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "#Missing")
	assert.Contains(t, errs[0], "not found")
}

func TestValidatorSkipsUnboundKinds(t *testing.T) {
	s := MustCompile(counterSchema)
	validate := s.Validator(map[string]string{
		"increment": "#Increment",
	})

	assert.Empty(t, validate(unboundCmd{}))
	assert.NotEmpty(t, validate(incrementCmd{Amount: 0}))
}

// A schema violation should surface as a rejection event, not as a
// dispatch error, when wired into a decider.
func TestValidatorFeedsRejection(t *testing.T) {
	s := MustCompile(counterSchema)
	sys := engine.NewSystem()
	defer sys.Destroy()

	unit, err := engine.AddDecider(sys, engine.DeciderSpec[int]{
		Name:     "counter",
		Initial:  0,
		Validate: s.Validator(map[string]string{"increment": "#Increment"}),
		Decide: func(cmd engine.Command, state int, rctx engine.Context) ([]engine.Event, error) {
			return []engine.Event{counterIncremented{By: cmd.(incrementCmd).Amount}}, nil
		},
		Evolve: func(state int, ev engine.Event) (int, error) {
			if inc, ok := ev.(counterIncremented); ok {
				return state + inc.By, nil
			}
			return state, nil
		},
	})
	require.NoError(t, err)

	var rejections []engine.CommandRejected
	unit.Events().Subscribe(func(evt engine.Event) {
		if r, ok := evt.(engine.CommandRejected); ok {
			rejections = append(rejections, r)
		}
	})

	unit.Dispatch(context.Background(), incrementCmd{Amount: -5})
	unit.Dispatch(context.Background(), incrementCmd{Amount: 2})

	require.Len(t, rejections, 1)
	assert.Equal(t, "increment", rejections[0].Command)
	assert.Equal(t, 2, unit.State())
}

type counterIncremented struct {
	By int `json:"by"`
}

func (counterIncremented) EventKind() string { return "counter.incremented" }
