package demo

import (
	"encoding/json"
	"fmt"

	"github.com/weftlabs/weft/internal/engine"
)

// DecodeCommand builds a demo command from its kind and a JSON payload.
// The scenario harness and the CLI both speak command kinds, not Go
// types; this is the single place the mapping lives.
func DecodeCommand(kind string, payload []byte) (engine.Command, error) {
	var cmd engine.Command
	switch kind {
	case Increment{}.CommandKind():
		cmd = &Increment{}
	case Decrement{}.CommandKind():
		cmd = &Decrement{}
	case AddItem{}.CommandKind():
		cmd = &AddItem{}
	case Checkout{}.CommandKind():
		cmd = &Checkout{}
	case CreateOrder{}.CommandKind():
		cmd = &CreateOrder{}
	default:
		return nil, fmt.Errorf("unknown command kind %q", kind)
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, cmd); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
	}

	// Units receive commands by value so type switches in Decide match.
	switch c := cmd.(type) {
	case *Increment:
		return *c, nil
	case *Decrement:
		return *c, nil
	case *AddItem:
		return *c, nil
	case *Checkout:
		return *c, nil
	case *CreateOrder:
		return *c, nil
	}
	return nil, fmt.Errorf("unknown command kind %q", kind)
}
