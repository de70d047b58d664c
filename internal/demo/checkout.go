package demo

import (
	"github.com/weftlabs/weft/internal/engine"
)

// Line is one cart line item.
type Line struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// AddItem puts a line item in the cart.
type AddItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func (AddItem) CommandKind() string { return "cart.add-item" }

// Checkout closes the cart. Rejected when the cart is empty.
type Checkout struct{}

func (Checkout) CommandKind() string { return "cart.checkout" }

// ItemAdded records a line item entering the cart.
type ItemAdded struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func (ItemAdded) EventKind() string { return "cart.item-added" }

// CheckedOut records a completed checkout carrying the cart's contents.
type CheckedOut struct {
	Items []Line `json:"items"`
}

func (CheckedOut) EventKind() string { return "cart.checked-out" }

// CreateOrder opens an order from checked-out items.
type CreateOrder struct {
	Items []Line `json:"items"`
}

func (CreateOrder) CommandKind() string { return "order.create" }

// OrderCreated records a placed order.
type OrderCreated struct {
	Items []Line `json:"items"`
}

func (OrderCreated) EventKind() string { return "order.created" }

// CartState holds the open cart's contents. Items carries omitempty so
// an empty cart snapshots as {} rather than a null, which canonical
// JSON forbids.
type CartState struct {
	Items []Line `json:"items,omitempty"`
}

// OrderState accumulates placed orders.
type OrderState struct {
	Placed int    `json:"placed"`
	Items  []Line `json:"items,omitempty"`
}

// FulfillmentView is the read model over the checkout flow.
type FulfillmentView struct {
	ItemsAdded   int `json:"items_added"`
	OrdersPlaced int `json:"orders_placed"`
}

// Checkout wires the cart and order units, the reactor between them,
// and a fulfillment read model. Dispatching Checkout on the cart
// cascades synchronously into an order: when the dispatch returns, the
// order state already contains the new order.
type CheckoutFlow struct {
	Cart        *engine.Decider
	Order       *engine.Decider
	Fulfillment *engine.Projector
}

// WireCheckout registers the checkout cascade on the system.
func WireCheckout(sys *engine.System) (*CheckoutFlow, error) {
	cart, err := engine.AddDecider(sys, engine.DeciderSpec[CartState]{
		Name:    "cart",
		Initial: CartState{},
		Decide: func(cmd engine.Command, state CartState, rctx engine.Context) ([]engine.Event, error) {
			switch c := cmd.(type) {
			case AddItem:
				return []engine.Event{ItemAdded{SKU: c.SKU, Qty: c.Qty}}, nil
			case Checkout:
				if len(state.Items) == 0 {
					return []engine.Event{engine.CommandRejected{
						Command: c.CommandKind(),
						Errors:  []string{"cart is empty"},
					}}, nil
				}
				return []engine.Event{CheckedOut{Items: state.Items}}, nil
			default:
				return nil, nil
			}
		},
		Evolve: func(state CartState, ev engine.Event) (CartState, error) {
			switch e := ev.(type) {
			case ItemAdded:
				state.Items = append(append([]Line(nil), state.Items...), Line{SKU: e.SKU, Qty: e.Qty})
			case CheckedOut:
				state.Items = nil
			}
			return state, nil
		},
	})
	if err != nil {
		return nil, err
	}

	order, err := engine.AddDecider(sys, engine.DeciderSpec[OrderState]{
		Name:    "order",
		Initial: OrderState{},
		Decide: func(cmd engine.Command, state OrderState, rctx engine.Context) ([]engine.Event, error) {
			if c, ok := cmd.(CreateOrder); ok {
				return []engine.Event{OrderCreated{Items: c.Items}}, nil
			}
			return nil, nil
		},
		Evolve: func(state OrderState, ev engine.Event) (OrderState, error) {
			if e, ok := ev.(OrderCreated); ok {
				state.Placed++
				state.Items = append(append([]Line(nil), state.Items...), e.Items...)
			}
			return state, nil
		},
	})
	if err != nil {
		return nil, err
	}

	_, err = sys.AddReactor(engine.ReactorSpec{
		Name: "checkout-to-order",
		Filter: func(ev engine.Event) bool {
			_, ok := ev.(CheckedOut)
			return ok
		},
		React: func(ev engine.Event) []engine.Command {
			return []engine.Command{CreateOrder{Items: ev.(CheckedOut).Items}}
		},
	}, "cart", "order")
	if err != nil {
		return nil, err
	}

	fulfillment, err := engine.AddGlobalProjector(sys, engine.GlobalProjectorSpec[FulfillmentView]{
		Name:    "fulfillment",
		Initial: FulfillmentView{},
		Project: func(state FulfillmentView, env engine.Envelope) (FulfillmentView, error) {
			switch env.Event.(type) {
			case ItemAdded:
				state.ItemsAdded++
			case OrderCreated:
				state.OrdersPlaced++
			}
			return state, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutFlow{Cart: cart, Order: order, Fulfillment: fulfillment}, nil
}
