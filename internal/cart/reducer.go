package cart

import "github.com/utafrali/paystore/internal/domain"

// ActionType enumerates the cart transitions.
type ActionType string

const (
	ActionAddItem        ActionType = "ADD_ITEM"
	ActionRemoveItem     ActionType = "REMOVE_ITEM"
	ActionUpdateQuantity ActionType = "UPDATE_QUANTITY"
	ActionClearCart      ActionType = "CLEAR_CART"
	ActionPlaceOrder     ActionType = "PLACE_ORDER"
)

// Action describes a single cart transition. Only the fields relevant to the
// action type are consulted.
type Action struct {
	Type      ActionType
	Product   domain.Product
	ProductID string
	Quantity  int
	Order     *domain.Order
}

// State holds the cart and the session's placed orders, most recent first.
type State struct {
	Cart   domain.Cart
	Orders []domain.Order
}

// Reduce applies one action to the state and returns the next state. It is a
// pure function: inputs are never mutated, and the same action on the same
// state always yields the same result.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionAddItem:
		return State{Cart: addItem(s.Cart, a.Product), Orders: s.Orders}

	case ActionRemoveItem:
		return State{Cart: removeItem(s.Cart, a.ProductID), Orders: s.Orders}

	case ActionUpdateQuantity:
		if a.Quantity <= 0 {
			return State{Cart: removeItem(s.Cart, a.ProductID), Orders: s.Orders}
		}
		return State{Cart: setQuantity(s.Cart, a.ProductID, a.Quantity), Orders: s.Orders}

	case ActionClearCart:
		return State{Cart: domain.Cart{}, Orders: s.Orders}

	case ActionPlaceOrder:
		if a.Order == nil {
			return s
		}
		orders := make([]domain.Order, 0, len(s.Orders)+1)
		orders = append(orders, *a.Order)
		orders = append(orders, s.Orders...)
		return State{Cart: domain.Cart{}, Orders: orders}
	}

	return s
}

// addItem increments the quantity of an existing line or appends a new one.
// Adding never duplicates a row for the same product.
func addItem(c domain.Cart, p domain.Product) domain.Cart {
	items := make([]domain.CartItem, len(c.Items))
	copy(items, c.Items)

	for i := range items {
		if items[i].Product.ID == p.ID {
			items[i].Quantity++
			return domain.Cart{Items: items}
		}
	}

	return domain.Cart{Items: append(items, domain.CartItem{Product: p, Quantity: 1})}
}

func removeItem(c domain.Cart, productID string) domain.Cart {
	items := make([]domain.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Product.ID != productID {
			items = append(items, item)
		}
	}
	return domain.Cart{Items: items}
}

func setQuantity(c domain.Cart, productID string, quantity int) domain.Cart {
	items := make([]domain.CartItem, len(c.Items))
	copy(items, c.Items)

	for i := range items {
		if items[i].Product.ID == productID {
			items[i].Quantity = quantity
			break
		}
	}
	return domain.Cart{Items: items}
}
