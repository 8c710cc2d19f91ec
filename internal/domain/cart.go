package domain

// CartItem pairs a product snapshot with a positive quantity. The product is
// copied by value at add-time so later catalog changes do not alter the cart.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns price times quantity for this line, in minor units.
func (i CartItem) Subtotal() int64 {
	return i.Product.Price * int64(i.Quantity)
}

// Cart is the ordered list of items a visitor intends to buy. Items are keyed
// by product ID: adding an already-present product increments its quantity.
type Cart struct {
	Items []CartItem `json:"items"`
}

// TotalItems returns the sum of per-item quantities.
func (c Cart) TotalItems() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// TotalAmount returns the cart total in minor units.
func (c Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// IsEmpty reports whether the cart has no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
