package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/paystore/internal/domain"
)

// OrderSink receives the session's order list whenever it changes. Persistence
// is fire-and-forget: a sink failure is logged, never surfaced to the shopper.
type OrderSink interface {
	SaveOrders(ctx context.Context, sessionID string, orders []domain.Order) error
}

// Subscriber observes state after each applied action.
type Subscriber func(State)

// Store owns the cart and order list for one shopper session. All mutations
// funnel through the reducer under a single lock, so actions apply one at a
// time with no interleaving.
type Store struct {
	mu       sync.Mutex
	state    State
	subs     []Subscriber
	sink     OrderSink
	logger   *slog.Logger
	session  string
	currency string
}

// NewStore creates an empty cart store for the given session. sink may be nil
// when order persistence is not wanted (tests, ephemeral sessions).
func NewStore(sessionID, currency string, sink OrderSink, logger *slog.Logger) *Store {
	return &Store{
		sink:     sink,
		logger:   logger,
		session:  sessionID,
		currency: currency,
	}
}

// Subscribe registers an observer invoked after every applied action with the
// new state. Subscribers run synchronously on the mutating goroutine, after
// the store lock is released.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// AddItem adds one unit of the product, merging into an existing line.
func (s *Store) AddItem(product domain.Product) {
	s.apply(Action{Type: ActionAddItem, Product: product})
}

// RemoveItem deletes the product's line. Absent products are a no-op.
func (s *Store) RemoveItem(productID string) {
	s.apply(Action{Type: ActionRemoveItem, ProductID: productID})
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	s.apply(Action{Type: ActionUpdateQuantity, ProductID: productID, Quantity: quantity})
}

// Clear empties the cart without touching the orders list.
func (s *Store) Clear() {
	s.apply(Action{Type: ActionClearCart})
}

// PlaceOrder snapshots the cart into a new pending order, prepends it to the
// orders list, clears the cart, and persists the orders. It returns nil when
// the cart is empty.
func (s *Store) PlaceOrder(ctx context.Context) *domain.Order {
	s.mu.Lock()

	if s.state.Cart.IsEmpty() {
		s.mu.Unlock()
		return nil
	}

	order := domain.NewOrder(s.state.Cart.Items, s.state.Cart.TotalAmount(), s.currency)
	s.state = Reduce(s.state, Action{Type: ActionPlaceOrder, Order: &order})
	orders := make([]domain.Order, len(s.state.Orders))
	copy(orders, s.state.Orders)
	state := s.state
	subs := s.subs

	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}

	if s.sink != nil {
		if err := s.sink.SaveOrders(ctx, s.session, orders); err != nil {
			s.logger.WarnContext(ctx, "failed to persist orders",
				slog.String("session_id", s.session),
				slog.String("error", err.Error()),
			)
		}
	}

	return &order
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CartItem, len(s.state.Cart.Items))
	copy(items, s.state.Cart.Items)
	return domain.Cart{Items: items}
}

// Orders returns a copy of the placed orders, most recent first.
func (s *Store) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]domain.Order, len(s.state.Orders))
	copy(orders, s.state.Orders)
	return orders
}

// TotalItems returns the sum of quantities across all lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Cart.TotalItems()
}

// TotalAmount returns the cart total in minor units.
func (s *Store) TotalAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Cart.TotalAmount()
}

func (s *Store) apply(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	state := s.state
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
