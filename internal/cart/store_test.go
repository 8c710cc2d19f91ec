package cart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/paystore/internal/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	calls  int
	orders []domain.Order
	err    error
}

func (r *recordingSink) SaveOrders(ctx context.Context, sessionID string, orders []domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.orders = orders
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(sink OrderSink) *Store {
	return NewStore("sess-1", "INR", sink, discardLogger())
}

func TestStore_PlaceOrder_SnapshotAndClear(t *testing.T) {
	sink := &recordingSink{}
	s := newTestStore(sink)

	s.AddItem(domain.Product{ID: "a", Price: 10000})
	s.AddItem(domain.Product{ID: "a", Price: 10000})
	s.AddItem(domain.Product{ID: "b", Price: 5000})

	assert.Equal(t, int64(25000), s.TotalAmount())

	order := s.PlaceOrder(context.Background())
	require.NotNil(t, order)
	assert.Equal(t, int64(25000), order.TotalAmount)
	assert.Equal(t, "INR", order.Currency)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	assert.True(t, s.Cart().IsEmpty(), "placing an order empties the cart")
	require.Len(t, s.Orders(), 1)
	assert.Equal(t, order.ID, s.Orders()[0].ID)

	assert.Equal(t, 1, sink.calls)
	assert.Len(t, sink.orders, 1)
}

func TestStore_PlaceOrder_EmptyCartReturnsNil(t *testing.T) {
	sink := &recordingSink{}
	s := newTestStore(sink)

	assert.Nil(t, s.PlaceOrder(context.Background()))
	assert.Equal(t, 0, sink.calls, "no persistence without an order")
}

func TestStore_PlaceOrder_MostRecentFirst(t *testing.T) {
	s := newTestStore(nil)

	s.AddItem(domain.Product{ID: "a", Price: 100})
	first := s.PlaceOrder(context.Background())

	s.AddItem(domain.Product{ID: "b", Price: 200})
	second := s.PlaceOrder(context.Background())

	orders := s.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestStore_PlaceOrder_SinkFailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: fmt.Errorf("redis down")}
	s := newTestStore(sink)

	s.AddItem(domain.Product{ID: "a", Price: 100})
	order := s.PlaceOrder(context.Background())

	require.NotNil(t, order, "persistence failure must not block checkout")
	assert.Len(t, s.Orders(), 1)
}

func TestStore_Subscribe_SeesEveryAction(t *testing.T) {
	s := newTestStore(nil)

	var mu sync.Mutex
	var states []State
	s.Subscribe(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, st)
	})

	s.AddItem(domain.Product{ID: "a", Price: 100})
	s.UpdateQuantity("a", 4)
	s.RemoveItem("a")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 3)
	assert.Equal(t, 1, states[0].Cart.TotalItems())
	assert.Equal(t, 4, states[1].Cart.TotalItems())
	assert.Equal(t, 0, states[2].Cart.TotalItems())
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s := newTestStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(domain.Product{ID: "a", Price: 100})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.TotalItems())
	assert.Len(t, s.Cart().Items, 1)
}

func TestStore_ClearDoesNotTouchOrders(t *testing.T) {
	s := newTestStore(nil)
	s.AddItem(domain.Product{ID: "a", Price: 100})
	s.PlaceOrder(context.Background())

	s.AddItem(domain.Product{ID: "b", Price: 200})
	s.Clear()

	assert.True(t, s.Cart().IsEmpty())
	assert.Len(t, s.Orders(), 1)
}

func TestManager_GetCreatesPerSession(t *testing.T) {
	m := NewManager("INR", nil, discardLogger())

	a := m.Get("sess-a")
	b := m.Get("sess-b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, m.Get("sess-a"))

	a.AddItem(domain.Product{ID: "x", Price: 1})
	assert.Equal(t, 0, b.TotalItems(), "sessions do not share cart state")
}

func TestManager_Drop(t *testing.T) {
	m := NewManager("INR", nil, discardLogger())
	a := m.Get("sess-a")
	a.AddItem(domain.Product{ID: "x", Price: 1})

	m.Drop("sess-a")
	assert.Equal(t, 0, m.Get("sess-a").TotalItems())
}
