package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/paystore/internal/cart"
	"github.com/utafrali/paystore/internal/catalog"
	"github.com/utafrali/paystore/internal/checkout"
	widgetmock "github.com/utafrali/paystore/internal/checkout/widget/mock"
	"github.com/utafrali/paystore/internal/domain"
	"github.com/utafrali/paystore/internal/event"
	"github.com/utafrali/paystore/internal/orders"
	"github.com/utafrali/paystore/internal/payment"
	"github.com/utafrali/paystore/pkg/health"
	"github.com/utafrali/paystore/pkg/httpclient"
	"github.com/utafrali/paystore/pkg/httputil"
	"github.com/utafrali/paystore/pkg/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memOrders is an in-memory stand-in for the redis order repository. It
// doubles as the cart's order sink so the persistence path is exercised
// end to end.
type memOrders struct {
	mu     sync.Mutex
	bySess map[string][]domain.Order
}

func newMemOrders() *memOrders {
	return &memOrders{bySess: make(map[string][]domain.Order)}
}

func (m *memOrders) SaveOrders(_ context.Context, sessionID string, list []domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySess[sessionID] = append([]domain.Order(nil), list...)
	return nil
}

func (m *memOrders) GetOrders(_ context.Context, sessionID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Order(nil), m.bySess[sessionID]...), nil
}

func (m *memOrders) DeleteOrders(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bySess, sessionID)
	return nil
}

var _ orders.Repository = (*memOrders)(nil)
var _ cart.OrderSink = (*memOrders)(nil)

const sampleProductJSON = `{
	"id": "prod-1",
	"productName": "Mechanical Keyboard",
	"description": "Tenkeyless, brown switches",
	"price": 549900,
	"quantity": 12,
	"thumbnail": {"imageId": "img-1", "url": "https://cdn.example.com/kb.jpg"},
	"productGallery": [],
	"category": {"id": "cat-1", "name": "Accessories"}
}`

// catalogBackend serves a single product at the catalog service's routes.
func catalogBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/catalog/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + sampleProductJSON + "]"))
	})
	mux.HandleFunc("GET /api/catalog/products/prod-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleProductJSON))
	})
	mux.HandleFunc("GET /api/catalog/products/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404,"message":"product not found","timestamp":"2026-08-29T10:00:00Z"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func paymentJSON(id, orderID, status, redirectURL string, mutate ...func(*domain.Payment)) string {
	pay := domain.Payment{
		ID:                 id,
		OrderID:            orderID,
		Amount:             549900,
		Currency:           "INR",
		Provider:           domain.ProviderPayPal,
		Status:             domain.PaymentStatus(status),
		GatewayRedirectURL: redirectURL,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	for _, m := range mutate {
		m(&pay)
	}
	b, _ := json.Marshal(pay)
	return string(b)
}

type testEnv struct {
	router http.Handler
	orders *memOrders
}

// newTestEnv assembles the production router against httptest backends for
// the catalog and payment services.
func newTestEnv(t *testing.T, paymentSrv *httptest.Server, widget checkout.Widget) *testEnv {
	t.Helper()
	logger := testLogger()
	catalogSrv := catalogBackend(t)

	httpClient := httpclient.New(httpclient.Config{
		Timeout:      2 * time.Second,
		MaxRetries:   1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	})

	catalogClient := catalog.NewClient(httpClient, catalogSrv.URL, "INR", logger)

	paymentURL := "http://127.0.0.1:0"
	if paymentSrv != nil {
		paymentURL = paymentSrv.URL
	}
	paymentClient := payment.NewClient(httpClient, paymentURL, logger)

	store := newMemOrders()
	carts := cart.NewManager("INR", store, logger)
	events := event.NewProducer(nil, logger)

	flowCfg := checkout.Config{
		Currency:      "INR",
		PublicBaseURL: "http://localhost:3000",
		MaxAttempts:   2,
		PollInterval:  5 * time.Millisecond,
	}

	router := NewRouter(RouterConfig{
		Cart:     NewCartHandler(carts, catalogClient, logger),
		Catalog:  NewCatalogHandler(catalogClient, logger),
		Checkout: NewCheckoutHandler(carts, paymentClient, widget, events, flowCfg, logger),
		Orders:   NewOrdersHandler(store, logger),
		Health:   health.NewHandler(),
		CORS:     middleware.DefaultCORSConfig(),
		Logger:   logger,
	})

	return &testEnv{router: router, orders: store}
}

func (e *testEnv) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartView {
	t.Helper()
	var resp struct {
		Data CartView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Data
}

func TestMissingSessionHeader(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_SESSION", resp.Error.Code)
}

func TestGetCart_Empty(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", "sess-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	view := decodeCart(t, rec)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.TotalItems)
	assert.Equal(t, int64(0), view.TotalAmount)
}

func TestAddItem_FetchesProductAndAccumulates(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeCart(t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Mechanical Keyboard", view.Items[0].Product.Name)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, int64(1099800), view.TotalAmount)
}

func TestAddItem_MissingProductID(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-missing"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/prod-1", "sess-1", UpdateQuantityRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeCart(t, rec).TotalItems)

	rec = env.do(t, http.MethodPut, "/api/v1/cart/items/prod-1", "sess-1", UpdateQuantityRequest{Quantity: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestRemoveItemAndClearCart(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-1"})

	rec := env.do(t, http.MethodDelete, "/api/v1/cart/items/prod-1", "sess-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-1"})
	rec = env.do(t, http.MethodDelete, "/api/v1/cart", "sess-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestSessionIsolation(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-a", AddItemRequest{ProductID: "prod-1"})

	rec := env.do(t, http.MethodGet, "/api/v1/cart", "sess-b", nil)
	assert.Empty(t, decodeCart(t, rec).Items)

	rec = env.do(t, http.MethodGet, "/api/v1/cart", "sess-a", nil)
	assert.Len(t, decodeCart(t, rec).Items, 1)
}

func TestListProducts_NoSessionRequired(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/products", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []domain.Product `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Mechanical Keyboard", resp.Data[0].Name)
	assert.Equal(t, "INR", resp.Data[0].Currency)
}

func TestCheckout_InvalidProvider(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", "sess-1", map[string]string{"provider": "STRIPE"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", "sess-1", CheckoutRequest{Provider: domain.ProviderPayPal})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestCheckout_RedirectFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/payments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(paymentJSON("pay-1", "", "PENDING", "https://gateway.example.com/approve/pay-1")))
	})
	paymentSrv := httptest.NewServer(mux)
	defer paymentSrv.Close()

	env := newTestEnv(t, paymentSrv, nil)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-1"})

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", "sess-1", CheckoutRequest{Provider: domain.ProviderPayPal})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data checkout.Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, checkout.StateRedirecting, resp.Data.State)
	assert.Equal(t, "https://gateway.example.com/approve/pay-1", resp.Data.RedirectURL)
	require.NotNil(t, resp.Data.Order)
	assert.Equal(t, int64(549900), resp.Data.Order.TotalAmount)

	// Placing the order cleared the cart and persisted the history.
	rec = env.do(t, http.MethodGet, "/api/v1/cart", "sess-1", nil)
	assert.Empty(t, decodeCart(t, rec).Items)

	saved, err := env.orders.GetOrders(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
}

func TestCheckout_InlineWidgetConfirmed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/payments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(paymentJSON("pay-2", "", "PENDING", "", func(p *domain.Payment) {
			p.Provider = domain.ProviderRazorpay
			p.GatewayPaymentID = "rzp_order_1"
		})))
	})
	mux.HandleFunc("POST /api/v1/payments/pay-2/verify", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(paymentJSON("pay-2", "", "COMPLETED", "")))
	})
	paymentSrv := httptest.NewServer(mux)
	defer paymentSrv.Close()

	env := newTestEnv(t, paymentSrv, widgetmock.NewWidget(checkout.OutcomeConfirmed))

	env.do(t, http.MethodPost, "/api/v1/cart/items", "sess-1", AddItemRequest{ProductID: "prod-1"})

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", "sess-1", CheckoutRequest{Provider: domain.ProviderRazorpay})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data checkout.Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, checkout.StateSuccess, resp.Data.State)
}

func TestVerifyPayment_Completed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/payments/pay-9/verify", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(paymentJSON("pay-9", "ord-9", "COMPLETED", "")))
	})
	paymentSrv := httptest.NewServer(mux)
	defer paymentSrv.Close()

	env := newTestEnv(t, paymentSrv, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/payments/pay-9/verify", "sess-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data checkout.Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, checkout.StateSuccess, resp.Data.State)
	require.NotNil(t, resp.Data.Payment)
	assert.Equal(t, domain.PaymentCompleted, resp.Data.Payment.Status)
}

func TestGetPayment_Proxy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/payments/pay-5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(paymentJSON("pay-5", "ord-5", "PROCESSING", "")))
	})
	paymentSrv := httptest.NewServer(mux)
	defer paymentSrv.Close()

	env := newTestEnv(t, paymentSrv, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/payments/pay-5", "sess-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.Payment `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "pay-5", resp.Data.ID)
	assert.Equal(t, domain.PaymentProcessing, resp.Data.Status)
}

func TestListOrderPayments_Proxy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/payments/order/ord-7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + paymentJSON("pay-7", "ord-7", "COMPLETED", "") + "]"))
	})
	paymentSrv := httptest.NewServer(mux)
	defer paymentSrv.Close()

	env := newTestEnv(t, paymentSrv, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/payments/order/ord-7", "sess-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Payment `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ord-7", resp.Data[0].OrderID)
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	order := domain.NewOrder([]domain.CartItem{}, 0, "INR")
	require.NoError(t, env.orders.SaveOrders(context.Background(), "sess-1", []domain.Order{order}))

	rec := env.do(t, http.MethodGet, "/api/v1/orders", "sess-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, order.ID, resp.Data[0].ID)
}
