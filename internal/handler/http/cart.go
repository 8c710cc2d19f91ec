package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/paystore/internal/cart"
	"github.com/utafrali/paystore/internal/catalog"
	"github.com/utafrali/paystore/internal/domain"
	"github.com/utafrali/paystore/pkg/httputil"
	"github.com/utafrali/paystore/pkg/validator"
)

// CartHandler exposes the session cart over HTTP.
type CartHandler struct {
	carts   *cart.Manager
	catalog *catalog.Client
	logger  *slog.Logger
}

// NewCartHandler creates a cart HTTP handler.
func NewCartHandler(carts *cart.Manager, catalogClient *catalog.Client, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalogClient,
		logger:  logger,
	}
}

// AddItemRequest is the JSON body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// UpdateQuantityRequest is the JSON body for setting a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartView is the cart representation returned to the frontend, with totals
// precomputed so the UI never re-derives them.
type CartView struct {
	Items       []domain.CartItem `json:"items"`
	TotalItems  int               `json:"totalItems"`
	TotalAmount int64             `json:"totalAmount"`
}

func cartView(c domain.Cart) CartView {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartView{
		Items:       items,
		TotalItems:  c.TotalItems(),
		TotalAmount: c.TotalAmount(),
	}
}

// GetCart handles GET /api/v1/cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(sessionID(r))
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartView(store.Cart())})
}

// AddItem handles POST /api/v1/cart/items. The product snapshot comes from
// the catalog service at add-time.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	store := h.carts.Get(sessionID(r))
	store.AddItem(*product)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartView(store.Cart())})
}

// UpdateQuantity handles PUT /api/v1/cart/items/{productId}. A quantity of
// zero or less removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	store := h.carts.Get(sessionID(r))
	store.UpdateQuantity(chi.URLParam(r, "productId"), req.Quantity)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartView(store.Cart())})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(sessionID(r))
	store.RemoveItem(chi.URLParam(r, "productId"))

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartView(store.Cart())})
}

// ClearCart handles DELETE /api/v1/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(sessionID(r))
	store.Clear()

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartView(store.Cart())})
}
