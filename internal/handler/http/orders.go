package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/paystore/internal/orders"
	"github.com/utafrali/paystore/pkg/httputil"
)

// OrdersHandler serves the session's order history.
type OrdersHandler struct {
	repo   orders.Repository
	logger *slog.Logger
}

// NewOrdersHandler creates an orders HTTP handler.
func NewOrdersHandler(repo orders.Repository, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{repo: repo, logger: logger}
}

// ListOrders handles GET /api/v1/orders. Orders are returned newest first,
// as they are stored.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.GetOrders(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}
