package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/paystore/internal/cart"
	"github.com/utafrali/paystore/internal/checkout"
	"github.com/utafrali/paystore/internal/domain"
	"github.com/utafrali/paystore/internal/event"
	"github.com/utafrali/paystore/internal/payment"
	"github.com/utafrali/paystore/pkg/httputil"
	"github.com/utafrali/paystore/pkg/validator"
)

// CheckoutHandler runs the checkout orchestration for a session.
type CheckoutHandler struct {
	carts    *cart.Manager
	payments *payment.Client
	widget   checkout.Widget
	events   *event.Producer
	cfg      checkout.Config
	logger   *slog.Logger
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(
	carts *cart.Manager,
	payments *payment.Client,
	widget checkout.Widget,
	events *event.Producer,
	cfg checkout.Config,
	logger *slog.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		carts:    carts,
		payments: payments,
		widget:   widget,
		events:   events,
		cfg:      cfg,
		logger:   logger,
	}
}

// CheckoutRequest is the JSON body for starting a checkout.
type CheckoutRequest struct {
	Provider domain.PaymentProvider `json:"provider" validate:"required,oneof=PAYPAL RAZORPAY PHONEPE"`
}

// newFlow builds a single-use flow bound to the request's session. A client
// disconnect marks the flow abandoned so polling stops between attempts.
func (h *CheckoutHandler) newFlow(r *http.Request) *checkout.Flow {
	session := sessionID(r)
	store := h.carts.Get(session)
	flow := checkout.NewFlow(store, h.payments, h.widget, h.events, h.cfg, session, h.logger)
	context.AfterFunc(r.Context(), flow.Abandon)
	return flow
}

// Checkout handles POST /api/v1/checkout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CheckoutRequest
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

	result, err := h.newFlow(r).Checkout(r.Context(), req.Provider)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// VerifyPayment handles POST /api/v1/payments/{paymentId}/verify. It drives
// the bounded polling loop and returns the resulting checkout state.
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	result, err := h.newFlow(r).Verify(r.Context(), chi.URLParam(r, "paymentId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetPayment handles GET /api/v1/payments/{paymentId}.
func (h *CheckoutHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	pay, err := h.payments.Get(r.Context(), chi.URLParam(r, "paymentId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pay})
}

// ListOrderPayments handles GET /api/v1/payments/order/{orderId}.
func (h *CheckoutHandler) ListOrderPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListByOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: payments})
}
