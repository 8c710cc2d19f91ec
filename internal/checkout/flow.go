package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/utafrali/paystore/internal/cart"
	"github.com/utafrali/paystore/internal/domain"
	"github.com/utafrali/paystore/internal/event"
	"github.com/utafrali/paystore/internal/payment"
	apperrors "github.com/utafrali/paystore/pkg/errors"
)

// State names the phases of a single checkout attempt.
type State string

const (
	StateIdle           State = "IDLE"
	StateInitiating     State = "INITIATING"
	StateRedirecting    State = "REDIRECTING"
	StateAwaitingInline State = "AWAITING_INLINE_CONFIRMATION"
	StateVerifying      State = "VERIFYING"
	StateSuccess        State = "TERMINAL_SUCCESS"
	StateFailure        State = "TERMINAL_FAILURE"
)

// ErrAbandoned is returned when the flow was abandoned mid-attempt. No state
// has been mutated after the abandonment was observed.
var ErrAbandoned = errors.New("checkout flow abandoned")

// PaymentAPI is the slice of the payment service contract the flow drives.
type PaymentAPI interface {
	Initiate(ctx context.Context, req payment.InitiateRequest) (*domain.Payment, error)
	Get(ctx context.Context, paymentID string) (*domain.Payment, error)
	Verify(ctx context.Context, paymentID string) (*domain.Payment, error)
}

// Result describes where a checkout attempt ended up. Message carries
// user-facing text for every non-success outcome; failures inside the flow
// never escape as raw errors.
type Result struct {
	State       State           `json:"state"`
	Order       *domain.Order   `json:"order,omitempty"`
	Payment     *domain.Payment `json:"payment,omitempty"`
	RedirectURL string          `json:"redirectUrl,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// Config tunes the verification polling loop and the callback URLs handed to
// the payment service.
type Config struct {
	Currency      string
	PublicBaseURL string
	MaxAttempts   int
	PollInterval  time.Duration
}

// Flow drives one checkout attempt from order placement to a terminal payment
// outcome. A Flow instance belongs to a single attempt and must not be reused.
// Abandon may be called from any goroutine; every suspension point checks the
// flag before applying further state.
type Flow struct {
	store     *cart.Store
	api       PaymentAPI
	widget    Widget
	events    *event.Producer
	logger    *slog.Logger
	cfg       Config
	sessionID string
	abandoned atomic.Bool
}

// NewFlow creates a flow for one checkout attempt. widget may be nil when no
// inline provider is offered; events may be nil to disable publishing.
func NewFlow(store *cart.Store, api PaymentAPI, widget Widget, events *event.Producer, cfg Config, sessionID string, logger *slog.Logger) *Flow {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 6
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2500 * time.Millisecond
	}

	return &Flow{
		store:     store,
		api:       api,
		widget:    widget,
		events:    events,
		logger:    logger,
		cfg:       cfg,
		sessionID: sessionID,
	}
}

// Abandon marks the flow as abandoned. Pending work stops at the next
// suspension point and no further state is applied.
func (f *Flow) Abandon() {
	f.abandoned.Store(true)
}

// Checkout runs an attempt for the chosen provider. Precondition violations
// (empty cart, unknown provider) return an error before any order is placed
// or network call made. Every later failure is folded into the Result: the
// order stays placed, the state returns to IDLE, and Message explains why.
func (f *Flow) Checkout(ctx context.Context, provider domain.PaymentProvider) (*Result, error) {
	if !provider.Valid() {
		return nil, apperrors.InvalidInput("please select a payment method")
	}
	if f.store.Cart().IsEmpty() {
		return nil, apperrors.InvalidInput("your cart is empty")
	}

	order := f.store.PlaceOrder(ctx)
	if order == nil {
		return nil, apperrors.InvalidInput("your cart is empty")
	}

	if err := f.events.PublishOrderPlaced(ctx, f.sessionID, order); err != nil {
		f.logger.WarnContext(ctx, "failed to publish order.placed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	f.logger.InfoContext(ctx, "checkout started",
		slog.String("order_id", order.ID),
		slog.String("provider", string(provider)),
		slog.Int64("amount", order.TotalAmount),
	)

	pay, err := f.api.Initiate(ctx, payment.InitiateRequest{
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		Currency:    f.cfg.Currency,
		Provider:    provider,
		Description: "Order " + shortID(order.ID),
		ReturnURL:   f.cfg.PublicBaseURL + "/payment/verify",
		CancelURL:   f.cfg.PublicBaseURL + "/payment/cancelled",
	})
	if f.abandoned.Load() {
		return nil, ErrAbandoned
	}
	if err != nil {
		// The order is already placed and is deliberately not rolled back.
		f.logger.ErrorContext(ctx, "payment initiation failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		f.publishFailed(ctx, order.ID, nil, apperrors.UserMessage(err, "payment initiation failed"))

		return &Result{
			State:   StateIdle,
			Order:   order,
			Message: apperrors.UserMessage(err, "payment initiation failed, please try again"),
		}, nil
	}

	// Redirect providers take priority: the shopper leaves for the gateway
	// page and no local polling happens.
	if pay.GatewayRedirectURL != "" {
		return &Result{
			State:       StateRedirecting,
			Order:       order,
			Payment:     pay,
			RedirectURL: pay.GatewayRedirectURL,
		}, nil
	}

	if provider.Inline() && pay.GatewayPaymentID != "" && f.widget != nil {
		return f.runInline(ctx, order, pay)
	}

	result, err := f.Verify(ctx, pay.ID)
	if err != nil {
		return nil, err
	}
	result.Order = order
	return result, nil
}

// runInline drives the embedded-widget branch for inline providers.
func (f *Flow) runInline(ctx context.Context, order *domain.Order, pay *domain.Payment) (*Result, error) {
	outcome, err := f.widget.Open(ctx, pay.GatewayPaymentID, pay.Amount)
	if f.abandoned.Load() {
		return nil, ErrAbandoned
	}
	if err != nil {
		outcome = OutcomeLoadFailed
	}

	switch outcome {
	case OutcomeConfirmed:
		result, err := f.Verify(ctx, pay.ID)
		if err != nil {
			return nil, err
		}
		result.Order = order
		return result, nil

	case OutcomeDismissed:
		return &Result{
			State:   StateIdle,
			Order:   order,
			Payment: pay,
			Message: "payment cancelled by user",
		}, nil

	default:
		return &Result{
			State:   StateIdle,
			Order:   order,
			Payment: pay,
			Message: "failed to load payment gateway, please try again",
		}, nil
	}
}

// Verify polls the payment service until the payment reaches a terminal
// status or the attempt limit is reached. The first attempt asks the service
// to verify with its gateway and falls back to a plain status read inside the
// same attempt; later attempts only read status. Exhausting the attempts
// without a terminal status is not an error: the last known payment is
// retained and the caller may poll again.
func (f *Flow) Verify(ctx context.Context, paymentID string) (*Result, error) {
	var last *domain.Payment

	for attempt := 0; attempt < f.cfg.MaxAttempts; attempt++ {
		if f.abandoned.Load() {
			return nil, ErrAbandoned
		}

		var pay *domain.Payment
		var err error
		if attempt == 0 {
			pay, err = f.api.Verify(ctx, paymentID)
			if err != nil {
				pay, err = f.api.Get(ctx, paymentID)
			}
		} else {
			pay, err = f.api.Get(ctx, paymentID)
		}

		if f.abandoned.Load() {
			return nil, ErrAbandoned
		}

		if err != nil {
			if attempt == f.cfg.MaxAttempts-1 {
				f.logger.ErrorContext(ctx, "payment verification failed",
					slog.String("payment_id", paymentID),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
				return &Result{
					State:   StateFailure,
					Payment: last,
					Message: apperrors.UserMessage(err, "failed to verify payment"),
				}, nil
			}
			if err := f.wait(ctx); err != nil {
				return nil, err
			}
			continue
		}

		last = pay

		if pay.Status.Terminal() {
			return f.terminal(ctx, pay), nil
		}

		if attempt < f.cfg.MaxAttempts-1 {
			if err := f.wait(ctx); err != nil {
				return nil, err
			}
		}
	}

	// Attempts exhausted on a non-terminal status. Not a failure: report what
	// we know and let the shopper refresh.
	return &Result{
		State:   StateVerifying,
		Payment: last,
		Message: "payment is still processing, check back shortly",
	}, nil
}

func (f *Flow) terminal(ctx context.Context, pay *domain.Payment) *Result {
	if pay.Status == domain.PaymentCompleted {
		if err := f.events.PublishCheckoutCompleted(ctx, pay); err != nil {
			f.logger.WarnContext(ctx, "failed to publish checkout.completed",
				slog.String("payment_id", pay.ID),
				slog.String("error", err.Error()),
			)
		}
		f.logger.InfoContext(ctx, "checkout completed",
			slog.String("payment_id", pay.ID),
			slog.String("order_id", pay.OrderID),
		)
		return &Result{State: StateSuccess, Payment: pay}
	}

	reason := pay.FailureReason
	if reason == "" {
		reason = "payment " + string(pay.Status)
	}
	f.publishFailed(ctx, pay.OrderID, pay, reason)

	f.logger.InfoContext(ctx, "checkout failed",
		slog.String("payment_id", pay.ID),
		slog.String("order_id", pay.OrderID),
		slog.String("status", string(pay.Status)),
	)
	return &Result{State: StateFailure, Payment: pay, Message: reason}
}

func (f *Flow) publishFailed(ctx context.Context, orderID string, pay *domain.Payment, reason string) {
	if err := f.events.PublishCheckoutFailed(ctx, orderID, pay, reason); err != nil {
		f.logger.WarnContext(ctx, "failed to publish checkout.failed",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

// wait sleeps one poll interval, waking early on context cancellation.
func (f *Flow) wait(ctx context.Context) error {
	timer := time.NewTimer(f.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
