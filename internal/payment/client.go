package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/paystore/internal/domain"
	"github.com/utafrali/paystore/pkg/httpclient"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// InitiateRequest is the payment service's initiation payload.
type InitiateRequest struct {
	OrderID     string                 `json:"orderId" validate:"required"`
	Amount      int64                  `json:"amount" validate:"gt=0"`
	Currency    string                 `json:"currency" validate:"required,len=3"`
	Provider    domain.PaymentProvider `json:"provider" validate:"required"`
	Description string                 `json:"description,omitempty"`
	ReturnURL   string                 `json:"returnUrl,omitempty"`
	CancelURL   string                 `json:"cancelUrl,omitempty"`
}

// Client talks to the external payment service.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a payment service client. baseURL must not end in a slash.
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Initiate asks the payment service to start a payment against the chosen
// provider. Callers must treat this as at-most-once per order: the underlying
// client never retries non-GET requests.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*domain.Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal initiate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create initiate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var payment domain.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	c.logger.InfoContext(ctx, "payment initiated",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", payment.OrderID),
		slog.String("provider", string(payment.Provider)),
	)

	return &payment, nil
}

// Get fetches the current state of a payment by its identifier.
func (c *Client) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return c.getPayment(ctx, c.baseURL+"/api/v1/payments/"+paymentID)
}

// ListByOrder returns all payments recorded against an order.
func (c *Client) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/payments/order/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var payments []domain.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payments); err != nil {
		return nil, fmt.Errorf("decode payments response: %w", err)
	}

	return payments, nil
}

// Verify asks the payment service to confirm the payment with its gateway.
// The gateway may not be ready yet, in which case this legitimately fails and
// callers fall back to Get.
func (c *Client) Verify(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return c.postTransition(ctx, paymentID, "verify")
}

// Refund requests a refund of a completed payment.
func (c *Client) Refund(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return c.postTransition(ctx, paymentID, "refund")
}

// Cancel requests cancellation of a pending payment.
func (c *Client) Cancel(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return c.postTransition(ctx, paymentID, "cancel")
}

func (c *Client) getPayment(ctx context.Context, url string) (*domain.Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create get request: %w", err)
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var payment domain.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	return &payment, nil
}

func (c *Client) postTransition(ctx context.Context, paymentID, action string) (*domain.Payment, error) {
	url := c.baseURL + "/api/v1/payments/" + paymentID + "/" + action

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", action, err)
	}

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "payment")
	}

	var payment domain.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	return &payment, nil
}
