package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/paystore/internal/domain"
	pkgkafka "github.com/utafrali/paystore/pkg/kafka"
)

// Kafka topic constants for storefront events.
const (
	TopicOrderPlaced       = "storefront.order.placed"
	TopicCheckoutCompleted = "storefront.checkout.completed"
	TopicCheckoutFailed    = "storefront.checkout.failed"
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypePayment = "payment"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-bff"

// OrderPlacedData is the payload for a storefront.order.placed event.
type OrderPlacedData struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	ItemCount   int    `json:"item_count"`
}

// CheckoutCompletedData is the payload for a storefront.checkout.completed event.
type CheckoutCompletedData struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Provider  string `json:"provider"`
}

// CheckoutFailedData is the payload for a storefront.checkout.failed event.
type CheckoutFailedData struct {
	PaymentID     string `json:"payment_id,omitempty"`
	OrderID       string `json:"order_id"`
	Provider      string `json:"provider,omitempty"`
	Status        string `json:"status,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Producer publishes storefront events to Kafka. A nil underlying producer
// turns every publish into a no-op, so checkout keeps working without a broker.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a storefront event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderPlaced publishes a storefront.order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sessionID string, order *domain.Order) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := OrderPlacedData{
		OrderID:     order.ID,
		SessionID:   sessionID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		ItemCount:   len(order.Items),
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, order.ID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicOrderPlaced, event)
}

// PublishCheckoutCompleted publishes a storefront.checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, payment *domain.Payment) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := CheckoutCompletedData{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Provider:  string(payment.Provider),
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutCompleted, payment.OrderID, AggregateTypePayment, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create checkout.completed event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicCheckoutCompleted, event)
}

// PublishCheckoutFailed publishes a storefront.checkout.failed event.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, orderID string, payment *domain.Payment, reason string) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := CheckoutFailedData{
		OrderID:       orderID,
		FailureReason: reason,
	}
	if payment != nil {
		data.PaymentID = payment.ID
		data.Provider = string(payment.Provider)
		data.Status = string(payment.Status)
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutFailed, orderID, AggregateTypePayment, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create checkout.failed event: %w", err)
	}

	return p.kafka.Publish(ctx, TopicCheckoutFailed, event)
}
