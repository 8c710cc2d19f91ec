package domain

import "time"

// PaymentProvider identifies an external payment gateway.
type PaymentProvider string

const (
	ProviderPayPal   PaymentProvider = "PAYPAL"
	ProviderRazorpay PaymentProvider = "RAZORPAY"
	ProviderPhonePe  PaymentProvider = "PHONEPE"
)

// Valid reports whether the provider is one of the supported gateways.
func (p PaymentProvider) Valid() bool {
	switch p {
	case ProviderPayPal, ProviderRazorpay, ProviderPhonePe:
		return true
	}
	return false
}

// Inline reports whether the provider confirms payment through an embedded
// widget instead of a full-page redirect. Razorpay is the only inline gateway.
func (p PaymentProvider) Inline() bool {
	return p == ProviderRazorpay
}

// PaymentStatus is the closed status enumeration owned by the payment service.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// Valid reports whether the status is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted,
		PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is expected.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// Payment mirrors the payment service's representation of a transaction.
// This service never mutates a Payment directly; it requests transitions over
// HTTP and holds the returned state for display.
type Payment struct {
	ID                 string          `json:"id"`
	OrderID            string          `json:"orderId"`
	Amount             int64           `json:"amount"`
	Currency           string          `json:"currency"`
	Provider           PaymentProvider `json:"provider"`
	Status             PaymentStatus   `json:"status"`
	GatewayPaymentID   string          `json:"gatewayPaymentId,omitempty"`
	GatewayRedirectURL string          `json:"gatewayRedirectUrl,omitempty"`
	Description        string          `json:"description,omitempty"`
	FailureReason      string          `json:"failureReason,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}
