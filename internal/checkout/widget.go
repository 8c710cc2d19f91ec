package checkout

import "context"

// WidgetOutcome is the result of an inline checkout widget interaction.
type WidgetOutcome string

const (
	// OutcomeConfirmed means the shopper completed the widget; the payment
	// should now be verified with the payment service.
	OutcomeConfirmed WidgetOutcome = "CONFIRMED"

	// OutcomeDismissed means the shopper closed the widget without paying.
	OutcomeDismissed WidgetOutcome = "DISMISSED"

	// OutcomeLoadFailed means the widget itself could not be loaded.
	OutcomeLoadFailed WidgetOutcome = "LOAD_FAILED"
)

// Widget abstracts the inline (embedded) gateway checkout integration. Open
// blocks until the interaction resolves: the shopper confirms, dismisses, or
// the widget fails to load. How the widget is delivered to the shopper is the
// implementation's concern.
type Widget interface {
	Open(ctx context.Context, gatewayPaymentID string, amount int64) (WidgetOutcome, error)
}
