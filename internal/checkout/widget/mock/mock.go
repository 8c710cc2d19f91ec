// Package mock provides an inline checkout widget stand-in for development
// and testing. No real gateway script exists server-side, so the widget's
// outcome is scripted up front.
package mock

import (
	"context"
	"time"

	"github.com/utafrali/paystore/internal/checkout"
)

// Widget resolves every interaction with a fixed outcome after an optional
// simulated delay.
type Widget struct {
	outcome checkout.WidgetOutcome
	delay   time.Duration
}

// NewWidget creates a widget that always resolves to the given outcome.
func NewWidget(outcome checkout.WidgetOutcome) *Widget {
	return &Widget{outcome: outcome}
}

// NewWidgetWithDelay creates a widget that waits before resolving, to mimic a
// shopper interacting with the real embedded checkout.
func NewWidgetWithDelay(outcome checkout.WidgetOutcome, delay time.Duration) *Widget {
	return &Widget{outcome: outcome, delay: delay}
}

// Open resolves with the scripted outcome, or early with the context's error.
func (w *Widget) Open(ctx context.Context, gatewayPaymentID string, amount int64) (checkout.WidgetOutcome, error) {
	if w.delay > 0 {
		timer := time.NewTimer(w.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return checkout.OutcomeDismissed, ctx.Err()
		case <-timer.C:
		}
	}
	return w.outcome, nil
}
