// Package subscriptions defines the subscription checkout port.
package subscriptions

import "context"

// Checkout is an opened checkout session.
type Checkout struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	Plan      string `json:"plan"`
	User      string `json:"user"`
}

// CheckoutCreator opens checkout sessions for subscription renewals.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, user, plan string) (Checkout, error)
}
