// Package payments defines the card-payment provider port.
package payments

import "context"

// DepositRequest asks the provider to take a card deposit.
type DepositRequest struct {
	AmountUSD float64
	User      string
}

// Deposit is the provider's acknowledgement.
type Deposit struct {
	Status   string  `json:"status"`
	StripeID string  `json:"stripe_id"`
	Amount   float64 `json:"amount"`
	Mode     string  `json:"mode"` // "api" or "mock"
}

// Provider takes card deposits.
type Provider interface {
	Deposit(ctx context.Context, req DepositRequest) (Deposit, error)
}
