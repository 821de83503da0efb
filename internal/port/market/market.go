// Package market defines the price, balance and transfer collaborator ports.
package market

import "context"

// Price is a spot price quote.
type Price struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Source   string  `json:"source"` // "live" or "mock"
}

// Balance is a wallet's holdings.
type Balance struct {
	Address  string  `json:"address"`
	USDC     float64 `json:"usdc"`
	ETH      float64 `json:"eth"`
	Explorer string  `json:"explorer"`
}

// Transfer acknowledges a submitted stablecoin transfer.
type Transfer struct {
	Status   string  `json:"status"`
	TxHash   string  `json:"tx_hash"`
	Explorer string  `json:"explorer"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
}

// PriceFeed returns spot prices.
type PriceFeed interface {
	Price(ctx context.Context, symbol string) (Price, error)
}

// Wallets reads balances and moves funds.
type Wallets interface {
	Balance(ctx context.Context, address string) (Balance, error)
	Transfer(ctx context.Context, to string, amount float64) (Transfer, error)
}
