package crypto

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/port/market"
)

// SimulatedWallets reports fixed balances and acknowledges transfers with a
// pseudo transaction hash. Nothing is signed or broadcast.
type SimulatedWallets struct {
	explorer string
	usdc     float64
	eth      float64
}

var _ market.Wallets = (*SimulatedWallets)(nil)

// NewSimulatedWallets returns wallets linking to the given block explorer.
func NewSimulatedWallets(explorerURL string, usdc, eth float64) *SimulatedWallets {
	return &SimulatedWallets{
		explorer: strings.TrimRight(explorerURL, "/"),
		usdc:     usdc,
		eth:      eth,
	}
}

// Balance returns the configured balance for address.
func (w *SimulatedWallets) Balance(_ context.Context, address string) (market.Balance, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return market.Balance{}, fmt.Errorf("%w: address is required", domain.ErrValidation)
	}
	return market.Balance{
		Address:  address,
		USDC:     w.usdc,
		ETH:      w.eth,
		Explorer: w.explorer + "/address/" + address,
	}, nil
}

// Transfer acknowledges a USDC transfer to the given address.
func (w *SimulatedWallets) Transfer(ctx context.Context, to string, amount float64) (market.Transfer, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return market.Transfer{}, fmt.Errorf("%w: receiver is required", domain.ErrValidation)
	}
	if amount <= 0 {
		return market.Transfer{}, fmt.Errorf("%w: amount must be > 0", domain.ErrValidation)
	}

	hash := pseudoTxHash()
	slog.InfoContext(ctx, "simulated transfer submitted", "to", to, "amount", amount, "tx_hash", hash)
	return market.Transfer{
		Status:   "submitted",
		TxHash:   hash,
		Explorer: w.explorer + "/tx/" + hash,
		To:       to,
		Amount:   amount,
	}, nil
}

// pseudoTxHash returns a 0x-prefixed 64-hex-digit identifier.
func pseudoTxHash() string {
	h := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "0x" + h + h
}
