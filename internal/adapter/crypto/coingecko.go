// Package crypto provides the market collaborators: CoinGecko spot prices with a
// mock fallback, and a simulated wallet that reports balances and submits transfers.
package crypto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/port/market"
	"github.com/Strob0t/RescueDesk/internal/resilience"
)

// coinIDs maps ticker symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"DOGE": "dogecoin",
	"USDC": "usd-coin",
}

// PriceFeed fetches spot prices from CoinGecko. When the API fails or is
// unreachable it falls back to a fixed price table.
type PriceFeed struct {
	baseURL    string
	mock       map[string]float64
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ market.PriceFeed = (*PriceFeed)(nil)

// NewPriceFeed creates a feed. An empty baseURL disables live lookups.
func NewPriceFeed(baseURL string, mock map[string]float64) *PriceFeed {
	m := make(map[string]float64, len(mock))
	for k, v := range mock {
		m[strings.ToUpper(k)] = v
	}
	return &PriceFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		mock:    m,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to outgoing calls.
func (f *PriceFeed) SetBreaker(b *resilience.Breaker) {
	f.breaker = b
}

// Price returns the USD price for symbol.
func (f *PriceFeed) Price(ctx context.Context, symbol string) (market.Price, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return market.Price{}, fmt.Errorf("%w: symbol is required", domain.ErrValidation)
	}

	if id, ok := coinIDs[sym]; ok && f.baseURL != "" {
		price, err := f.fetch(ctx, id)
		if err == nil {
			return market.Price{Symbol: sym, Price: price, Currency: "USD", Source: "live"}, nil
		}
		slog.WarnContext(ctx, "coingecko lookup failed, using mock price", "symbol", sym, "error", err)
	}

	if p, ok := f.mock[sym]; ok {
		return market.Price{Symbol: sym, Price: p, Currency: "USD", Source: "mock"}, nil
	}
	return market.Price{}, fmt.Errorf("price for %s: %w", sym, domain.ErrNotFound)
}

func (f *PriceFeed) fetch(ctx context.Context, coinID string) (float64, error) {
	var price float64
	call := func(ctx context.Context) error {
		q := url.Values{}
		q.Set("ids", coinID)
		q.Set("vs_currencies", "usd")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/simple/price?"+q.Encode(), http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(data))
		}

		var body map[string]map[string]float64
		if err := json.Unmarshal(data, &body); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		p, ok := body[coinID]["usd"]
		if !ok || p <= 0 {
			return fmt.Errorf("coingecko: no usd price for %s", coinID)
		}
		price = p
		return nil
	}

	if f.breaker != nil {
		if err := f.breaker.Execute(ctx, call); err != nil {
			return 0, err
		}
		return price, nil
	}
	if err := call(ctx); err != nil {
		return 0, err
	}
	return price, nil
}
