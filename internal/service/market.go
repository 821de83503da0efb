package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/RescueDesk/internal/port/cache"
	"github.com/Strob0t/RescueDesk/internal/port/market"
)

// MarketService serves price and balance lookups. Live prices are cached for
// ttl and concurrent lookups of the same symbol share one upstream call.
type MarketService struct {
	prices  market.PriceFeed
	wallets market.Wallets
	cache   cache.Cache
	ttl     time.Duration
	resolve func(string) string
	group   singleflight.Group
}

// NewMarketService creates a MarketService. c may be nil to disable caching.
func NewMarketService(prices market.PriceFeed, wallets market.Wallets, c cache.Cache, ttl time.Duration) *MarketService {
	return &MarketService{prices: prices, wallets: wallets, cache: c, ttl: ttl}
}

// SetAliasResolver lets balance lookups accept wallet aliases.
func (s *MarketService) SetAliasResolver(fn func(string) string) {
	s.resolve = fn
}

// Price returns the spot price for symbol.
func (s *MarketService) Price(ctx context.Context, symbol string) (market.Price, error) {
	key := "price:" + strings.ToUpper(strings.TrimSpace(symbol))

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var p market.Price
			if err := json.Unmarshal(data, &p); err == nil {
				return p, nil
			}
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		p, err := s.prices.Price(ctx, symbol)
		if err != nil {
			return market.Price{}, err
		}
		if s.cache != nil && p.Source == "live" {
			if data, mErr := json.Marshal(p); mErr == nil {
				if cErr := s.cache.Set(ctx, key, data, s.ttl); cErr != nil {
					slog.WarnContext(ctx, "price cache set failed", "key", key, "error", cErr)
				}
			}
		}
		return p, nil
	})
	if err != nil {
		return market.Price{}, err
	}
	return v.(market.Price), nil
}

// Balance returns the holdings of address, which may be a wallet alias.
func (s *MarketService) Balance(ctx context.Context, address string) (market.Balance, error) {
	if s.resolve != nil {
		address = s.resolve(address)
	}
	return s.wallets.Balance(ctx, address)
}
