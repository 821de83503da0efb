package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/RescueDesk/internal/adapter/ristretto"
	"github.com/Strob0t/RescueDesk/internal/port/market"
	"github.com/Strob0t/RescueDesk/internal/service"
)

type countingFeed struct {
	calls  atomic.Int32
	source string
	err    error
	delay  time.Duration
}

func (f *countingFeed) Price(_ context.Context, symbol string) (market.Price, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return market.Price{}, f.err
	}
	return market.Price{Symbol: symbol, Price: 3500, Currency: "USD", Source: f.source}, nil
}

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestMarketService_CachesLivePrices(t *testing.T) {
	feed := &countingFeed{source: "live"}
	c := newCache(t)
	svc := service.NewMarketService(feed, nil, c, time.Minute)
	ctx := context.Background()

	if _, err := svc.Price(ctx, "ETH"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	p, err := svc.Price(ctx, "eth")
	if err != nil {
		t.Fatal(err)
	}
	if p.Price != 3500 {
		t.Errorf("price = %v", p.Price)
	}
	if n := feed.calls.Load(); n != 1 {
		t.Fatalf("feed called %d times, want 1", n)
	}
}

func TestMarketService_DoesNotCacheMockPrices(t *testing.T) {
	feed := &countingFeed{source: "mock"}
	c := newCache(t)
	svc := service.NewMarketService(feed, nil, c, time.Minute)
	ctx := context.Background()

	_, _ = svc.Price(ctx, "ETH")
	c.Wait()
	_, _ = svc.Price(ctx, "ETH")
	if n := feed.calls.Load(); n != 2 {
		t.Fatalf("feed called %d times, want 2", n)
	}
}

func TestMarketService_CoalescesConcurrentLookups(t *testing.T) {
	feed := &countingFeed{source: "live", delay: 50 * time.Millisecond}
	svc := service.NewMarketService(feed, nil, nil, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Price(context.Background(), "BTC")
		}()
	}
	wg.Wait()
	if n := feed.calls.Load(); n >= 10 {
		t.Fatalf("expected lookups to be coalesced, got %d upstream calls", n)
	}
}

func TestMarketService_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := service.NewMarketService(&countingFeed{err: boom}, nil, nil, time.Minute)
	if _, err := svc.Price(context.Background(), "ETH"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestMarketService_BalanceResolvesAlias(t *testing.T) {
	w := &fakeWallets{usdc: 7}
	svc := service.NewMarketService(nil, w, nil, time.Minute)
	svc.SetAliasResolver(newRegistry(nil, nil, nil).ResolveAlias)

	b, err := svc.Balance(context.Background(), "DEMO_WALLET")
	if err != nil {
		t.Fatal(err)
	}
	if b.USDC != 7 || w.lastQuery == "DEMO_WALLET" {
		t.Fatalf("balance = %+v, queried %q", b, w.lastQuery)
	}
}
