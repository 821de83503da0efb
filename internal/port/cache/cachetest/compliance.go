// Package cachetest holds the shared behaviour suite every cache adapter must pass.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/RescueDesk/internal/port/cache"
)

// Run runs the compliance suite against c. settle is called after each write
// for adapters that apply writes asynchronously; pass nil when writes are synchronous.
func Run(t *testing.T, c cache.Cache, settle func()) {
	t.Helper()
	ctx := context.Background()
	wait := func() {
		if settle != nil {
			settle()
		}
	}

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "price:ETH", []byte(`{"price":3500}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		wait()
		val, found, err := c.Get(ctx, "price:ETH")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `{"price":3500}` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "price:NOPE")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "price:SOL", []byte("150"), time.Minute)
		wait()
		if err := c.Delete(ctx, "price:SOL"); err != nil {
			t.Fatal(err)
		}
		_, found, err := c.Get(ctx, "price:SOL")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "price:BTC", []byte("v1"), time.Minute)
		wait()
		_ = c.Set(ctx, "price:BTC", []byte("v2"), time.Minute)
		wait()
		val, found, err := c.Get(ctx, "price:BTC")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %s", val)
		}
	})
}
