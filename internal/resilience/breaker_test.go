package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/RescueDesk/internal/domain"
)

var errTest = errors.New("service unavailable")

func fail(context.Context) error { return errTest }
func ok(context.Context) error   { return nil }

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	called := false
	err := b.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, fail)
	}

	err := b.Execute(ctx, ok)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("open circuit should match ErrUnavailable, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}
}

func TestTransitionsToHalfOpenAfterTimeout(t *testing.T) {
	now := time.Now()
	b := NewBreaker("test", 2, time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = b.Execute(ctx, fail)
	}

	if err := b.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(2 * time.Second)

	called := false
	err := b.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error in half-open, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called in half-open")
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after half-open success, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("test", 2, time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = b.Execute(ctx, fail)
	}
	now = now.Add(2 * time.Second)

	_ = b.Execute(ctx, fail)
	if b.State() != StateOpen {
		t.Fatalf("expected open after half-open failure, got %s", b.State())
	}
	if err := b.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestHalfOpenAllowsSingleProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("test", 1, time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	now = now.Add(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := b.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second call during probe should be rejected, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, ok)
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)

	if err := b.Execute(ctx, ok); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCallerCancellationIsNotAFailure(t *testing.T) {
	b := NewBreaker("test", 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if b.State() != StateClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
}
