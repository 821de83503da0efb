// Package subscriptions implements subscription renewal checkout sessions.
package subscriptions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/port/subscriptions"
)

// MockCheckout opens checkout sessions without contacting a payment provider.
// The returned URL points at the configured hosted checkout page.
type MockCheckout struct {
	baseURL string
}

var _ subscriptions.CheckoutCreator = (*MockCheckout)(nil)

// NewMockCheckout returns a checkout creator using baseURL for session links.
func NewMockCheckout(baseURL string) *MockCheckout {
	return &MockCheckout{baseURL: strings.TrimRight(baseURL, "/")}
}

// CreateCheckout opens a session for user to renew plan.
func (c *MockCheckout) CreateCheckout(ctx context.Context, user, plan string) (subscriptions.Checkout, error) {
	user = strings.TrimSpace(user)
	plan = strings.TrimSpace(plan)
	if user == "" {
		return subscriptions.Checkout{}, fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	if plan == "" {
		return subscriptions.Checkout{}, fmt.Errorf("%w: plan is required", domain.ErrValidation)
	}

	id := "cs_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	slog.InfoContext(ctx, "checkout session opened", "session_id", id, "user", user, "plan", plan)
	return subscriptions.Checkout{
		SessionID: id,
		URL:       c.baseURL + "/" + id,
		Plan:      plan,
		User:      user,
	}, nil
}
