// Package stripe implements the card-payment provider: PaymentIntents through the
// Stripe REST API, or locally generated mock intents when no key is configured.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/port/payments"
	"github.com/Strob0t/RescueDesk/internal/resilience"
)

const (
	modeAPI  = "api"
	modeMock = "mock"
)

// Provider takes card deposits.
type Provider struct {
	baseURL    string
	secretKey  func() string
	useAPI     bool
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ payments.Provider = (*Provider)(nil)

// NewProvider returns a provider that calls the API when useAPI is true and a
// secret key is present, and mocks deposits otherwise.
func NewProvider(baseURL, secretKey string, useAPI bool) *Provider {
	return &Provider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: func() string { return secretKey },
		useAPI:    useAPI && secretKey != "",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to outgoing API calls.
func (p *Provider) SetBreaker(b *resilience.Breaker) {
	p.breaker = b
}

// SetKeySource reads the secret key from fn on every API call so a rotated key
// takes effect without a restart. The provider mode is fixed at construction.
func (p *Provider) SetKeySource(fn func() string) {
	if fn != nil {
		p.secretKey = fn
	}
}

// Mode reports "api" or "mock".
func (p *Provider) Mode() string {
	if p.useAPI {
		return modeAPI
	}
	return modeMock
}

// Deposit creates a USD PaymentIntent for req.AmountUSD.
func (p *Provider) Deposit(ctx context.Context, req payments.DepositRequest) (payments.Deposit, error) {
	if req.AmountUSD <= 0 || math.IsNaN(req.AmountUSD) || math.IsInf(req.AmountUSD, 0) {
		return payments.Deposit{}, fmt.Errorf("%w: deposit amount must be > 0", domain.ErrValidation)
	}

	if !p.useAPI {
		id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		slog.InfoContext(ctx, "mock card deposit", "stripe_id", id, "amount", req.AmountUSD, "user", req.User)
		return payments.Deposit{Status: "success", StripeID: id, Amount: req.AmountUSD, Mode: modeMock}, nil
	}

	id, err := p.createPaymentIntent(ctx, req)
	if err != nil {
		return payments.Deposit{}, fmt.Errorf("stripe deposit: %w", err)
	}
	slog.InfoContext(ctx, "card deposit created", "stripe_id", id, "amount", req.AmountUSD, "user", req.User)
	return payments.Deposit{Status: "success", StripeID: id, Amount: req.AmountUSD, Mode: modeAPI}, nil
}

func (p *Provider) createPaymentIntent(ctx context.Context, req payments.DepositRequest) (string, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(int64(math.Round(req.AmountUSD*100)), 10))
	form.Set("currency", "usd")
	form.Set("description", "USDC off-ramp deposit for "+req.User)
	form.Set("payment_method_types[]", "card")

	var intentID string
	call := func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.Header.Set("Authorization", "Bearer "+p.secretKey())

		resp, err := p.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("stripe API error %d: %s", resp.StatusCode, apiErrorMessage(data))
		}

		var intent struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &intent); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if intent.ID == "" {
			return fmt.Errorf("stripe API returned no payment intent id")
		}
		intentID = intent.ID
		return nil
	}

	if p.breaker != nil {
		if err := p.breaker.Execute(ctx, call); err != nil {
			return "", err
		}
		return intentID, nil
	}
	if err := call(ctx); err != nil {
		return "", err
	}
	return intentID, nil
}

// apiErrorMessage extracts error.message from a Stripe error body.
func apiErrorMessage(data []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return string(data)
}
