package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Strob0t/RescueDesk/internal/config"
	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
	"github.com/Strob0t/RescueDesk/internal/port/market"
	"github.com/Strob0t/RescueDesk/internal/port/payments"
	"github.com/Strob0t/RescueDesk/internal/port/subscriptions"
)

// ActionInvoker runs a step's action against the external collaborators.
type ActionInvoker interface {
	Invoke(ctx context.Context, action rescue.Action, plan *rescue.Plan) (any, error)
}

// SimulatedResult acknowledges an action that is not carried out.
type SimulatedResult struct {
	Simulated bool   `json:"simulated"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
}

// ActionRegistry dispatches the closed action set to its collaborators and
// resolves wallet aliases.
type ActionRegistry struct {
	aliases    map[string]string
	demoWallet string
	autoMin    float64
	autoMax    float64
	wallets    market.Wallets
	payments   payments.Provider
	checkout   subscriptions.CheckoutCreator
}

var _ ActionInvoker = (*ActionRegistry)(nil)

// NewActionRegistry creates a registry. checkout may be nil when subscriptions
// are not configured; checkout steps then fail as unavailable.
func NewActionRegistry(
	cfg config.Rescue,
	wallets market.Wallets,
	pay payments.Provider,
	checkout subscriptions.CheckoutCreator,
) *ActionRegistry {
	aliases := make(map[string]string)
	for k, v := range cfg.Aliases() {
		aliases[strings.ToUpper(k)] = v
	}
	return &ActionRegistry{
		aliases:    aliases,
		demoWallet: cfg.DemoWallet,
		autoMin:    cfg.AutoTransferMin,
		autoMax:    cfg.AutoTransferMax,
		wallets:    wallets,
		payments:   pay,
		checkout:   checkout,
	}
}

// ResolveAlias returns the address configured for a known alias and passes any
// other value through unchanged.
func (r *ActionRegistry) ResolveAlias(name string) string {
	if addr, ok := r.aliases[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return addr
	}
	return name
}

// Invoke runs action for plan. A panicking collaborator is reported as an
// action failure.
func (r *ActionRegistry) Invoke(ctx context.Context, action rescue.Action, plan *rescue.Plan) (result any, err error) {
	if action == nil {
		return nil, fmt.Errorf("%w: step has no action", rescue.ErrUnknownAction)
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "action panicked", "action", action.Kind(), "panic", rec)
			result = nil
			err = &rescue.ActionError{Action: action.Kind(), Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	switch a := action.(type) {
	case rescue.SellProportion:
		return r.sell(ctx, a)
	case rescue.TransferFunds:
		return r.transfer(ctx, a)
	case rescue.DepositToPaymentProvider:
		return r.deposit(ctx, a, plan)
	case rescue.CreateSubscriptionCheckout:
		return r.createCheckout(ctx, a, plan)
	case rescue.TransferAllFunds:
		return r.transferAll(ctx, a)
	case rescue.UnknownAction:
		return nil, fmt.Errorf("%w: %s", rescue.ErrUnknownAction, a.Name)
	default:
		return nil, fmt.Errorf("%w: %s", rescue.ErrUnknownAction, action.Kind())
	}
}

func (r *ActionRegistry) sell(ctx context.Context, a rescue.SellProportion) (any, error) {
	if a.Percent <= 0 || a.Percent > 100 {
		return nil, fmt.Errorf("%w: percent must be in (0, 100]", domain.ErrValidation)
	}
	to := a.To
	if to == "" {
		to = "USDC"
	}
	detail := fmt.Sprintf("Sell %g%% ETH→%s", a.Percent, to)
	slog.InfoContext(ctx, "simulated sell", "percent", a.Percent, "to", to)
	return SimulatedResult{Simulated: true, Action: string(a.Kind()), Detail: detail}, nil
}

func (r *ActionRegistry) transfer(ctx context.Context, a rescue.TransferFunds) (any, error) {
	to := strings.TrimSpace(r.ResolveAlias(a.To))
	if to == "" {
		return nil, fmt.Errorf("%w: transfer destination is required", domain.ErrValidation)
	}

	amount := a.Amount.Value
	if a.Amount.Auto {
		if r.wallets == nil {
			return nil, fmt.Errorf("%w: wallet service not configured", domain.ErrUnavailable)
		}
		bal, err := r.wallets.Balance(ctx, r.demoWallet)
		if err != nil {
			return nil, &rescue.ActionError{Action: a.Kind(), Err: fmt.Errorf("read balance: %w", err)}
		}
		amount = clamp(bal.USDC, r.autoMin, r.autoMax)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: transfer amount must be > 0", domain.ErrValidation)
	}

	if r.wallets == nil {
		return nil, fmt.Errorf("%w: wallet service not configured", domain.ErrUnavailable)
	}
	tr, err := r.wallets.Transfer(ctx, to, amount)
	if err != nil {
		return nil, &rescue.ActionError{Action: a.Kind(), Err: err}
	}
	return tr, nil
}

func (r *ActionRegistry) deposit(ctx context.Context, a rescue.DepositToPaymentProvider, plan *rescue.Plan) (any, error) {
	if a.AmountUSD <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be > 0", domain.ErrValidation)
	}
	if r.payments == nil {
		return nil, fmt.Errorf("%w: payment provider not configured", domain.ErrUnavailable)
	}
	user := ""
	if plan != nil {
		user = plan.User
	}
	d, err := r.payments.Deposit(ctx, payments.DepositRequest{AmountUSD: a.AmountUSD, User: user})
	if err != nil {
		return nil, &rescue.ActionError{Action: a.Kind(), Err: err}
	}
	return d, nil
}

func (r *ActionRegistry) createCheckout(ctx context.Context, a rescue.CreateSubscriptionCheckout, plan *rescue.Plan) (any, error) {
	if r.checkout == nil {
		return nil, fmt.Errorf("%w: subscription service not configured", domain.ErrUnavailable)
	}
	user := a.User
	if user == "" && plan != nil {
		user = plan.User
	}
	subPlan := a.Plan
	if subPlan == "" {
		subPlan = "Pro"
	}
	co, err := r.checkout.CreateCheckout(ctx, user, subPlan)
	if err != nil {
		return nil, &rescue.ActionError{Action: a.Kind(), Err: err}
	}
	return co, nil
}

func (r *ActionRegistry) transferAll(ctx context.Context, a rescue.TransferAllFunds) (any, error) {
	to := strings.TrimSpace(r.ResolveAlias(a.To))
	if to == "" {
		return nil, fmt.Errorf("%w: transfer destination is required", domain.ErrValidation)
	}
	slog.WarnContext(ctx, "simulated transfer of all funds", "to", to)
	return SimulatedResult{Simulated: true, Action: string(a.Kind()), Detail: "Transfer ALL funds to " + to}, nil
}

func clamp(v, lo, hi float64) float64 {
	return max(min(v, hi), lo)
}
