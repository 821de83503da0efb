package rescue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Strob0t/RescueDesk/internal/domain"
)

// ActionKind is the wire name of an action.
type ActionKind string

const (
	ActionSellProportion             ActionKind = "sell_proportion"
	ActionTransferFunds              ActionKind = "transfer_funds"
	ActionDepositToPaymentProvider   ActionKind = "deposit_to_payment_provider"
	ActionCreateSubscriptionCheckout ActionKind = "create_subscription_checkout"
	ActionTransferAllFunds           ActionKind = "transfer_all_funds"
)

// Wallet aliases understood by the action registry.
const (
	AliasDemoWallet   = "DEMO_WALLET"
	AliasJudgeWallet  = "JUDGE_WALLET"
	AliasBackupWallet = "BACKUP_WALLET"
)

// Action is the closed set of operations a step can perform. Each variant
// carries its own typed parameters.
type Action interface {
	Kind() ActionKind
	isAction()
}

// SellProportion sells a percentage of a position into another asset.
type SellProportion struct {
	Percent float64 `json:"percent"`
	To      string  `json:"to"`
}

// TransferFunds moves stablecoin to an alias or address.
type TransferFunds struct {
	Amount Amount `json:"amount"`
	To     string `json:"to"`
}

// DepositToPaymentProvider deposits a USD amount through the card-payment provider.
type DepositToPaymentProvider struct {
	AmountUSD float64 `json:"amount"`
}

// CreateSubscriptionCheckout opens a checkout session to renew a subscription plan.
type CreateSubscriptionCheckout struct {
	Plan string `json:"plan"`
	User string `json:"user"`
}

// TransferAllFunds sweeps every balance to an alias or address.
type TransferAllFunds struct {
	To string `json:"to"`
}

// UnknownAction holds a step decoded from foreign input whose action name is not
// part of the closed set. It always fails at execution with ErrUnknownAction.
type UnknownAction struct {
	Name   string
	Params json.RawMessage
}

func (SellProportion) Kind() ActionKind             { return ActionSellProportion }
func (TransferFunds) Kind() ActionKind              { return ActionTransferFunds }
func (DepositToPaymentProvider) Kind() ActionKind   { return ActionDepositToPaymentProvider }
func (CreateSubscriptionCheckout) Kind() ActionKind { return ActionCreateSubscriptionCheckout }
func (TransferAllFunds) Kind() ActionKind           { return ActionTransferAllFunds }
func (a UnknownAction) Kind() ActionKind            { return ActionKind(a.Name) }

func (SellProportion) isAction()             {}
func (TransferFunds) isAction()              {}
func (DepositToPaymentProvider) isAction()   {}
func (CreateSubscriptionCheckout) isAction() {}
func (TransferAllFunds) isAction()           {}
func (UnknownAction) isAction()              {}

// Amount is either a fixed value or "auto" (computed from a live balance at execution).
type Amount struct {
	Auto  bool
	Value float64
}

// AutoAmount is the "auto" amount.
var AutoAmount = Amount{Auto: true}

// Fixed returns a fixed amount.
func Fixed(v float64) Amount {
	return Amount{Value: v}
}

func (a Amount) String() string {
	if a.Auto {
		return "auto"
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64)
}

// MarshalJSON renders "auto" or a number.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Auto {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts "auto", a number, or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Fixed(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: amount must be a number or \"auto\"", domain.ErrValidation)
	}
	if strings.EqualFold(strings.TrimSpace(s), "auto") {
		*a = AutoAmount
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("%w: amount %q is not a number", domain.ErrValidation, s)
	}
	*a = Fixed(v)
	return nil
}

func encodeParams(a Action) (json.RawMessage, error) {
	if u, ok := a.(UnknownAction); ok {
		if len(u.Params) == 0 {
			return json.RawMessage(`{}`), nil
		}
		return u.Params, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", a.Kind(), err)
	}
	return data, nil
}

// DecodeAction builds the typed action named kind from its JSON params. It backs
// Step.UnmarshalJSON. Unrecognized names decode to UnknownAction rather than
// failing.
func DecodeAction(kind ActionKind, params json.RawMessage) (Action, error) {
	if len(bytes.TrimSpace(params)) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		params = json.RawMessage(`{}`)
	}

	var (
		action Action
		err    error
	)
	switch ActionKind(strings.ToLower(string(kind))) {
	case ActionSellProportion:
		var a SellProportion
		err = json.Unmarshal(params, &a)
		action = a
	case ActionTransferFunds:
		var a TransferFunds
		err = json.Unmarshal(params, &a)
		action = a
	case ActionDepositToPaymentProvider:
		var a DepositToPaymentProvider
		err = json.Unmarshal(params, &a)
		action = a
	case ActionCreateSubscriptionCheckout:
		var a CreateSubscriptionCheckout
		err = json.Unmarshal(params, &a)
		action = a
	case ActionTransferAllFunds:
		var a TransferAllFunds
		err = json.Unmarshal(params, &a)
		action = a
	default:
		return UnknownAction{Name: string(kind), Params: params}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s params: %w", kind, err)
	}
	return action, nil
}
