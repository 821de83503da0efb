package rescue

import (
	"fmt"
	"strings"
)

// Template is a canned plan: a description and an ordered list of actions.
type Template struct {
	Description string
	Actions     []Action
}

// TemplateDefaults carries the configurable values templates are built with.
type TemplateDefaults struct {
	DepositUSD float64
}

type rule struct {
	phrase string
	build  func(user string, d TemplateDefaults) Template
}

// rules is evaluated in order; the first phrase found in the event wins.
var rules = []rule{
	{
		phrase: "eth drop",
		build: func(string, TemplateDefaults) Template {
			return Template{
				Description: "Sell 30% ETH→USDC→Transfer to Judge",
				Actions: []Action{
					SellProportion{Percent: 30, To: "USDC"},
					TransferFunds{Amount: AutoAmount, To: AliasJudgeWallet},
				},
			}
		},
	},
	{
		phrase: "low usdc",
		build: func(string, TemplateDefaults) Template {
			return Template{
				Description: "Top up Demo with simulated USDC",
				Actions:     []Action{TransferFunds{Amount: Fixed(10), To: AliasDemoWallet}},
			}
		},
	},
	{
		phrase: "subscription expiring",
		build: func(user string, _ TemplateDefaults) Template {
			return Template{
				Description: fmt.Sprintf("Renew Pro subscription for %s", user),
				Actions:     []Action{CreateSubscriptionCheckout{Plan: "Pro", User: user}},
			}
		},
	},
	{
		phrase: "wallet compromised",
		build: func(string, TemplateDefaults) Template {
			return Template{
				Description: "Transfer all funds to backup wallet",
				Actions:     []Action{TransferAllFunds{To: AliasBackupWallet}},
			}
		},
	},
	{
		phrase: "circle balance low",
		build: func(_ string, d TemplateDefaults) Template {
			return Template{
				Description: "Top up Circle account via card deposit",
				Actions:     []Action{DepositToPaymentProvider{AmountUSD: d.DepositUSD}},
			}
		},
	},
}

// Triggers returns the trigger phrases in evaluation order.
func Triggers() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.phrase
	}
	return out
}

// Match classifies event by case-insensitive substring match against the trigger
// phrases. It returns false when no template applies.
func Match(event, user string, d TemplateDefaults) (Template, bool) {
	ev := strings.ToLower(event)
	for _, r := range rules {
		if strings.Contains(ev, r.phrase) {
			return r.build(user, d), true
		}
	}
	return Template{}, false
}
