package rescue_test

import (
	"testing"

	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
)

var defaults = rescue.TemplateDefaults{DepositUSD: 20}

func TestMatch_Templates(t *testing.T) {
	tests := []struct {
		event string
		desc  string
		kinds []rescue.ActionKind
	}{
		{"ETH drop detected", "Sell 30% ETH→USDC→Transfer to Judge",
			[]rescue.ActionKind{rescue.ActionSellProportion, rescue.ActionTransferFunds}},
		{"low usdc", "Top up Demo with simulated USDC",
			[]rescue.ActionKind{rescue.ActionTransferFunds}},
		{"Subscription expiring tomorrow", "Renew Pro subscription for alice",
			[]rescue.ActionKind{rescue.ActionCreateSubscriptionCheckout}},
		{"WALLET COMPROMISED!", "Transfer all funds to backup wallet",
			[]rescue.ActionKind{rescue.ActionTransferAllFunds}},
		{"circle balance low", "Top up Circle account via card deposit",
			[]rescue.ActionKind{rescue.ActionDepositToPaymentProvider}},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			tpl, ok := rescue.Match(tt.event, "alice", defaults)
			if !ok {
				t.Fatalf("expected a template for %q", tt.event)
			}
			if tpl.Description != tt.desc {
				t.Errorf("description = %q, want %q", tpl.Description, tt.desc)
			}
			if len(tpl.Actions) != len(tt.kinds) {
				t.Fatalf("got %d actions, want %d", len(tpl.Actions), len(tt.kinds))
			}
			for i, k := range tt.kinds {
				if tpl.Actions[i].Kind() != k {
					t.Errorf("action %d = %s, want %s", i, tpl.Actions[i].Kind(), k)
				}
			}
		})
	}
}

func TestMatch_LowUSDCParams(t *testing.T) {
	tpl, ok := rescue.Match("low usdc", "user1", defaults)
	if !ok {
		t.Fatal("expected template")
	}
	tf, ok := tpl.Actions[0].(rescue.TransferFunds)
	if !ok {
		t.Fatalf("expected TransferFunds, got %T", tpl.Actions[0])
	}
	if tf.To != rescue.AliasDemoWallet || tf.Amount != rescue.Fixed(10) {
		t.Errorf("unexpected params %+v", tf)
	}
}

func TestMatch_SubscriptionCarriesUser(t *testing.T) {
	tpl, _ := rescue.Match("subscription expiring", "bob", defaults)
	sc, ok := tpl.Actions[0].(rescue.CreateSubscriptionCheckout)
	if !ok || sc.User != "bob" || sc.Plan != "Pro" {
		t.Fatalf("unexpected action %#v", tpl.Actions[0])
	}
}

func TestMatch_DepositUsesDefault(t *testing.T) {
	tpl, _ := rescue.Match("circle balance low", "bob", rescue.TemplateDefaults{DepositUSD: 35})
	d, ok := tpl.Actions[0].(rescue.DepositToPaymentProvider)
	if !ok || d.AmountUSD != 35 {
		t.Fatalf("unexpected action %#v", tpl.Actions[0])
	}
}

func TestMatch_FirstRuleWins(t *testing.T) {
	tpl, ok := rescue.Match("low usdc after eth drop", "u", defaults)
	if !ok {
		t.Fatal("expected template")
	}
	if tpl.Actions[0].Kind() != rescue.ActionSellProportion {
		t.Errorf("earlier-declared rule should win, got %s", tpl.Actions[0].Kind())
	}
}

func TestMatch_NoTemplate(t *testing.T) {
	if _, ok := rescue.Match("unrecognized gibberish", "u", defaults); ok {
		t.Fatal("expected no template")
	}
}

func TestTriggers_Order(t *testing.T) {
	got := rescue.Triggers()
	want := []string{"eth drop", "low usdc", "subscription expiring", "wallet compromised", "circle balance low"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("trigger %d = %q, want %q", i, got[i], want[i])
		}
	}
}
