package secrets_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Strob0t/RescueDesk/internal/secrets"
)

func TestNewVault_InitialLoad(t *testing.T) {
	v, err := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"KEY_A": "val_a", "KEY_B": "val_b"}, nil
	})
	if err != nil {
		t.Fatalf("NewVault failed: %v", err)
	}

	if got := v.Get("KEY_A"); got != "val_a" {
		t.Fatalf("expected 'val_a', got %q", got)
	}
	if got := v.Get("KEY_B"); got != "val_b" {
		t.Fatalf("expected 'val_b', got %q", got)
	}
}

func TestNewVault_LoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestVault_GetMissingKey(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"EXIST": "yes"}, nil
	})
	if got := v.Get("MISSING"); got != "" {
		t.Fatalf("expected empty string for missing key, got %q", got)
	}
}

func TestVault_Reload(t *testing.T) {
	callCount := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		callCount++
		if callCount == 1 {
			return map[string]string{"TOKEN": "old"}, nil
		}
		return map[string]string{"TOKEN": "new"}, nil
	})

	if got := v.Get("TOKEN"); got != "old" {
		t.Fatalf("expected 'old', got %q", got)
	}

	if err := v.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if got := v.Get("TOKEN"); got != "new" {
		t.Fatalf("expected 'new' after reload, got %q", got)
	}
}

func TestVault_ReloadErrorPreservesValues(t *testing.T) {
	callCount := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		callCount++
		if callCount == 1 {
			return map[string]string{"KEY": "original"}, nil
		}
		return nil, errors.New("vault unavailable")
	})

	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}

	// Original values must be preserved.
	if got := v.Get("KEY"); got != "original" {
		t.Fatalf("expected 'original' after failed reload, got %q", got)
	}
}

func TestVault_ConcurrentAccess(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"K": "V"}, nil
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = v.Get("K")
		}()
		go func() {
			defer wg.Done()
			_ = v.Reload()
		}()
	}
	wg.Wait()
}

func TestVault_Redacted(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{
			"API_KEY": "sk-abcdef123456",
			"SHORT":   "ab",
		}, nil
	})

	// Long secret: shows first 2 chars + ****
	got := v.Redacted("API_KEY")
	if got != "sk****" {
		t.Errorf("expected 'sk****', got %q", got)
	}

	// Short secret (<=4 chars): fully masked
	got = v.Redacted("SHORT")
	if got != "****" {
		t.Errorf("expected '****', got %q", got)
	}

	// Missing key: empty string
	got = v.Redacted("MISSING")
	if got != "" {
		t.Errorf("expected empty string for missing key, got %q", got)
	}
}

func TestVault_RedactString(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{
			"STRIPE_SECRET_KEY": "sk_live_abcdef123",
			"MCP_API_KEY":       "mcp_token_987654",
			"SHORT_SECRET":      "ab", // too short to redact (< 4 chars)
		}, nil
	})

	input := "stripe rejected key sk_live_abcdef123; mcp token mcp_token_987654"
	got := v.RedactString(input)

	if strings.Contains(got, "sk_live_abcdef123") {
		t.Errorf("stripe key was not redacted in %q", got)
	}
	if strings.Contains(got, "mcp_token_987654") {
		t.Errorf("mcp token was not redacted in %q", got)
	}
	if !strings.Contains(got, "sk****") {
		t.Errorf("expected masked stripe key, got %q", got)
	}
	if !strings.Contains(got, "mc****") {
		t.Errorf("expected masked mcp token, got %q", got)
	}
}

func TestVault_RedactStringNoSecrets(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"KEY": "value123"}, nil
	})

	input := "This string has no secrets"
	got := v.RedactString(input)
	if got != input {
		t.Errorf("expected unchanged string, got %q", got)
	}
}

func TestVault_SourceFollowsReload(t *testing.T) {
	key := "sk_test_old"
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		if key == "" {
			return map[string]string{}, nil
		}
		return map[string]string{secrets.StripeSecretKey: key}, nil
	})
	src := v.Source(secrets.StripeSecretKey, "sk_test_fallback")

	if got := src(); got != "sk_test_old" {
		t.Fatalf("expected sk_test_old, got %q", got)
	}

	key = "sk_test_new"
	if err := v.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := src(); got != "sk_test_new" {
		t.Fatalf("expected rotated key, got %q", got)
	}

	key = ""
	if err := v.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := src(); got != "sk_test_fallback" {
		t.Fatalf("expected fallback after key removal, got %q", got)
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("RESCUEDESK_TEST_SECRET", "mysecret")
	loader := secrets.EnvLoader("RESCUEDESK_TEST_SECRET", "RESCUEDESK_MISSING_SECRET")

	vals, err := loader()
	if err != nil {
		t.Fatalf("EnvLoader failed: %v", err)
	}
	if vals["RESCUEDESK_TEST_SECRET"] != "mysecret" {
		t.Fatalf("expected 'mysecret', got %q", vals["RESCUEDESK_TEST_SECRET"])
	}
	if _, ok := vals["RESCUEDESK_MISSING_SECRET"]; ok {
		t.Fatal("expected missing env var to be omitted")
	}
}
