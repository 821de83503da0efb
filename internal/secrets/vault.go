// Package secrets holds provider credentials in memory and reloads them on
// demand, so API keys can rotate without restarting the service.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
)

// Loader retrieves credentials from a source (env vars, mounted file, ...).
type Loader func() (map[string]string, error)

// Vault holds credential values and supports atomic reloading.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{
		values: vals,
		loader: loader,
	}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Source returns a func that reads key on every call and falls back to def
// when the vault has no value for it.
func (v *Vault) Source(key, def string) func() string {
	return func() string {
		if s := v.Get(key); s != "" {
			return s
		}
		return def
	}
}

// Redacted returns the secret for key masked for logging: the first two
// characters followed by ****. Secrets of four characters or fewer are fully
// masked.
func (v *Vault) Redacted(key string) string {
	return redact(v.Get(key))
}

func redact(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "****"
	default:
		return s[:2] + "****"
	}
}

// RedactString replaces every secret value found in s with its masked form.
func (v *Vault) RedactString(s string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, val := range v.values {
		if len(val) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, val, redact(val))
	}
	return s
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader returns an error, existing values are preserved.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	v.mu.Unlock()
	return nil
}

// WatchSIGHUP reloads the vault every time the process receives SIGHUP, until
// ctx is done.
func (v *Vault) WatchSIGHUP(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if err := v.Reload(); err != nil {
					slog.Error("secret reload failed", "error", err)
					continue
				}
				slog.Info("secrets reloaded")
			}
		}
	}()
}
