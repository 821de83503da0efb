package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Strob0t/RescueDesk/internal/adapter/crypto"
	rdhttp "github.com/Strob0t/RescueDesk/internal/adapter/http"
	"github.com/Strob0t/RescueDesk/internal/adapter/mcp"
	"github.com/Strob0t/RescueDesk/internal/adapter/memory"
	rdnats "github.com/Strob0t/RescueDesk/internal/adapter/nats"
	"github.com/Strob0t/RescueDesk/internal/adapter/natskv"
	rdotel "github.com/Strob0t/RescueDesk/internal/adapter/otel"
	"github.com/Strob0t/RescueDesk/internal/adapter/postgres"
	"github.com/Strob0t/RescueDesk/internal/adapter/ristretto"
	"github.com/Strob0t/RescueDesk/internal/adapter/sqlite"
	"github.com/Strob0t/RescueDesk/internal/adapter/stripe"
	"github.com/Strob0t/RescueDesk/internal/adapter/subscriptions"
	"github.com/Strob0t/RescueDesk/internal/adapter/tiered"
	"github.com/Strob0t/RescueDesk/internal/adapter/ws"
	"github.com/Strob0t/RescueDesk/internal/config"
	"github.com/Strob0t/RescueDesk/internal/logger"
	"github.com/Strob0t/RescueDesk/internal/middleware"
	"github.com/Strob0t/RescueDesk/internal/port/auditlog"
	"github.com/Strob0t/RescueDesk/internal/port/cache"
	"github.com/Strob0t/RescueDesk/internal/port/messagequeue"
	portsubs "github.com/Strob0t/RescueDesk/internal/port/subscriptions"
	"github.com/Strob0t/RescueDesk/internal/resilience"
	"github.com/Strob0t/RescueDesk/internal/secrets"
	"github.com/Strob0t/RescueDesk/internal/service"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 10 * time.Second
	requestTimeout  = 60 * time.Second
	l1PriceExpire   = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, WebSocket feed and optional MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"audit_backend", cfg.Audit.Backend,
		"payments_mode", cfg.Payments.Mode,
		"nats", cfg.NATS.URL != "",
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTEL, err := rdotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	metrics, err := rdotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	var queue *rdnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = rdnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := queue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
				_ = queue.Close()
			}
		}()
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	priceCache, idemStore, err := buildCaches(ctx, cfg, l1, queue)
	if err != nil {
		return err
	}

	auditStore, closeAudit, err := openAuditStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	defer closeAudit()

	// --- Credentials ---

	vault, err := secrets.NewVault(secrets.EnvLoader(secrets.StripeSecretKey, secrets.MCPAPIKey))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	vault.WatchSIGHUP(ctx)

	// --- Adapters ---

	prices := crypto.NewPriceFeed(cfg.Market.CoinGeckoURL, cfg.Market.MockPrices)
	prices.SetBreaker(resilience.NewBreaker("coingecko", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	wallets := crypto.NewSimulatedWallets(cfg.Chain.ExplorerURL, cfg.Chain.MockUSDCBalance, cfg.Chain.MockETHBalance)

	pay := stripe.NewProvider(cfg.Payments.StripeURL, cfg.Payments.StripeSecretKey, cfg.Payments.UseAPI())
	pay.SetBreaker(resilience.NewBreaker("stripe", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	pay.SetKeySource(vault.Source(secrets.StripeSecretKey, cfg.Payments.StripeSecretKey))
	slog.Info("payments configured", "mode", pay.Mode(), "key", vault.Redacted(secrets.StripeSecretKey))

	var checkout portsubs.CheckoutCreator
	if cfg.Subscriptions.Enabled {
		checkout = subscriptions.NewMockCheckout(cfg.Subscriptions.CheckoutBaseURL)
	}

	hub := ws.NewHub(originPatterns(cfg.Server.CORSOrigin))
	defer hub.Close()

	// --- Services ---

	auditSvc := service.NewAuditService(auditStore)

	actions := service.NewActionRegistry(cfg.Rescue, wallets, pay, checkout)

	rescueSvc := service.NewRescueService(memory.NewPlanStore(), actions, hub, cfg.Rescue)
	rescueSvc.SetAudit(auditSvc)
	rescueSvc.SetMetrics(metrics)

	marketSvc := service.NewMarketService(prices, wallets, priceCache, cfg.Market.PriceTTL)
	marketSvc.SetAliasResolver(actions.ResolveAlias)

	if queue != nil {
		rescueSvc.SetQueue(queue)
		cancelSub, err := rescueSvc.StartTriggerSubscriber(ctx)
		if err != nil {
			return fmt.Errorf("trigger subscriber: %w", err)
		}
		defer cancelSub()
		slog.Info("trigger subscriber started", "subject", messagequeue.SubjectTrigger)
	}

	// --- MCP ---

	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "rescuedesk",
			Version: version,
			APIKey:  cfg.MCP.APIKey,

			APIKeySource: vault.Source(secrets.MCPAPIKey, cfg.MCP.APIKey),
		}, mcp.ServerDeps{Plans: rescueSvc})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mcpSrv.Stop(sctx); err != nil {
				slog.Error("mcp shutdown", "error", err)
			}
		}()
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	limiter.StartCleanup(ctx, time.Minute, 10*time.Minute)

	handlers := &rdhttp.Handlers{
		Rescue: rescueSvc,
		Market: marketSvc,
		Audit:  auditSvc,
	}

	router := rdhttp.NewRouter(handlers, rdhttp.RouterOptions{
		CORSOrigin:  cfg.Server.CORSOrigin,
		RateLimiter: limiter,
		Idempotency: middleware.Idempotency(idemStore, cfg.NATS.IdempotencyTTL),
		Tracing:     rdotel.HTTPMiddleware(cfg.OTEL.ServiceName),
		WebSocket:   hub.HandleWS,
		Health:      healthHandler(hub, queue),
		Timeout:     requestTimeout,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildCaches returns the price cache and the idempotency store. With NATS the
// price cache is tiered over a KV bucket and idempotency records live in their
// own bucket so replicas share them; otherwise both use the local L1.
func buildCaches(ctx context.Context, cfg *config.Config, l1 *ristretto.Cache, queue *rdnats.Queue) (prices, idem cache.Cache, err error) {
	if queue == nil {
		return l1, l1, nil
	}
	l2, err := natskv.Open(ctx, queue.JetStream(), "RESCUE_PRICES", cfg.Market.PriceTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("price cache: %w", err)
	}
	idemKV, err := natskv.Open(ctx, queue.JetStream(), cfg.NATS.IdempotencyBucket, cfg.NATS.IdempotencyTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("idempotency store: %w", err)
	}
	return tiered.New(l1, l2, l1PriceExpire), idemKV, nil
}

// openAuditStore selects the configured audit backend. The returned func
// releases its resources.
func openAuditStore(ctx context.Context, cfg *config.Config) (auditlog.Store, func(), error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.Audit.SQLitePath, cfg.Audit.MaxEntries)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("audit log opened", "backend", "sqlite", "path", cfg.Audit.SQLitePath)
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("audit log opened", "backend", "postgres")
		return postgres.NewAuditLog(pool, cfg.Audit.MaxEntries), pool.Close, nil
	default:
		return memory.NewAuditLog(cfg.Audit.MaxEntries), func() {}, nil
	}
}

// originPatterns derives the WebSocket origin allow-list from the CORS origin.
func originPatterns(corsOrigin string) []string {
	if corsOrigin == "" || corsOrigin == "*" {
		return []string{"*"}
	}
	u, err := url.Parse(corsOrigin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

type healthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	WSClients int    `json:"ws_clients"`
	NATS      string `json:"nats,omitempty"`
}

func healthHandler(hub *ws.Hub, queue *rdnats.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := healthStatus{
			Status:    "ok",
			Version:   version,
			WSClients: hub.ConnectionCount(),
		}
		code := http.StatusOK
		if queue != nil {
			resp.NATS = "connected"
			if !queue.IsConnected() {
				resp.NATS = "disconnected"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
