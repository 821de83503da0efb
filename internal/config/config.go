// Package config provides hierarchical configuration loading for RescueDesk.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the RescueDesk service.
type Config struct {
	Server        Server        `yaml:"server"`
	Logging       Logging       `yaml:"logging"`
	Rescue        Rescue        `yaml:"rescue"`
	Market        Market        `yaml:"market"`
	Chain         Chain         `yaml:"chain"`
	Payments      Payments      `yaml:"payments"`
	Subscriptions Subscriptions `yaml:"subscriptions"`
	Cache         Cache         `yaml:"cache"`
	Breaker       Breaker       `yaml:"breaker"`
	Rate          Rate          `yaml:"rate"`
	NATS          NATS          `yaml:"nats"`
	Audit         Audit         `yaml:"audit"`
	Postgres      Postgres      `yaml:"postgres"`
	OTEL          OTEL          `yaml:"otel"`
	MCP           MCP           `yaml:"mcp"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
	Format  string `yaml:"format"` // "json" | "text" | "auto" (text on a terminal)
}

// Rescue holds rescue-plan engine configuration.
type Rescue struct {
	DemoWallet        string  `yaml:"demo_wallet"`
	JudgeWallet       string  `yaml:"judge_wallet"`
	BackupWallet      string  `yaml:"backup_wallet"`
	AutoTransferMin   float64 `yaml:"auto_transfer_min"`   // Floor for "auto" transfer amounts (default: 1)
	AutoTransferMax   float64 `yaml:"auto_transfer_max"`   // Ceiling for "auto" transfer amounts (default: 5)
	DefaultUser       string  `yaml:"default_user"`        // Owner when a request names none (default: "user1")
	DefaultDepositUSD float64 `yaml:"default_deposit_usd"` // Card deposit used by the circle template (default: 20)
	ListDefaultLimit  int     `yaml:"list_default_limit"`  // Plans returned when no limit is given (default: 50)
}

// Aliases returns the wallet alias table keyed by alias name.
func (r Rescue) Aliases() map[string]string {
	return map[string]string{
		"DEMO_WALLET":   r.DemoWallet,
		"JUDGE_WALLET":  r.JudgeWallet,
		"BACKUP_WALLET": r.BackupWallet,
	}
}

// Market holds price lookup configuration.
type Market struct {
	CoinGeckoURL string             `yaml:"coingecko_url"`
	PriceTTL     time.Duration      `yaml:"price_ttl"`
	MockPrices   map[string]float64 `yaml:"mock_prices"`
}

// Chain holds wallet/explorer configuration. Balances are mocked.
type Chain struct {
	ExplorerURL     string  `yaml:"explorer_url"`
	MockUSDCBalance float64 `yaml:"mock_usdc_balance"`
	MockETHBalance  float64 `yaml:"mock_eth_balance"`
}

// Payments holds card-payment provider configuration.
type Payments struct {
	Mode            string `yaml:"mode"` // "auto" | "api" | "mock"
	StripeSecretKey string `yaml:"stripe_secret_key"`
	StripeURL       string `yaml:"stripe_url"`
}

// UseAPI reports whether deposits go to the live payment API.
func (p Payments) UseAPI() bool {
	return (p.Mode == "api" || p.Mode == "auto") && p.StripeSecretKey != ""
}

// Subscriptions holds subscription checkout configuration.
type Subscriptions struct {
	Enabled         bool   `yaml:"enabled"`
	CheckoutBaseURL string `yaml:"checkout_base_url"`
}

// Cache holds L1 cache configuration.
type Cache struct {
	L1MaxSizeMB int64 `yaml:"l1_max_size_mb"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// NATS holds NATS JetStream configuration. An empty URL disables NATS.
type NATS struct {
	URL               string        `yaml:"url"`
	IdempotencyBucket string        `yaml:"idempotency_bucket"`
	IdempotencyTTL    time.Duration `yaml:"idempotency_ttl"`
}

// Audit holds audit log configuration.
type Audit struct {
	Backend    string `yaml:"backend"` // "memory" | "sqlite" | "postgres"
	MaxEntries int    `yaml:"max_entries"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Postgres holds PostgreSQL connection configuration.
type Postgres struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// OTEL holds OpenTelemetry exporter configuration.
type OTEL struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// MCP holds the agent tool server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	APIKey  string `yaml:"api_key"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8000",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "rescuedesk",
			Format:  "json",
		},
		Rescue: Rescue{
			DemoWallet:        "0x9ba79e76F4d1B06fA48855DC34e3D6E7bb1BED2B",
			JudgeWallet:       "0xJUDGE1234567890",
			BackupWallet:      "0xBACKUP1234567890",
			AutoTransferMin:   1,
			AutoTransferMax:   5,
			DefaultUser:       "user1",
			DefaultDepositUSD: 20,
			ListDefaultLimit:  50,
		},
		Market: Market{
			CoinGeckoURL: "https://api.coingecko.com/api/v3",
			PriceTTL:     30 * time.Second,
			MockPrices: map[string]float64{
				"BTC":  67000,
				"ETH":  3500,
				"SOL":  150,
				"DOGE": 0.2,
				"USDC": 1.0,
			},
		},
		Chain: Chain{
			ExplorerURL:     "https://sepolia.etherscan.io",
			MockUSDCBalance: 42,
			MockETHBalance:  0.123,
		},
		Payments: Payments{
			Mode:      "auto",
			StripeURL: "https://api.stripe.com",
		},
		Subscriptions: Subscriptions{
			Enabled:         true,
			CheckoutBaseURL: "https://checkout.stripe.com/c/pay",
		},
		Cache: Cache{
			L1MaxSizeMB: 16,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
		},
		NATS: NATS{
			IdempotencyBucket: "RESCUE_IDEMPOTENCY",
			IdempotencyTTL:    24 * time.Hour,
		},
		Audit: Audit{
			Backend:    "memory",
			MaxEntries: 1000,
			SQLitePath: "audit_logs.db",
		},
		Postgres: Postgres{
			MaxConns: 5,
			MinConns: 1,
		},
		OTEL: OTEL{
			Endpoint:    "localhost:4317",
			ServiceName: "rescuedesk",
			Insecure:    true,
		},
		MCP: MCP{
			Addr: ":3001",
		},
	}
}
