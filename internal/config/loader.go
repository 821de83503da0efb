package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "rescuedesk.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("RESCUEDESK_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "RESCUEDESK_PORT")
	setString(&cfg.Server.CORSOrigin, "RESCUEDESK_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "RESCUEDESK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "RESCUEDESK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "RESCUEDESK_LOG_ASYNC")
	setString(&cfg.Logging.Format, "RESCUEDESK_LOG_FORMAT")

	// Rescue engine; wallet addresses keep the names the wallet tooling exports.
	setString(&cfg.Rescue.DemoWallet, "DEMO_WALLET_ADDRESS")
	setString(&cfg.Rescue.JudgeWallet, "JUDGE_WALLET_ADDRESS")
	setString(&cfg.Rescue.BackupWallet, "BACKUP_WALLET_ADDRESS")
	setFloat64(&cfg.Rescue.AutoTransferMin, "RESCUEDESK_AUTO_TRANSFER_MIN")
	setFloat64(&cfg.Rescue.AutoTransferMax, "RESCUEDESK_AUTO_TRANSFER_MAX")
	setString(&cfg.Rescue.DefaultUser, "RESCUEDESK_DEFAULT_USER")
	setFloat64(&cfg.Rescue.DefaultDepositUSD, "RESCUEDESK_DEFAULT_DEPOSIT_USD")
	setInt(&cfg.Rescue.ListDefaultLimit, "RESCUEDESK_LIST_DEFAULT_LIMIT")

	// Market + chain
	setString(&cfg.Market.CoinGeckoURL, "RESCUEDESK_COINGECKO_URL")
	setDuration(&cfg.Market.PriceTTL, "RESCUEDESK_PRICE_TTL")
	setString(&cfg.Chain.ExplorerURL, "RESCUEDESK_EXPLORER_URL")
	setFloat64(&cfg.Chain.MockUSDCBalance, "RESCUEDESK_MOCK_USDC_BALANCE")
	setFloat64(&cfg.Chain.MockETHBalance, "RESCUEDESK_MOCK_ETH_BALANCE")

	// Payments + subscriptions
	setString(&cfg.Payments.Mode, "STRIPE_MODE")
	setString(&cfg.Payments.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Payments.StripeURL, "RESCUEDESK_STRIPE_URL")
	setBool(&cfg.Subscriptions.Enabled, "RESCUEDESK_SUBSCRIPTIONS_ENABLED")
	setString(&cfg.Subscriptions.CheckoutBaseURL, "RESCUEDESK_CHECKOUT_BASE_URL")

	setInt64(&cfg.Cache.L1MaxSizeMB, "RESCUEDESK_CACHE_L1_SIZE_MB")
	setInt(&cfg.Breaker.MaxFailures, "RESCUEDESK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "RESCUEDESK_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "RESCUEDESK_RATE_RPS")
	setInt(&cfg.Rate.Burst, "RESCUEDESK_RATE_BURST")

	// NATS
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.IdempotencyBucket, "RESCUEDESK_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.NATS.IdempotencyTTL, "RESCUEDESK_IDEMPOTENCY_TTL")

	// Audit log
	setString(&cfg.Audit.Backend, "RESCUEDESK_AUDIT_BACKEND")
	setInt(&cfg.Audit.MaxEntries, "LOG_MAX_ENTRIES")
	setString(&cfg.Audit.SQLitePath, "RESCUEDESK_AUDIT_SQLITE_PATH")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "RESCUEDESK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "RESCUEDESK_PG_MIN_CONNS")

	// Observability
	setBool(&cfg.OTEL.Enabled, "RESCUEDESK_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "RESCUEDESK_OTEL_INSECURE")

	// MCP
	setBool(&cfg.MCP.Enabled, "RESCUEDESK_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "RESCUEDESK_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "RESCUEDESK_MCP_API_KEY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Rescue.AutoTransferMin <= 0 {
		return errors.New("rescue.auto_transfer_min must be > 0")
	}
	if cfg.Rescue.AutoTransferMin > cfg.Rescue.AutoTransferMax {
		return errors.New("rescue.auto_transfer_min must be <= rescue.auto_transfer_max")
	}
	if cfg.Rescue.ListDefaultLimit < 1 || cfg.Rescue.ListDefaultLimit > 1000 {
		return errors.New("rescue.list_default_limit must be between 1 and 1000")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Audit.MaxEntries < 1 {
		return errors.New("audit.max_entries must be >= 1")
	}
	switch cfg.Payments.Mode {
	case "auto", "mock":
	case "api":
		if cfg.Payments.StripeSecretKey == "" {
			return errors.New("payments.stripe_secret_key is required in api mode")
		}
	default:
		return fmt.Errorf("payments.mode %q must be one of auto, api, mock", cfg.Payments.Mode)
	}
	switch cfg.Audit.Backend {
	case "memory":
	case "sqlite":
		if cfg.Audit.SQLitePath == "" {
			return errors.New("audit.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres backend")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	default:
		return fmt.Errorf("audit.backend %q must be one of memory, sqlite, postgres", cfg.Audit.Backend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
