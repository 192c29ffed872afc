// Package config defines the top-level configuration for the arbitrage bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by FLY_* environment variables.
type Config struct {
	Chain     ChainConfig     `toml:"chain"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	Search    SearchConfig    `toml:"search"`
	Optimizer OptimizerConfig `toml:"optimizer"`
	Executor  ExecutorConfig  `toml:"executor"`
	Signer    SignerConfig    `toml:"signer"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// ChainConfig holds Ethereum endpoints and the factories to follow.
type ChainConfig struct {
	HTTPURL   string   `toml:"http_url"`
	WSURL     string   `toml:"ws_url"`
	ChainID   int64    `toml:"chain_id"`
	Factories []string `toml:"factories"`
	// BootstrapBatch is how many pairs one backfill pass reads from a factory.
	BootstrapBatch int      `toml:"bootstrap_batch"`
	ReadTimeout    duration `toml:"read_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// SearchConfig holds cycle-search parameters.
type SearchConfig struct {
	MaxHops int `toml:"max_hops"`
	// Strategy selects the enumeration algorithm: "both", "dfs", "bellman-ford".
	Strategy string `toml:"strategy"`
	FeeBps   int    `toml:"fee_bps"`
}

// OptimizerConfig holds trade-size optimizer parameters.
type OptimizerConfig struct {
	Precision     int64 `toml:"precision"`
	ProbeDelta    int64 `toml:"probe_delta"`
	MaxIterations int   `toml:"max_iterations"`
}

// ExecutorConfig gates order submission.
type ExecutorConfig struct {
	AutoExecute bool `toml:"auto_execute"`
	// MinProfitMargin drops opportunities below this profit ratio.
	MinProfitMargin float64  `toml:"min_profit_margin"`
	OrderDeadline   duration `toml:"order_deadline"`
	// Balances maps token addresses to the integer balance available for that
	// start token. Tokens absent here are never used as a cycle entry point.
	Balances map[string]string `toml:"balances"`
}

// SignerConfig holds the connection to the privileged signer process.
type SignerConfig struct {
	SocketPath   string   `toml:"socket_path"`
	DialTimeout  duration `toml:"dial_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	SlackWebhookURL   string   `toml:"slack_webhook_url"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			HTTPURL:        "http://localhost:8545",
			WSURL:          "ws://localhost:8546",
			ChainID:        1,
			BootstrapBatch: 100,
			ReadTimeout:    duration{30 * time.Second},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "fly",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Search: SearchConfig{
			MaxHops:  3,
			Strategy: "both",
			FeeBps:   30,
		},
		Optimizer: OptimizerConfig{
			Precision:     1000,
			ProbeDelta:    1000,
			MaxIterations: 100,
		},
		Executor: ExecutorConfig{
			AutoExecute:     false,
			MinProfitMargin: 0.001,
			OrderDeadline:   duration{30 * time.Second},
			Balances:        map[string]string{},
		},
		Signer: SignerConfig{
			SocketPath:   "/tmp/fly-signer.sock",
			DialTimeout:  duration{5 * time.Second},
			WriteTimeout: duration{5 * time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "order_submitted", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"full":    true,
	"sync":    true,
	"scan":    true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validStrategies enumerates the accepted values for Search.Strategy.
var validStrategies = map[string]bool{
	"both":         true,
	"dfs":          true,
	"bellman-ford": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: full, sync, scan, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain
	if c.Chain.HTTPURL == "" {
		errs = append(errs, "chain: http_url must not be empty")
	}
	if c.Chain.WSURL == "" {
		errs = append(errs, "chain: ws_url must not be empty")
	}
	if c.Chain.ChainID <= 0 {
		errs = append(errs, "chain: chain_id must be positive")
	}
	if len(c.Chain.Factories) == 0 {
		errs = append(errs, "chain: at least one factory address is required")
	}
	for _, f := range c.Chain.Factories {
		if !common.IsHexAddress(f) {
			errs = append(errs, fmt.Sprintf("chain: invalid factory address %q", f))
		}
	}
	if c.Chain.BootstrapBatch < 1 {
		errs = append(errs, "chain: bootstrap_batch must be >= 1")
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Search
	if c.Search.MaxHops < 2 {
		errs = append(errs, "search: max_hops must be >= 2")
	}
	if !validStrategies[strings.ToLower(c.Search.Strategy)] {
		errs = append(errs, fmt.Sprintf("search: unknown strategy %q (valid: both, dfs, bellman-ford)", c.Search.Strategy))
	}
	if c.Search.FeeBps < 0 || c.Search.FeeBps >= 10_000 {
		errs = append(errs, fmt.Sprintf("search: fee_bps must be 0-9999, got %d", c.Search.FeeBps))
	}

	// Optimizer
	if c.Optimizer.Precision < 1 {
		errs = append(errs, "optimizer: precision must be >= 1")
	}
	if c.Optimizer.ProbeDelta < 1 {
		errs = append(errs, "optimizer: probe_delta must be >= 1")
	}
	if c.Optimizer.MaxIterations < 1 {
		errs = append(errs, "optimizer: max_iterations must be >= 1")
	}

	// Executor
	for addr := range c.Executor.Balances {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Sprintf("executor: invalid balance token address %q", addr))
		}
	}
	if c.Executor.AutoExecute {
		if len(c.Executor.Balances) == 0 {
			errs = append(errs, "executor: balances must not be empty when auto_execute is on")
		}
		if c.Signer.SocketPath == "" {
			errs = append(errs, "signer: socket_path is required when auto_execute is on")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
