package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FLY_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FLY_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.HTTPURL, "FLY_CHAIN_HTTP_URL")
	setStr(&cfg.Chain.WSURL, "FLY_CHAIN_WS_URL")
	setInt64(&cfg.Chain.ChainID, "FLY_CHAIN_CHAIN_ID")
	setStringSlice(&cfg.Chain.Factories, "FLY_CHAIN_FACTORIES")
	setInt(&cfg.Chain.BootstrapBatch, "FLY_CHAIN_BOOTSTRAP_BATCH")
	setDuration(&cfg.Chain.ReadTimeout, "FLY_CHAIN_READ_TIMEOUT")

	// ── Database ──
	setStr(&cfg.Database.DSN, "FLY_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "FLY_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "FLY_DATABASE_HOST")
	setInt(&cfg.Database.Port, "FLY_DATABASE_PORT")
	setStr(&cfg.Database.Database, "FLY_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "FLY_DATABASE_USER")
	setStr(&cfg.Database.Password, "FLY_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "FLY_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "FLY_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "FLY_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "FLY_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FLY_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FLY_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FLY_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FLY_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FLY_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FLY_REDIS_TLS_ENABLED")

	// ── Search ──
	setInt(&cfg.Search.MaxHops, "FLY_SEARCH_MAX_HOPS")
	setStr(&cfg.Search.Strategy, "FLY_SEARCH_STRATEGY")
	setInt(&cfg.Search.FeeBps, "FLY_SEARCH_FEE_BPS")

	// ── Optimizer ──
	setInt64(&cfg.Optimizer.Precision, "FLY_OPTIMIZER_PRECISION")
	setInt64(&cfg.Optimizer.ProbeDelta, "FLY_OPTIMIZER_PROBE_DELTA")
	setInt(&cfg.Optimizer.MaxIterations, "FLY_OPTIMIZER_MAX_ITERATIONS")

	// ── Executor ──
	setBool(&cfg.Executor.AutoExecute, "FLY_EXECUTOR_AUTO_EXECUTE")
	setFloat64(&cfg.Executor.MinProfitMargin, "FLY_EXECUTOR_MIN_PROFIT_MARGIN")
	setDuration(&cfg.Executor.OrderDeadline, "FLY_EXECUTOR_ORDER_DEADLINE")

	// ── Signer ──
	setStr(&cfg.Signer.SocketPath, "FLY_SIGNER_SOCKET_PATH")
	setDuration(&cfg.Signer.DialTimeout, "FLY_SIGNER_DIAL_TIMEOUT")
	setDuration(&cfg.Signer.WriteTimeout, "FLY_SIGNER_WRITE_TIMEOUT")

	// ── Notify ──
	setStr(&cfg.Notify.SlackWebhookURL, "FLY_NOTIFY_SLACK_WEBHOOK_URL")
	setStr(&cfg.Notify.TelegramToken, "FLY_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FLY_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FLY_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "FLY_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "FLY_MODE")
	setStr(&cfg.LogLevel, "FLY_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
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

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
