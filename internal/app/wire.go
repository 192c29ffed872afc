package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fly-arb/fly/internal/cache/redis"
	"github.com/fly-arb/fly/internal/chain"
	"github.com/fly-arb/fly/internal/config"
	"github.com/fly-arb/fly/internal/domain"
	"github.com/fly-arb/fly/internal/notify"
	"github.com/fly-arb/fly/internal/signer"
	"github.com/fly-arb/fly/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	TokenStore       domain.TokenStore
	FactoryStore     domain.FactoryStore
	PairStore        domain.PairStore
	OpportunityStore domain.OpportunityStore

	// Redis
	ReserveCache domain.ReserveCache
	SignalBus    domain.SignalBus

	// Chain RPC (nil in monitor mode)
	ChainClient *chain.Client

	// Signer (nil unless auto-execute is wired)
	OrderSink domain.OrderSink

	// Notifications
	Notifier *notify.Notifier
}

// needsPostgres returns true for modes that require a database connection.
func needsPostgres(mode string) bool {
	switch mode {
	case "full", "sync", "scan":
		return true
	default:
		return false
	}
}

// needsChainRPC returns true for modes that read pair state over HTTP RPC.
func needsChainRPC(mode string) bool {
	switch mode {
	case "full", "sync":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (only for modes that need persistence) ---
	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.TokenStore = postgres.NewTokenStore(pool)
		deps.FactoryStore = postgres.NewFactoryStore(pool)
		deps.PairStore = postgres.NewPairStore(pool)
		deps.OpportunityStore = postgres.NewOpportunityStore(pool)
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.ReserveCache = redis.NewReserveCache(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient, logger)

	// --- Chain RPC (only for modes that bootstrap pair state) ---
	if needsChainRPC(cfg.Mode) {
		chainClient, err := chain.NewClient(ctx, cfg.Chain.HTTPURL, cfg.Chain.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain rpc: %w", err)
		}
		closers = append(closers, chainClient.Close)
		deps.ChainClient = chainClient
	}

	// --- Signer (only when orders can actually go out) ---
	if cfg.Mode == "full" && cfg.Executor.AutoExecute {
		sink := signer.New(signer.Config{
			SocketPath:   cfg.Signer.SocketPath,
			DialTimeout:  cfg.Signer.DialTimeout.Duration,
			WriteTimeout: cfg.Signer.WriteTimeout.Duration,
		}, logger)
		closers = append(closers, func() { _ = sink.Close() })
		deps.OrderSink = sink
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.SlackWebhookURL != "" {
		senders = append(senders, notify.NewSlackSender(cfg.Notify.SlackWebhookURL))
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
