package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/fly-arb/fly/internal/arb"
	"github.com/fly-arb/fly/internal/chain"
	"github.com/fly-arb/fly/internal/detector"
	"github.com/fly-arb/fly/internal/domain"
)

// FullMode bootstraps pair state, then runs live detection with execution
// gated by executor.auto_execute.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	if err := a.runBootstrap(ctx, deps); err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if err := a.startSubscriber(ctx, g, deps); err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	det, err := a.buildDetector(deps, a.cfg.Executor.AutoExecute)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}
	g.Go(func() error {
		return det.Run(ctx)
	})

	return g.Wait()
}

// SyncMode enumerates factory pairs and backfills reserves, then exits.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode")

	if err := a.runBootstrap(ctx, deps); err != nil {
		return fmt.Errorf("sync mode: %w", err)
	}

	count, err := deps.PairStore.Count(ctx)
	if err != nil {
		return fmt.Errorf("sync mode: count pairs: %w", err)
	}
	a.logger.InfoContext(ctx, "sync complete", slog.Int64("pairs", count))
	return nil
}

// ScanMode runs live detection without an order sink: opportunities are
// recorded and notified but never executed.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	g, ctx := errgroup.WithContext(ctx)
	if err := a.startSubscriber(ctx, g, deps); err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	det, err := a.buildDetector(deps, false)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	g.Go(func() error {
		return det.Run(ctx)
	})

	return g.Wait()
}

// MonitorMode follows the Sync event stream and logs every reserve update.
// Nothing is persisted and no search runs.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)
	if err := a.startSubscriber(ctx, g, deps); err != nil {
		return fmt.Errorf("monitor mode: %w", err)
	}

	g.Go(func() error {
		ch, err := deps.SignalBus.SubscribeUpdates(ctx)
		if err != nil {
			return fmt.Errorf("monitor mode: subscribe updates: %w", err)
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case update, ok := <-ch:
				if !ok {
					return nil
				}
				a.logger.InfoContext(ctx, "reserve update",
					slog.String("pool", update.Pool.String()),
					slog.String("reserve0", update.Reserve0.String()),
					slog.String("reserve1", update.Reserve1.String()),
					slog.Uint64("block", update.BlockNumber),
					slog.String("tx", update.TxHash),
				)
			}
		}
	})

	return g.Wait()
}

// runBootstrap syncs every configured factory to completion and backfills
// reserves. It blocks until done; live detection starts from a complete set.
func (a *App) runBootstrap(ctx context.Context, deps *Dependencies) error {
	factories, err := a.factoryIDs()
	if err != nil {
		return err
	}
	boot := chain.NewBootstrapper(
		deps.ChainClient,
		deps.FactoryStore,
		deps.TokenStore,
		deps.PairStore,
		a.cfg.Chain.BootstrapBatch,
		uint16(a.cfg.Search.FeeBps),
		a.logger,
	)
	return boot.Run(ctx, factories)
}

// startSubscriber connects the websocket log feed and bridges decoded reserve
// updates onto the signal bus. The connection is torn down when the group
// context ends.
func (a *App) startSubscriber(ctx context.Context, g *errgroup.Group, deps *Dependencies) error {
	sub := chain.NewSubscriber(a.cfg.Chain.WSURL, a.logger)
	sub.OnUpdate(func(update domain.ReserveUpdate) {
		if err := deps.SignalBus.PublishUpdate(ctx, update); err != nil {
			a.logger.WarnContext(ctx, "publish reserve update failed",
				slog.String("pool", update.Pool.String()),
				slog.String("error", err.Error()),
			)
		}
	})
	if err := sub.Connect(ctx); err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return sub.Close()
	})
	return nil
}

// buildDetector assembles the detector from wired dependencies and config.
func (a *App) buildDetector(deps *Dependencies, autoExecute bool) (*detector.Detector, error) {
	portfolio, err := a.buildPortfolio()
	if err != nil {
		return nil, err
	}
	search, err := a.searchConfig()
	if err != nil {
		return nil, err
	}

	if autoExecute && deps.OrderSink == nil {
		return nil, fmt.Errorf("auto_execute is on but no order sink is wired")
	}

	return detector.New(detector.Config{
		Pairs:           deps.PairStore,
		Opportunities:   deps.OpportunityStore,
		Bus:             deps.SignalBus,
		Reserves:        deps.ReserveCache,
		Sink:            deps.OrderSink,
		Notifier:        deps.Notifier,
		Search:          search,
		Optimizer:       a.optimizerConfig(),
		Portfolio:       portfolio,
		AutoExecute:     autoExecute,
		MinProfitMargin: a.cfg.Executor.MinProfitMargin,
		OrderDeadline:   a.cfg.Executor.OrderDeadline.Duration,
		Logger:          a.logger,
	}), nil
}

// factoryIDs parses the configured factory addresses.
func (a *App) factoryIDs() ([]arb.PoolID, error) {
	out := make([]arb.PoolID, 0, len(a.cfg.Chain.Factories))
	for _, f := range a.cfg.Chain.Factories {
		id, err := arb.ParsePoolID(f)
		if err != nil {
			return nil, fmt.Errorf("factory address: %w", err)
		}
		out = append(out, id)
	}
	return out, nil
}

// buildPortfolio parses executor.balances into the optimizer's balance caps.
func (a *App) buildPortfolio() (arb.Portfolio, error) {
	holdings := make(map[arb.TokenID]*big.Int, len(a.cfg.Executor.Balances))
	for addr, amount := range a.cfg.Executor.Balances {
		token, err := arb.ParseTokenID(addr)
		if err != nil {
			return arb.Portfolio{}, fmt.Errorf("balance token: %w", err)
		}
		v, ok := new(big.Int).SetString(amount, 10)
		if !ok || v.Sign() < 0 {
			return arb.Portfolio{}, fmt.Errorf("balance for %s: invalid amount %q", addr, amount)
		}
		holdings[token] = v
	}
	return arb.NewPortfolio(holdings), nil
}

func (a *App) searchConfig() (arb.SearchConfig, error) {
	cfg := arb.SearchConfig{MaxHops: a.cfg.Search.MaxHops}
	switch a.cfg.Search.Strategy {
	case "both", "":
		cfg.Strategy = arb.StrategyBoth
	case "dfs":
		cfg.Strategy = arb.StrategyDFS
	case "bellman-ford":
		cfg.Strategy = arb.StrategyBellmanFord
	default:
		return arb.SearchConfig{}, fmt.Errorf("unknown search strategy %q", a.cfg.Search.Strategy)
	}
	return cfg, nil
}

func (a *App) optimizerConfig() arb.OptimizerConfig {
	return arb.OptimizerConfig{
		Precision:     big.NewInt(a.cfg.Optimizer.Precision),
		ProbeDelta:    big.NewInt(a.cfg.Optimizer.ProbeDelta),
		MaxIterations: a.cfg.Optimizer.MaxIterations,
	}
}
