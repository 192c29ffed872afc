// Package detector ties the reserve-update stream to the cycle search. It
// keeps the full pool set in memory, re-runs the search on every update, and
// records (and optionally executes) the opportunities that survive
// optimization.
package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/fly-arb/fly/internal/arb"
	"github.com/fly-arb/fly/internal/domain"
	"github.com/fly-arb/fly/internal/notify"
)

// redetectCooldown suppresses re-recording the same geometric cycle while a
// previous detection of it is still fresh. Reserve updates arrive per trade,
// so a hot pool can re-surface an identical cycle many times per block.
const redetectCooldown = time.Minute

// Config configures the detector.
type Config struct {
	Pairs         domain.PairStore
	Opportunities domain.OpportunityStore
	Bus           domain.SignalBus
	Reserves      domain.ReserveCache // optional
	Sink          domain.OrderSink    // required when AutoExecute is set
	Notifier      *notify.Notifier    // optional

	Search    arb.SearchConfig
	Optimizer arb.OptimizerConfig
	Portfolio arb.Portfolio

	AutoExecute     bool
	MinProfitMargin float64
	OrderDeadline   time.Duration

	Logger *slog.Logger
}

// Detector consumes reserve updates from the signal bus and searches for
// profitable cycles through each updated pool. All state is owned by the Run
// goroutine; the detector is not safe for concurrent use.
type Detector struct {
	pairs         domain.PairStore
	opportunities domain.OpportunityStore
	bus           domain.SignalBus
	reserves      domain.ReserveCache
	sink          domain.OrderSink
	notifier      *notify.Notifier

	search    arb.SearchConfig
	optimizer arb.OptimizerConfig
	portfolio arb.Portfolio

	autoExecute     bool
	minProfitMargin float64
	orderDeadline   time.Duration

	logger *slog.Logger

	pools  map[arb.PoolID]arb.Pool
	recent map[string]time.Time // cycle key -> last detection
}

// New creates a detector from the given configuration.
func New(cfg Config) *Detector {
	return &Detector{
		pairs:           cfg.Pairs,
		opportunities:   cfg.Opportunities,
		bus:             cfg.Bus,
		reserves:        cfg.Reserves,
		sink:            cfg.Sink,
		notifier:        cfg.Notifier,
		search:          cfg.Search,
		optimizer:       cfg.Optimizer,
		portfolio:       cfg.Portfolio,
		autoExecute:     cfg.AutoExecute,
		minProfitMargin: cfg.MinProfitMargin,
		orderDeadline:   cfg.OrderDeadline,
		logger:          cfg.Logger.With(slog.String("component", "detector")),
		pools:           make(map[arb.PoolID]arb.Pool),
		recent:          make(map[string]time.Time),
	}
}

// Run loads the pool set, subscribes to reserve updates and processes them
// until ctx is cancelled or the bus channel closes.
func (d *Detector) Run(ctx context.Context) error {
	if err := d.loadPools(ctx); err != nil {
		return fmt.Errorf("detector: load pools: %w", err)
	}

	ch, err := d.bus.SubscribeUpdates(ctx)
	if err != nil {
		return fmt.Errorf("detector: subscribe updates: %w", err)
	}
	d.logger.Info("detector started",
		slog.Int("pools", len(d.pools)),
		slog.String("strategy", d.search.Strategy.String()),
		slog.Bool("auto_execute", d.autoExecute),
	)
	defer d.logger.Info("detector stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-ch:
			if !ok {
				return nil
			}
			if err := d.handleUpdate(ctx, update); err != nil {
				d.logger.Warn("handle update failed",
					slog.String("pool", update.Pool.String()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// loadPools hydrates the in-memory pool set from the pair store. Pairs with a
// broken snapshot are skipped; search only ever walks pools that converted.
func (d *Detector) loadPools(ctx context.Context) error {
	pairs, err := d.pairs.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		pool, err := pair.Pool()
		if err != nil {
			d.logger.Warn("skipping unconvertible pair",
				slog.String("pair", pair.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.pools[pool.ID] = pool
	}
	return nil
}

func (d *Detector) handleUpdate(ctx context.Context, update domain.ReserveUpdate) error {
	updated, err := d.applyUpdate(ctx, update)
	if err != nil {
		return err
	}
	if !updated.HasReserves() {
		return nil
	}

	cycles := arb.FindCycles(d.snapshot(), updated, d.search)
	if len(cycles) == 0 {
		return nil
	}
	d.logger.Debug("profitable cycles found",
		slog.String("pool", update.Pool.String()),
		slog.Int("count", len(cycles)),
	)

	now := time.Now().UTC()
	for _, c := range cycles {
		d.handleCycle(ctx, c, update, now)
	}
	d.pruneRecent(now)
	return nil
}

// applyUpdate folds the reserve update into the in-memory set and persists
// the snapshot. Updates for pools we do not track are dropped: the log
// subscription is topic-filtered, not address-filtered, so pools of factories
// we never enumerated flow past here.
func (d *Detector) applyUpdate(ctx context.Context, update domain.ReserveUpdate) (arb.Pool, error) {
	prev, ok := d.pools[update.Pool]
	if !ok {
		pair, err := d.pairs.GetByID(ctx, update.Pool)
		if errors.Is(err, domain.ErrNotFound) {
			d.logger.Debug("update for untracked pool", slog.String("pool", update.Pool.String()))
			return arb.Pool{}, nil
		}
		if err != nil {
			return arb.Pool{}, fmt.Errorf("lookup pair: %w", err)
		}
		prev, err = pair.Pool()
		if err != nil {
			return arb.Pool{}, fmt.Errorf("convert pair: %w", err)
		}
	}

	updated, err := arb.NewPool(update.Pool, prev.Token0, prev.Token1, update.Reserve0, update.Reserve1)
	if err != nil {
		return arb.Pool{}, fmt.Errorf("build snapshot: %w", err)
	}
	updated.FeeBps = prev.FeeBps
	d.pools[update.Pool] = updated

	if err := d.pairs.UpdateReserves(ctx, update); err != nil {
		d.logger.Warn("persist reserves failed",
			slog.String("pool", update.Pool.String()),
			slog.String("error", err.Error()),
		)
	}
	if d.reserves != nil {
		if err := d.reserves.Set(ctx, update); err != nil {
			d.logger.Warn("cache reserves failed",
				slog.String("pool", update.Pool.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return updated, nil
}

// handleCycle optimizes one candidate cycle and, when it clears the margin
// bar, records and optionally executes it.
func (d *Detector) handleCycle(ctx context.Context, c *arb.Cycle, update domain.ReserveUpdate, now time.Time) {
	startToken := c.Swaps[0].TokenIn
	balance, ok := d.portfolio.Balance(startToken)
	if !ok {
		d.logger.Debug("no balance for start token", slog.String("token", startToken.String()))
		return
	}

	if err := c.Optimize(balance, d.optimizer); err != nil {
		if errors.Is(err, arb.ErrNonConvergence) {
			d.logger.Debug("optimization did not converge", slog.String("cycle", c.String()))
			return
		}
		d.logger.Warn("optimize failed",
			slog.String("cycle", c.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if !c.IsExploitable() || c.MaxProfitMargin < d.minProfitMargin {
		return
	}

	key := c.Key()
	if last, seen := d.recent[key]; seen && now.Sub(last) < redetectCooldown {
		return
	}
	d.recent[key] = now

	opp := domain.OpportunityFromCycle(uuid.NewString(), c, update.Pool, update.BlockNumber, now)
	if err := d.opportunities.Insert(ctx, opp); err != nil {
		d.logger.Warn("record opportunity failed",
			slog.String("opportunity", opp.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	d.logger.Info("opportunity recorded",
		slog.String("opportunity", opp.ID),
		slog.String("pool", update.Pool.String()),
		slog.Int64("log_rate", c.LogRate),
		slog.String("best_amount_in", c.BestAmountIn.String()),
		slog.String("max_profit", c.MaxProfit.String()),
		slog.Float64("margin", c.MaxProfitMargin),
	)
	if d.notifier != nil {
		// Sender failures are logged by the notifier itself.
		_ = d.notifier.Notify(ctx, "opportunity", "Arbitrage opportunity",
			fmt.Sprintf("%s: profit %s (margin %.4f%%) for %s in", opp.ID, c.MaxProfit, c.MaxProfitMargin*100, c.BestAmountIn))
	}

	if d.autoExecute && d.sink != nil {
		d.execute(ctx, opp, now)
	}
}

// execute submits the opportunity to the signer. MinAmountOut is set one above
// the input so any execution that would realize a loss reverts on-chain.
func (d *Detector) execute(ctx context.Context, opp domain.Opportunity, now time.Time) {
	order := domain.Order{
		ID:           opp.ID,
		Legs:         opp.Path,
		AmountIn:     opp.BestAmountIn,
		MinAmountOut: new(big.Int).Add(opp.BestAmountIn, big.NewInt(1)),
		Deadline:     now.Add(d.orderDeadline),
		CreatedAt:    now,
	}
	result, err := d.sink.Submit(ctx, order)
	if err != nil {
		d.logger.Warn("order submit failed",
			slog.String("order", order.ID),
			slog.String("error", err.Error()),
		)
		if d.notifier != nil {
			_ = d.notifier.Notify(ctx, "error", "Order submit failed",
				fmt.Sprintf("%s: %v", order.ID, err))
		}
		return
	}

	if err := d.opportunities.MarkExecuted(ctx, opp.ID); err != nil {
		d.logger.Warn("mark executed failed",
			slog.String("opportunity", opp.ID),
			slog.String("error", err.Error()),
		)
	}
	d.logger.Info("order submitted",
		slog.String("order", order.ID),
		slog.String("status", string(result.Status)),
		slog.String("tx_hash", result.TxHash),
	)
	if d.notifier != nil {
		_ = d.notifier.Notify(ctx, "order_submitted", "Order submitted",
			fmt.Sprintf("%s: status %s tx %s", order.ID, result.Status, result.TxHash))
	}
}

// snapshot flattens the pool map for the search. FindCycles takes the updated
// pool separately, so the stale entry being present does not matter.
func (d *Detector) snapshot() []arb.Pool {
	out := make([]arb.Pool, 0, len(d.pools))
	for _, p := range d.pools {
		out = append(out, p)
	}
	return out
}

func (d *Detector) pruneRecent(now time.Time) {
	if len(d.recent) < 4096 {
		return
	}
	for key, last := range d.recent {
		if now.Sub(last) >= redetectCooldown {
			delete(d.recent, key)
		}
	}
}
