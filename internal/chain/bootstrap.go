package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fly-arb/fly/internal/arb"
	"github.com/fly-arb/fly/internal/domain"
)

// Bootstrapper enumerates a factory's pairs over JSON-RPC and persists them,
// then backfills reserves for pairs that have never seen a sync. It is
// idempotent: rerunning picks up where the stored pair count left off.
type Bootstrapper struct {
	client    *Client
	factories domain.FactoryStore
	tokens    domain.TokenStore
	pairs     domain.PairStore
	batch     int
	feeBps    uint16
	logger    *slog.Logger
}

// NewBootstrapper wires a bootstrapper. batch caps how many pairs one pass
// enumerates or backfills; feeBps is the swap fee assumed for factories seen
// for the first time.
func NewBootstrapper(client *Client, factories domain.FactoryStore, tokens domain.TokenStore, pairs domain.PairStore, batch int, feeBps uint16, logger *slog.Logger) *Bootstrapper {
	if batch < 1 {
		batch = 100
	}
	if feeBps == 0 {
		feeBps = arb.DefaultFeeBps
	}
	return &Bootstrapper{
		client:    client,
		factories: factories,
		tokens:    tokens,
		pairs:     pairs,
		batch:     batch,
		feeBps:    feeBps,
		logger:    logger.With(slog.String("component", "bootstrap")),
	}
}

// Run syncs every given factory to completion, then backfills reserves until
// no unsynced pairs remain or the context is cancelled.
func (b *Bootstrapper) Run(ctx context.Context, factories []arb.PoolID) error {
	for _, f := range factories {
		if err := b.SyncFactory(ctx, f); err != nil {
			return err
		}
	}
	for {
		n, err := b.BackfillReserves(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// SyncFactory enumerates pairs the factory created since the last run and
// persists them together with their tokens.
func (b *Bootstrapper) SyncFactory(ctx context.Context, factory arb.PoolID) error {
	onChain, err := b.client.PairCount(ctx, factory)
	if err != nil {
		return err
	}

	known, err := b.factories.GetByID(ctx, factory)
	if errors.Is(err, domain.ErrNotFound) {
		known = domain.Factory{ID: factory, FeeBps: b.feeBps}
	} else if err != nil {
		return err
	}

	b.logger.Info("syncing factory",
		slog.String("factory", factory.String()),
		slog.Int64("known_pairs", known.PairCount),
		slog.Int64("onchain_pairs", onChain))

	for start := known.PairCount; start < onChain; start += int64(b.batch) {
		end := start + int64(b.batch)
		if end > onChain {
			end = onChain
		}

		pairs := make([]domain.Pair, 0, end-start)
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			pair, err := b.readPair(ctx, factory, known.FeeBps, i)
			if err != nil {
				return fmt.Errorf("pair %d of factory %s: %w", i, factory, err)
			}
			pairs = append(pairs, pair)
		}

		if err := b.pairs.UpsertBatch(ctx, pairs); err != nil {
			return err
		}

		known.PairCount = end
		if err := b.factories.Upsert(ctx, known); err != nil {
			return err
		}

		b.logger.Info("factory progress",
			slog.String("factory", factory.String()),
			slog.Int64("pairs", end),
			slog.Int64("total", onChain))
	}

	return nil
}

// readPair reads one pair's address and tokens and upserts the tokens.
func (b *Bootstrapper) readPair(ctx context.Context, factory arb.PoolID, feeBps uint16, index int64) (domain.Pair, error) {
	id, err := b.client.PairAt(ctx, factory, index)
	if err != nil {
		return domain.Pair{}, err
	}
	token0, token1, err := b.client.PairTokens(ctx, id)
	if err != nil {
		return domain.Pair{}, err
	}

	for _, t := range []arb.TokenID{token0, token1} {
		if _, err := b.tokens.GetByID(ctx, t); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return domain.Pair{}, err
		}
		symbol, decimals := b.client.TokenMetadata(ctx, t)
		if err := b.tokens.Upsert(ctx, domain.Token{ID: t, Symbol: symbol, Decimals: decimals}); err != nil {
			return domain.Pair{}, err
		}
	}

	return domain.Pair{
		ID:      id,
		Factory: factory,
		Token0:  token0,
		Token1:  token1,
		FeeBps:  feeBps,
	}, nil
}

// BackfillReserves reads current reserves for one batch of unsynced pairs and
// returns how many it updated.
func (b *Bootstrapper) BackfillReserves(ctx context.Context) (int, error) {
	pairs, err := b.pairs.ListUnsynced(ctx, b.batch)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		r0, r1, err := b.client.Reserves(ctx, p.ID)
		if err != nil {
			b.logger.Warn("reserve read failed",
				slog.String("pair", p.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if r0.Sign() == 0 || r1.Sign() == 0 {
			// Empty pool. Stamp it synced so the backfill terminates.
			now := time.Now().UTC()
			p.SyncedAt = &now
			if err := b.pairs.Upsert(ctx, p); err != nil {
				return 0, err
			}
			synced++
			continue
		}

		err = b.pairs.UpdateReserves(ctx, domain.ReserveUpdate{
			Pool:       p.ID,
			Reserve0:   r0,
			Reserve1:   r1,
			ObservedAt: time.Now().UTC(),
		})
		if err != nil {
			return 0, err
		}
		synced++
	}

	return synced, nil
}
