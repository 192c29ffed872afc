package domain

import (
	"math/big"
	"time"

	"github.com/fly-arb/fly/internal/arb"
)

// Token is an ERC-20 token tracked by the bot.
type Token struct {
	ID        arb.TokenID
	Symbol    string
	Decimals  uint8
	CreatedAt time.Time
}

// Factory is a UniswapV2-style pair factory whose pairs the bot follows.
type Factory struct {
	ID        arb.PoolID
	Name      string
	FeeBps    uint16
	PairCount int64
	CreatedAt time.Time
}

// Pair is a persisted constant-product pool. Reserves are optional: a pair
// discovered from the factory enumeration has none until the first sync.
type Pair struct {
	ID        arb.PoolID
	Factory   arb.PoolID
	Token0    arb.TokenID
	Token1    arb.TokenID
	Reserve0  *big.Int
	Reserve1  *big.Int
	FeeBps    uint16
	SyncedAt  *time.Time
	CreatedAt time.Time
}

// HasReserves reports whether the pair has seen at least one reserve sync.
func (p Pair) HasReserves() bool {
	return p.Reserve0 != nil && p.Reserve1 != nil
}

// Pool converts the pair into its in-memory search representation.
func (p Pair) Pool() (arb.Pool, error) {
	pool, err := arb.NewPool(p.ID, p.Token0, p.Token1, p.Reserve0, p.Reserve1)
	if err != nil {
		return arb.Pool{}, err
	}
	if p.FeeBps != 0 {
		pool.FeeBps = p.FeeBps
	}
	return pool, nil
}

// ReserveUpdate is one Sync event: the pool's post-trade reserve snapshot.
type ReserveUpdate struct {
	Pool        arb.PoolID
	Reserve0    *big.Int
	Reserve1    *big.Int
	BlockNumber uint64
	TxHash      string
	ObservedAt  time.Time
}
