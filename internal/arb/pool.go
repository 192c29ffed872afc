package arb

import (
	"fmt"
	"math/big"
)

// DefaultFeeBps is the standard constant-product pool fee of 0.3%.
const DefaultFeeBps uint16 = 30

// Pool is an immutable snapshot of a two-asset constant-product pool. An
// on-chain reserve change produces a new Pool value; pools are never mutated
// in place.
//
// Reserve0 and Reserve1 are either both set or both nil. A pool without
// reserves is known topology (its tokens can be traversed during search) but
// cannot price a trade.
type Pool struct {
	ID     PoolID
	Token0 TokenID
	Token1 TokenID

	Reserve0 *big.Int
	Reserve1 *big.Int

	// FeeBps is the pool's swap fee in basis points.
	FeeBps uint16
}

// NewPool validates and builds a pool snapshot. Reserves must be supplied
// both-or-neither; supplied reserves must be positive.
func NewPool(id PoolID, token0, token1 TokenID, reserve0, reserve1 *big.Int) (Pool, error) {
	if token0 == token1 {
		return Pool{}, fmt.Errorf("pool %s: %w", id, ErrSameTokenSwap)
	}
	if (reserve0 == nil) != (reserve1 == nil) {
		return Pool{}, fmt.Errorf("pool %s: %w: exactly one reserve supplied", id, ErrInconsistentReserves)
	}
	if reserve0 != nil && (reserve0.Sign() <= 0 || reserve1.Sign() <= 0) {
		return Pool{}, fmt.Errorf("pool %s: %w: reserves must be positive", id, ErrInconsistentReserves)
	}
	return Pool{
		ID:       id,
		Token0:   token0,
		Token1:   token1,
		Reserve0: reserve0,
		Reserve1: reserve1,
		FeeBps:   DefaultFeeBps,
	}, nil
}

// HasReserves reports whether the pool snapshot carries reserve data.
func (p Pool) HasReserves() bool {
	return p.Reserve0 != nil
}

// Swap derives the directed swap of this pool for the given direction. Pools
// with reserves yield reserved swaps; pools without yield bare ones.
func (p Pool) Swap(dir Direction) (Swap, error) {
	id := SwapID{Pool: p.ID, Direction: dir}
	tokenIn, tokenOut := p.Token0, p.Token1
	reserveIn, reserveOut := p.Reserve0, p.Reserve1
	if dir == OneForZero {
		tokenIn, tokenOut = p.Token1, p.Token0
		reserveIn, reserveOut = p.Reserve1, p.Reserve0
	}
	if !p.HasReserves() {
		return NewSwap(id, tokenIn, tokenOut)
	}
	return NewReservedSwap(id, tokenIn, tokenOut, reserveIn, reserveOut, p.FeeBps)
}

func (p Pool) String() string {
	if p.HasReserves() {
		return fmt.Sprintf("Pool(%s, %s %s / %s %s)", p.ID, p.Reserve0, p.Token0, p.Reserve1, p.Token1)
	}
	return fmt.Sprintf("Pool(%s, %s / %s, no reserves)", p.ID, p.Token0, p.Token1)
}
