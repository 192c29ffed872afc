package arb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// tok builds a deterministic token id from a short name.
func tok(name string) TokenID {
	var t TokenID
	copy(t[:], name)
	return t
}

// pid builds a deterministic pool id from a short name.
func pid(name string) PoolID {
	var p PoolID
	copy(p[:], name)
	return p
}

// testSwap builds a reserved swap between two named tokens with the standard
// 0.3% fee. Direction follows the token ordering so that a pool's two legs
// get distinct swap ids.
func testSwap(t *testing.T, pool, tokenIn, tokenOut string, reserveIn, reserveOut int64) Swap {
	t.Helper()
	dir := ZeroForOne
	if tokenIn > tokenOut {
		dir = OneForZero
	}
	s, err := NewReservedSwap(
		SwapID{Pool: pid(pool), Direction: dir},
		tok(tokenIn), tok(tokenOut),
		big.NewInt(reserveIn), big.NewInt(reserveOut),
		DefaultFeeBps,
	)
	require.NoError(t, err)
	return s
}

// swapSpec describes one leg for testCycle.
type swapSpec struct {
	pool, tokenIn, tokenOut string
	reserveIn, reserveOut   int64
}

// testCycle builds a validated cycle from leg specs.
func testCycle(t *testing.T, specs ...swapSpec) *Cycle {
	t.Helper()
	swaps := make([]Swap, 0, len(specs))
	for _, sp := range specs {
		swaps = append(swaps, testSwap(t, sp.pool, sp.tokenIn, sp.tokenOut, sp.reserveIn, sp.reserveOut))
	}
	c, err := NewCycle(swaps)
	require.NoError(t, err)
	return c
}

// testPool builds a reserved pool between two named tokens.
func testPool(t *testing.T, pool, token0, token1 string, reserve0, reserve1 *big.Int) Pool {
	t.Helper()
	p, err := NewPool(pid(pool), tok(token0), tok(token1), reserve0, reserve1)
	require.NoError(t, err)
	return p
}
