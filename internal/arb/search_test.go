package arb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// e15 scales a small coefficient to a realistic 1e15 reserve magnitude.
func e15(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000))
}

// triangleFixture is the canonical three-pool market: A-B and B-C balanced,
// and an updated C-A pool skewed so that A->B->C->A turns a profit.
func triangleFixture(t *testing.T) (pools []Pool, updated Pool) {
	t.Helper()
	pools = []Pool{
		testPool(t, "P1", "A", "B", e15(1), e15(1)),
		testPool(t, "P2", "B", "C", e15(1), e15(1)),
		testPool(t, "P3", "C", "A", e15(1), e15(1)),
	}
	updated = testPool(t, "P3", "C", "A", e15(1), e15(2))
	return pools, updated
}

func TestFindCyclesTriangle(t *testing.T) {
	for _, strategy := range []SearchStrategy{StrategyDFS, StrategyBellmanFord, StrategyBoth} {
		t.Run(strategy.String(), func(t *testing.T) {
			pools, updated := triangleFixture(t)

			cfg := DefaultSearchConfig()
			cfg.Strategy = strategy
			cycles := FindCycles(pools, updated, cfg)

			require.NotEmpty(t, cycles, "the skewed pool opens a 3-swap arbitrage")
			for _, c := range cycles {
				assert.True(t, c.ContainsPool(updated.ID), "every result passes through the updated pool")
				assert.True(t, c.HasAllReserves())
				assert.Positive(t, c.LogRate)
				assert.Len(t, c.Swaps, 3)
			}
		})
	}
}

func TestFindCyclesDeduplicates(t *testing.T) {
	// Both strategies discover the same geometric cycle, each seeded from
	// both of the updated pool's tokens; the result holds it exactly once.
	pools, updated := triangleFixture(t)

	cycles := FindCycles(pools, updated, DefaultSearchConfig())
	require.Len(t, cycles, 1)

	// Only one orientation of the triangle is profitable.
	c := cycles[0]
	assert.Equal(t, int64(3), int64(len(c.Swaps)))
	assert.True(t, c.IsProfitable())
}

func TestFindCyclesUsesUpdatedSnapshot(t *testing.T) {
	// The pool set carries a stale skewed snapshot of P3; the update says
	// the pool has rebalanced. The update must override the stale entry,
	// leaving nothing profitable.
	pools, skewed := triangleFixture(t)
	pools[2] = skewed
	rebalanced := testPool(t, "P3", "C", "A", e15(1), e15(1))

	cycles := FindCycles(pools, rebalanced, DefaultSearchConfig())
	assert.Empty(t, cycles)
}

func TestFindCyclesTwoPoolCycle(t *testing.T) {
	// Two pools over the same token pair, one mispriced: a 2-swap cycle.
	pools := []Pool{
		testPool(t, "P1", "A", "B", e15(1), e15(1)),
		testPool(t, "P2", "A", "B", e15(1), e15(1)),
	}
	updated := testPool(t, "P2", "A", "B", e15(2), e15(1))

	cycles := FindCycles(pools, updated, DefaultSearchConfig())
	require.NotEmpty(t, cycles)
	for _, c := range cycles {
		assert.Len(t, c.Swaps, 2)
		assert.True(t, c.ContainsPool(pid("P2")))
		assert.Positive(t, c.LogRate)
	}
	// A cycle never uses a pool's two reciprocal legs.
	for _, c := range cycles {
		assert.NotEqual(t, c.Swaps[0].ID.Pool, c.Swaps[1].ID.Pool)
	}
}

func TestFindCyclesSkipsUnreservedPools(t *testing.T) {
	// The profitable triangle is intact, but a second route through an
	// unreserved pool exists; no returned cycle may touch it.
	pools, updated := triangleFixture(t)
	unreserved, err := NewPool(pid("P4"), tok("C"), tok("A"), nil, nil)
	require.NoError(t, err)
	pools = append(pools, unreserved)

	cycles := FindCycles(pools, updated, DefaultSearchConfig())
	require.NotEmpty(t, cycles)
	for _, c := range cycles {
		assert.True(t, c.HasAllReserves())
		assert.False(t, c.ContainsPool(pid("P4")))
	}
}

func TestFindCyclesHopBound(t *testing.T) {
	// A profitable square (4 hops) is invisible to a 3-hop DFS.
	pools := []Pool{
		testPool(t, "P1", "A", "B", e15(1), e15(1)),
		testPool(t, "P2", "B", "C", e15(1), e15(1)),
		testPool(t, "P3", "C", "D", e15(1), e15(1)),
		testPool(t, "P4", "D", "A", e15(1), e15(1)),
	}
	updated := testPool(t, "P4", "D", "A", e15(1), e15(3))

	cfg := SearchConfig{MaxHops: 3, Strategy: StrategyDFS}
	assert.Empty(t, FindCycles(pools, updated, cfg))

	cfg.MaxHops = 4
	cycles := FindCycles(pools, updated, cfg)
	require.NotEmpty(t, cycles)
	assert.Len(t, cycles[0].Swaps, 4)
}

func TestFindCyclesNoFalsePositives(t *testing.T) {
	// A balanced market has no profitable cycle: the fee eats every loop.
	pools := []Pool{
		testPool(t, "P1", "A", "B", e15(1), e15(1)),
		testPool(t, "P2", "B", "C", e15(1), e15(1)),
		testPool(t, "P3", "C", "A", e15(1), e15(1)),
	}
	// A mild skew that does not overcome two fee-paying hops.
	updated, err := NewPool(pid("P3"), tok("C"), tok("A"),
		e15(1), new(big.Int).Add(e15(1), big.NewInt(1_000_000_000)))
	require.NoError(t, err)

	assert.Empty(t, FindCycles(pools, updated, DefaultSearchConfig()))
}

func TestFindCyclesEndToEndOptimize(t *testing.T) {
	// Detection to optimization: the discovered cycle yields a concrete
	// best input and positive profit under a portfolio cap.
	pools, updated := triangleFixture(t)

	cycles := FindCycles(pools, updated, DefaultSearchConfig())
	require.Len(t, cycles, 1)

	c := cycles[0]
	balance := e15(1) // ample
	require.NoError(t, c.Optimize(balance, DefaultOptimizerConfig()))
	require.NotNil(t, c.BestAmountIn)
	assert.Positive(t, c.MaxProfit.Sign())
	assert.Positive(t, c.MaxProfitMargin)

	// The quote at the optimum agrees with the optimizer's profit.
	q, err := NewCycleQuote(c, c.BestAmountIn)
	require.NoError(t, err)
	assert.Zero(t, q.Profit().Cmp(c.MaxProfit))
}
