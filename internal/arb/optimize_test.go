package arb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fineOptimizerConfig tightens the search so small toy reserves stay inside
// the probe resolution.
func fineOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Precision:     big.NewInt(1),
		ProbeDelta:    big.NewInt(5),
		MaxIterations: 100,
	}
}

func TestOptimizeUnprofitableCycleIsNoop(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200}, // ~2x
		swapSpec{"P2", "B", "A", 300, 100}, // ~1/3x
	)
	require.False(t, c.IsProfitable())

	for _, cap := range []int64{1, 100, 1_000_000_000} {
		require.NoError(t, c.Optimize(big.NewInt(cap), DefaultOptimizerConfig()))
		assert.Nil(t, c.BestAmountIn)
		assert.Nil(t, c.MaxProfit)
		assert.False(t, c.IsExploitable())
	}
}

func TestOptimizeExploitableCycle(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P2", "B", "A", 300, 300},
	)
	require.True(t, c.IsProfitable())

	require.NoError(t, c.Optimize(big.NewInt(100), fineOptimizerConfig()))

	require.NotNil(t, c.BestAmountIn)
	// The profit plateau spans inputs 20..30; anywhere on it realizes the
	// maximum profit of 9.
	best := c.BestAmountIn.Int64()
	assert.GreaterOrEqual(t, best, int64(20))
	assert.LessOrEqual(t, best, int64(30))
	assert.Equal(t, int64(9), c.MaxProfit.Int64())
	assert.InDelta(t, 9.0/float64(best), c.MaxProfitMargin, 1e-9)
	assert.True(t, c.IsExploitable())
}

func TestOptimizeLargeReserves(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 1_000_000, 2_000_000},
		swapSpec{"P2", "B", "A", 3_000_000, 3_000_000},
	)
	require.True(t, c.IsProfitable())

	// With a balance cap below the peak the whole balance is deployed (up
	// to the probe delta below the cap).
	require.NoError(t, c.Optimize(big.NewInt(50_000), DefaultOptimizerConfig()))
	require.NotNil(t, c.BestAmountIn)
	assert.LessOrEqual(t, c.BestAmountIn.Int64(), int64(50_000))
	assert.GreaterOrEqual(t, c.BestAmountIn.Int64(), int64(48_000))
	assert.Positive(t, c.MaxProfit.Sign())

	// With ample balance the search settles near the true peak; the profit
	// there strictly beats the capped run.
	capped := new(big.Int).Set(c.MaxProfit)
	c.BestAmountIn, c.MaxProfit, c.MaxProfitMargin = nil, nil, 0
	require.NoError(t, c.Optimize(big.NewInt(1_000_000), DefaultOptimizerConfig()))
	require.NotNil(t, c.BestAmountIn)
	assert.Positive(t, c.MaxProfit.Cmp(capped))

	// Sanity: the reported profit matches a direct simulation at the
	// reported amount.
	out, err := c.AmountOut(c.BestAmountIn)
	require.NoError(t, err)
	profit := new(big.Int).Sub(out, c.BestAmountIn)
	assert.Zero(t, profit.Cmp(c.MaxProfit))
}

func TestOptimizeBalanceCapRespected(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 1_000_000, 2_000_000},
		swapSpec{"P2", "B", "A", 3_000_000, 3_000_000},
	)

	for _, cap := range []int64{10_000, 100_000, 500_000} {
		c.BestAmountIn, c.MaxProfit, c.MaxProfitMargin = nil, nil, 0
		require.NoError(t, c.Optimize(big.NewInt(cap), DefaultOptimizerConfig()))
		if c.BestAmountIn != nil {
			assert.LessOrEqual(t, c.BestAmountIn.Int64(), cap)
		}
	}
}

func TestOptimizeLeavesInputsUnmutated(t *testing.T) {
	// The bisection must narrow a private copy of the interval: the upper
	// bound starts aliased to either the first swap's reserve or the caller's
	// balance cap, and both outlive the call.
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P2", "B", "A", 300, 300},
	)

	// Cap above the first reserve: the interval starts at the reserve.
	balance := big.NewInt(1000)
	require.NoError(t, c.Optimize(balance, fineOptimizerConfig()))
	reserveIn, ok := c.Swaps[0].ReserveIn()
	require.True(t, ok)
	assert.Equal(t, int64(100), reserveIn.Int64())
	assert.Equal(t, int64(1000), balance.Int64())

	// Pricing still agrees with a fresh simulation at the reported amount.
	require.NotNil(t, c.BestAmountIn)
	out, err := c.AmountOut(c.BestAmountIn)
	require.NoError(t, err)
	assert.Zero(t, new(big.Int).Sub(out, c.BestAmountIn).Cmp(c.MaxProfit))

	// Cap below the first reserve: the interval starts at the cap.
	c = testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P2", "B", "A", 300, 300},
	)
	balance = big.NewInt(50)
	require.NoError(t, c.Optimize(balance, fineOptimizerConfig()))
	assert.Equal(t, int64(50), balance.Int64())
	reserveIn, ok = c.Swaps[0].ReserveIn()
	require.True(t, ok)
	assert.Equal(t, int64(100), reserveIn.Int64())
}

func TestOptimizeNonConvergence(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 1_000_000, 2_000_000},
		swapSpec{"P2", "B", "A", 3_000_000, 3_000_000},
	)

	// One iteration can never shrink the interval below the precision.
	cfg := OptimizerConfig{
		Precision:     big.NewInt(1),
		ProbeDelta:    big.NewInt(1000),
		MaxIterations: 1,
	}
	err := c.Optimize(big.NewInt(1_000_000), cfg)
	require.ErrorIs(t, err, ErrNonConvergence)

	// Non-convergence leaves the cycle exactly as if it were unexploitable.
	assert.Nil(t, c.BestAmountIn)
	assert.Nil(t, c.MaxProfit)
}

func TestOptimizeBareCycleFails(t *testing.T) {
	a2b, err := NewSwap(SwapID{Pool: pid("P1"), Direction: ZeroForOne}, tok("A"), tok("B"))
	require.NoError(t, err)
	b2a, err := NewSwap(SwapID{Pool: pid("P2"), Direction: OneForZero}, tok("B"), tok("A"))
	require.NoError(t, err)

	c, err := NewCycle([]Swap{a2b, b2a})
	require.NoError(t, err)

	// Bare swaps sum to a zero log rate, so optimization is a no-op rather
	// than an error.
	require.NoError(t, c.Optimize(big.NewInt(100), DefaultOptimizerConfig()))
	assert.Nil(t, c.BestAmountIn)
}
