package arb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleQuoteChaining(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P2", "B", "A", 300, 300},
	)

	testCases := []struct {
		amountIn     int64
		intermediate int64
		amountOut    int64
	}{
		{10, 18, 16}, // +6
		{20, 33, 29}, // +9
		{25, 39, 34}, // +9
		{30, 46, 39}, // +9
		{40, 57, 47}, // +7
		{50, 66, 53}, // +3
		{60, 74, 59}, // -1
		{70, 82, 64}, // -6
	}

	for _, tc := range testCases {
		q, err := NewCycleQuote(c, big.NewInt(tc.amountIn))
		require.NoError(t, err)

		quotes := q.SwapQuotes()
		require.Len(t, quotes, 2)
		assert.Equal(t, tc.amountIn, q.AmountIn().Int64())
		assert.Equal(t, tc.intermediate, quotes[0].AmountOut.Int64())
		assert.Equal(t, tc.intermediate, quotes[1].AmountIn.Int64(), "legs must chain")
		assert.Equal(t, tc.amountOut, q.AmountOut().Int64())
	}
}

func TestCycleQuoteProfitIsSigned(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P2", "B", "A", 300, 300},
	)

	winning, err := NewCycleQuote(c, big.NewInt(25))
	require.NoError(t, err)
	assert.Equal(t, int64(9), winning.Profit().Int64())
	assert.True(t, winning.IsProfitable())

	losing, err := NewCycleQuote(c, big.NewInt(60))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), losing.Profit().Int64())
	assert.False(t, losing.IsProfitable())
}

func TestCycleQuoteProfitMargin(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P2", "B", "A", 300, 300},
	)

	// 25 in, 34 out: 9/25 = 36% = 3600 bps.
	q, err := NewCycleQuote(c, big.NewInt(25))
	require.NoError(t, err)
	assert.Equal(t, int32(3600), q.ProfitMargin())

	// 60 in, 59 out: -1/60 carries the loss sign, truncated toward zero.
	q, err = NewCycleQuote(c, big.NewInt(60))
	require.NoError(t, err)
	assert.Equal(t, int32(-166), q.ProfitMargin())

	// Zero in, zero out: margin is defined as zero.
	q, err = NewCycleQuote(c, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, int32(0), q.ProfitMargin())
}

func TestCycleQuoteMarginSaturates(t *testing.T) {
	// A microscopic input against a massively skewed pool produces a margin
	// far beyond int32 basis points; it must clamp, not wrap.
	big0 := new(big.Int)
	big0.SetString("1000000", 10)
	big1 := new(big.Int)
	big1.SetString("1000000000000000000000000000000", 10)

	s1, err := NewReservedSwap(
		SwapID{Pool: pid("P1"), Direction: ZeroForOne},
		tok("A"), tok("B"), big0, big1, DefaultFeeBps,
	)
	require.NoError(t, err)
	s2, err := NewReservedSwap(
		SwapID{Pool: pid("P2"), Direction: OneForZero},
		tok("B"), tok("A"), big0, big0, DefaultFeeBps,
	)
	require.NoError(t, err)

	c, err := NewCycle([]Swap{s1, s2})
	require.NoError(t, err)

	q, err := NewCycleQuote(c, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int32(2147483647), q.ProfitMargin())
}

func TestSwapQuote(t *testing.T) {
	s := testSwap(t, "P1", "A", "B", 1_000_000_000, 1_000_000_000)

	q, err := NewSwapQuote(s, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, int64(100), q.AmountIn.Int64())
	assert.Equal(t, int64(99), q.AmountOut.Int64())

	bare, err := NewSwap(SwapID{Pool: pid("P2"), Direction: ZeroForOne}, tok("A"), tok("B"))
	require.NoError(t, err)
	_, err = NewSwapQuote(bare, big.NewInt(100))
	require.ErrorIs(t, err, ErrMissingReserves)
}
