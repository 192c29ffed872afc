package arb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCycleTooFewSwaps(t *testing.T) {
	_, err := NewCycle(nil)
	require.ErrorIs(t, err, ErrTooFewSwaps)

	_, err = NewCycle([]Swap{testSwap(t, "P1", "A", "B", 100, 200)})
	require.ErrorIs(t, err, ErrTooFewSwaps)
}

func TestNewCycleDuplicateSwap(t *testing.T) {
	a2b := testSwap(t, "P1", "A", "B", 100, 200)
	b2a := testSwap(t, "P2", "B", "A", 300, 100)

	_, err := NewCycle([]Swap{a2b, b2a, a2b, b2a})
	require.ErrorIs(t, err, ErrDuplicateSwap)
}

func TestNewCycleTokenMismatch(t *testing.T) {
	swaps := []Swap{
		testSwap(t, "P1", "A", "B", 100, 200),
		testSwap(t, "P2", "C", "A", 200, 100),
	}
	_, err := NewCycle(swaps)

	var mismatch *TokenMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 0, mismatch.Index)
	assert.Equal(t, tok("B"), mismatch.Expected)
	assert.Equal(t, tok("C"), mismatch.Actual)
}

func TestNewCycleWraparoundMismatch(t *testing.T) {
	// The chain holds pairwise but does not close: the last swap ends at D,
	// not back at A.
	swaps := []Swap{
		testSwap(t, "P1", "A", "B", 100, 200),
		testSwap(t, "P2", "B", "D", 300, 100),
	}
	_, err := NewCycle(swaps)

	var mismatch *TokenMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Index)
	assert.Equal(t, tok("D"), mismatch.Expected)
	assert.Equal(t, tok("A"), mismatch.Actual)
}

func TestCycleLogRateIsExactSum(t *testing.T) {
	s1 := testSwap(t, "P1", "A", "B", 100, 200)
	s2 := testSwap(t, "P2", "B", "A", 300, 100)

	lr1, _ := s1.LogRate()
	lr2, _ := s2.LogRate()
	assert.Equal(t, int64(299725), lr1)
	assert.Equal(t, int64(-478426), lr2)

	c, err := NewCycle([]Swap{s1, s2})
	require.NoError(t, err)
	assert.Equal(t, lr1+lr2, c.LogRate)
	assert.False(t, c.IsProfitable())
}

func TestCycleAmountOut(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200}, // ~2x rate
		swapSpec{"P2", "B", "A", 300, 300}, // ~1x rate
	)

	testCases := []struct {
		amountIn int64
		want     int64
	}{
		{10, 16}, // +6
		{20, 29}, // +9
		{25, 34}, // +9, the peak region
		{30, 39}, // +9
		{40, 47}, // +7
		{50, 53}, // +3
		{60, 59}, // -1
	}
	for _, tc := range testCases {
		out, err := c.AmountOut(big.NewInt(tc.amountIn))
		require.NoError(t, err)
		assert.Equal(t, tc.want, out.Int64(), "amount out for %d", tc.amountIn)
	}
}

func TestCycleContainsPool(t *testing.T) {
	c := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P2", "B", "A", 300, 300},
	)
	assert.True(t, c.ContainsPool(pid("P1")))
	assert.True(t, c.ContainsPool(pid("P2")))
	assert.False(t, c.ContainsPool(pid("P9")))
}

func TestCanonicalKeyRotationInvariant(t *testing.T) {
	// The same geometric cycle entered at different points canonicalizes to
	// the same key.
	a2b := testSwap(t, "P1", "A", "B", 100, 200)
	b2c := testSwap(t, "P2", "B", "C", 100, 100)
	c2a := testSwap(t, "P3", "C", "A", 100, 100)

	c1, err := NewCycle([]Swap{a2b, b2c, c2a})
	require.NoError(t, err)
	c2, err := NewCycle([]Swap{b2c, c2a, a2b})
	require.NoError(t, err)
	c3, err := NewCycle([]Swap{c2a, a2b, b2c})
	require.NoError(t, err)

	assert.Equal(t, c1.Key(), c2.Key())
	assert.Equal(t, c1.Key(), c3.Key())

	// A genuinely different cycle gets a different key.
	other := testCycle(t,
		swapSpec{"P1", "A", "B", 100, 200},
		swapSpec{"P4", "B", "A", 300, 300},
	)
	assert.NotEqual(t, c1.Key(), other.Key())
}
