package arb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSwapValidation(t *testing.T) {
	id := SwapID{Pool: pid("P1"), Direction: ZeroForOne}

	_, err := NewSwap(id, tok("A"), tok("A"))
	require.ErrorIs(t, err, ErrSameTokenSwap)

	_, err = NewReservedSwap(id, tok("A"), tok("B"), big.NewInt(100), nil, DefaultFeeBps)
	require.ErrorIs(t, err, ErrInconsistentReserves)

	_, err = NewReservedSwap(id, tok("A"), tok("B"), nil, big.NewInt(100), DefaultFeeBps)
	require.ErrorIs(t, err, ErrInconsistentReserves)

	_, err = NewReservedSwap(id, tok("A"), tok("B"), big.NewInt(0), big.NewInt(100), DefaultFeeBps)
	require.ErrorIs(t, err, ErrInconsistentReserves)

	s, err := NewSwap(id, tok("A"), tok("B"))
	require.NoError(t, err)
	assert.False(t, s.HasReserves())
	_, ok := s.LogRate()
	assert.False(t, ok, "bare swap has no log rate")
	_, err = s.AmountOut(big.NewInt(10))
	require.ErrorIs(t, err, ErrMissingReserves)
}

func TestLogRate(t *testing.T) {
	testCases := []struct {
		reserveIn  int64
		reserveOut int64
		want       int64
	}{
		// Balanced reserves: the rate is exactly the fee discount.
		{100, 100, -1305},
		// log10(2)*1e6 = 301030, less 1305 of fee.
		{100, 200, 299725},
		{200, 100, -302335},
		{300, 100, -478426},
	}

	for _, tc := range testCases {
		s := testSwap(t, "P1", "A", "B", tc.reserveIn, tc.reserveOut)
		lr, ok := s.LogRate()
		require.True(t, ok)
		assert.Equal(t, tc.want, lr, "log rate of %d/%d", tc.reserveIn, tc.reserveOut)
	}
}

func TestLogRateFeeAsymmetry(t *testing.T) {
	// Forward and reverse legs are not exact negations: each leg pays the
	// fee, so their sum is twice the fee offset rather than zero.
	fwd := testSwap(t, "P1", "A", "B", 100, 200)
	rev := testSwap(t, "P1", "B", "A", 200, 100)

	fwdRate, _ := fwd.LogRate()
	revRate, _ := rev.LogRate()
	assert.Equal(t, int64(-2610), fwdRate+revRate)
}

func TestAmountOut(t *testing.T) {
	testCases := []struct {
		reserveIn  int64
		reserveOut int64
		amountIn   int64
		want       int64
	}{
		{1_000_000_000, 1_000_000_000, 100, 99},              // slight slippage
		{1_000_000_000, 1_000_000_000, 10_000_000, 9_871_580}, // deeper slippage
		{1_000, 1_000, 1_000_000_000, 999},                   // output capped by reserve
	}

	for _, tc := range testCases {
		s := testSwap(t, "P1", "A", "B", tc.reserveIn, tc.reserveOut)
		out, err := s.AmountOut(big.NewInt(tc.amountIn))
		require.NoError(t, err)
		assert.Equal(t, tc.want, out.Int64(), "amount out for %d", tc.amountIn)
	}
}

func TestAmountOutMonotonic(t *testing.T) {
	// For fixed reserves, amount out never decreases as amount in grows.
	s := testSwap(t, "P1", "A", "B", 1_000_000, 2_000_000)
	prev := big.NewInt(-1)
	for amountIn := int64(0); amountIn <= 5_000_000; amountIn += 50_000 {
		out, err := s.AmountOut(big.NewInt(amountIn))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, out.Cmp(prev), 0, "amount out decreased at %d", amountIn)
		prev = out
	}
}

func TestReciprocal(t *testing.T) {
	fwd := testSwap(t, "P1", "A", "B", 100, 200)
	rev := testSwap(t, "P1", "B", "A", 200, 100)
	other := testSwap(t, "P2", "A", "B", 100, 200)

	assert.True(t, fwd.Reciprocal(rev))
	assert.True(t, rev.Reciprocal(fwd))
	assert.False(t, fwd.Reciprocal(fwd), "a swap is not its own reciprocal")
	assert.False(t, fwd.Reciprocal(other), "different pools are never reciprocal")
}

func TestPoolSwapDerivation(t *testing.T) {
	p := testPool(t, "P1", "A", "B", big.NewInt(100), big.NewInt(200))

	fwd, err := p.Swap(ZeroForOne)
	require.NoError(t, err)
	assert.Equal(t, tok("A"), fwd.TokenIn)
	assert.Equal(t, tok("B"), fwd.TokenOut)
	in, _ := fwd.ReserveIn()
	assert.Equal(t, int64(100), in.Int64())

	rev, err := p.Swap(OneForZero)
	require.NoError(t, err)
	assert.Equal(t, tok("B"), rev.TokenIn)
	in, _ = rev.ReserveIn()
	assert.Equal(t, int64(200), in.Int64())

	assert.True(t, fwd.Reciprocal(rev))

	// A pool without reserves derives bare swaps.
	bare, err := NewPool(pid("P2"), tok("A"), tok("B"), nil, nil)
	require.NoError(t, err)
	s, err := bare.Swap(ZeroForOne)
	require.NoError(t, err)
	assert.False(t, s.HasReserves())
}

func TestNewPoolValidation(t *testing.T) {
	_, err := NewPool(pid("P1"), tok("A"), tok("A"), nil, nil)
	require.ErrorIs(t, err, ErrSameTokenSwap)

	_, err = NewPool(pid("P1"), tok("A"), tok("B"), big.NewInt(1), nil)
	require.ErrorIs(t, err, ErrInconsistentReserves)

	_, err = NewPool(pid("P1"), tok("A"), tok("B"), nil, big.NewInt(1))
	require.ErrorIs(t, err, ErrInconsistentReserves)

	_, err = NewPool(pid("P1"), tok("A"), tok("B"), big.NewInt(0), big.NewInt(1))
	require.ErrorIs(t, err, ErrInconsistentReserves)
}
