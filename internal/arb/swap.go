package arb

import (
	"fmt"
	"math"
	"math/big"
)

// LogRateScale is the fixed-point scale for log-rates: one unit is 1e-6 of a
// base-10 decade. Representing a pool's exchange rate as a scaled integer
// logarithm turns the multiplicative composition of rates around a cycle into
// an exact integer sum.
const LogRateScale = 1_000_000

// feeBasisPoints is 100% expressed in basis points.
const feeBasisPoints = 10_000

// Direction distinguishes the two directed legs of a pool.
type Direction uint8

const (
	// ZeroForOne swaps token0 into token1.
	ZeroForOne Direction = iota
	// OneForZero swaps token1 into token0.
	OneForZero
)

func (d Direction) String() string {
	if d == ZeroForOne {
		return "fwd"
	}
	return "rev"
}

// SwapID uniquely identifies one directed leg of a pool.
type SwapID struct {
	Pool      PoolID
	Direction Direction
}

// Cmp orders swap ids by pool bytes, then direction. The order is total and
// is what cycle canonicalization rotates against.
func (id SwapID) Cmp(other SwapID) int {
	if c := id.Pool.Cmp(other.Pool); c != 0 {
		return c
	}
	return int(id.Direction) - int(other.Direction)
}

func (id SwapID) String() string {
	return fmt.Sprintf("%s-%s", id.Pool, id.Direction)
}

// swapReserves is the reserve knowledge attached to a reserved swap. Its
// presence is the single source of truth for whether LogRate and AmountOut
// are computable; a bare swap simply has none.
type swapReserves struct {
	in      *big.Int
	out     *big.Int
	feeBps  uint16
	logRate int64
}

// Swap is one directed leg of a pool: a conversion of TokenIn into TokenOut.
// A swap is either reserved (carries reserve amounts and a derived log-rate)
// or bare (topology only). The log-rate is always derived at construction,
// never set independently.
type Swap struct {
	ID       SwapID
	TokenIn  TokenID
	TokenOut TokenID

	reserves *swapReserves
}

// NewSwap builds a bare swap with no reserve knowledge.
func NewSwap(id SwapID, tokenIn, tokenOut TokenID) (Swap, error) {
	if tokenIn == tokenOut {
		return Swap{}, fmt.Errorf("swap %s: %w", id, ErrSameTokenSwap)
	}
	return Swap{ID: id, TokenIn: tokenIn, TokenOut: tokenOut}, nil
}

// NewReservedSwap builds a swap with known reserves and a pool fee in basis
// points. Both reserves must be positive.
func NewReservedSwap(id SwapID, tokenIn, tokenOut TokenID, reserveIn, reserveOut *big.Int, feeBps uint16) (Swap, error) {
	s, err := NewSwap(id, tokenIn, tokenOut)
	if err != nil {
		return Swap{}, err
	}
	if reserveIn == nil || reserveOut == nil {
		return Swap{}, fmt.Errorf("swap %s: %w: exactly one reserve supplied", id, ErrInconsistentReserves)
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return Swap{}, fmt.Errorf("swap %s: %w: reserves must be positive", id, ErrInconsistentReserves)
	}
	if feeBps >= feeBasisPoints {
		return Swap{}, fmt.Errorf("swap %s: %w: fee %d bps", id, ErrInconsistentReserves, feeBps)
	}
	s.reserves = &swapReserves{
		in:      reserveIn,
		out:     reserveOut,
		feeBps:  feeBps,
		logRate: logRate(reserveIn, reserveOut, feeBps),
	}
	return s, nil
}

// logRate computes the fee-adjusted fixed-point log of the exchange rate:
// round(LogRateScale * (log10(out) - log10(in) + log10(1 - fee))).
func logRate(reserveIn, reserveOut *big.Int, feeBps uint16) int64 {
	in, _ := new(big.Float).SetInt(reserveIn).Float64()
	out, _ := new(big.Float).SetInt(reserveOut).Float64()
	fee := math.Log10(1 - float64(feeBps)/feeBasisPoints)
	return int64(math.Round((math.Log10(out) - math.Log10(in) + fee) * LogRateScale))
}

// HasReserves reports whether the swap is reserved.
func (s Swap) HasReserves() bool {
	return s.reserves != nil
}

// LogRate returns the fee-adjusted fixed-point log exchange rate. The second
// return is false for a bare swap.
func (s Swap) LogRate() (int64, bool) {
	if s.reserves == nil {
		return 0, false
	}
	return s.reserves.logRate, true
}

// ReserveIn returns the input-side reserve, or false for a bare swap.
func (s Swap) ReserveIn() (*big.Int, bool) {
	if s.reserves == nil {
		return nil, false
	}
	return s.reserves.in, true
}

// ReserveOut returns the output-side reserve, or false for a bare swap.
func (s Swap) ReserveOut() (*big.Int, bool) {
	if s.reserves == nil {
		return nil, false
	}
	return s.reserves.out, true
}

// AmountOut computes the constant-product-with-fee output for the given
// input: floor(in*(10000-fee)*rOut / (rIn*10000 + in*(10000-fee))).
//
// The numerator is multiplied out fully before the single final division;
// dividing earlier would compound truncation across legs. big.Int keeps the
// intermediate product exact even for two 256-bit operands.
func (s Swap) AmountOut(amountIn *big.Int) (*big.Int, error) {
	if s.reserves == nil {
		return nil, fmt.Errorf("swap %s: %w", s.ID, ErrMissingReserves)
	}
	if amountIn == nil || amountIn.Sign() < 0 {
		return nil, fmt.Errorf("swap %s: negative amount in", s.ID)
	}

	feeMul := big.NewInt(int64(feeBasisPoints - s.reserves.feeBps))
	amountInWithFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(amountInWithFee, s.reserves.out)
	denominator := new(big.Int).Mul(s.reserves.in, big.NewInt(feeBasisPoints))
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}

// Reciprocal reports whether other is the opposite leg of the same pool. Two
// reciprocal swaps back-to-back form a trivial self-cancelling loop and must
// never be adjacent in a cycle.
func (s Swap) Reciprocal(other Swap) bool {
	return s.ID.Pool == other.ID.Pool && s.ID.Direction != other.ID.Direction
}

func (s Swap) String() string {
	if s.reserves != nil {
		return fmt.Sprintf("Swap(%s, %s %s / %s %s @ %d)",
			s.ID, s.reserves.in, s.TokenIn, s.reserves.out, s.TokenOut, s.reserves.logRate)
	}
	return fmt.Sprintf("Swap(%s, %s / %s, no reserves)", s.ID, s.TokenIn, s.TokenOut)
}
