package arb

import (
	"fmt"
	"math"
	"math/big"
)

// SwapQuote is a concrete simulation of one swap for one input amount.
type SwapQuote struct {
	Swap      Swap
	AmountIn  *big.Int
	AmountOut *big.Int
}

// NewSwapQuote prices amountIn through the swap's constant-product curve.
func NewSwapQuote(swap Swap, amountIn *big.Int) (SwapQuote, error) {
	out, err := swap.AmountOut(amountIn)
	if err != nil {
		return SwapQuote{}, err
	}
	return SwapQuote{Swap: swap, AmountIn: amountIn, AmountOut: out}, nil
}

func (q SwapQuote) String() string {
	return fmt.Sprintf("SwapQuote(%s, %s -> %s)", q.Swap.ID, q.AmountIn, q.AmountOut)
}

// CycleQuote simulates executing an entire cycle for one input amount: one
// SwapQuote per leg, each leg's output feeding the next leg's input.
type CycleQuote struct {
	quotes []SwapQuote
}

// NewCycleQuote folds amountIn through every swap of the cycle.
func NewCycleQuote(cycle *Cycle, amountIn *big.Int) (CycleQuote, error) {
	quotes := make([]SwapQuote, 0, len(cycle.Swaps))
	amount := amountIn
	for _, s := range cycle.Swaps {
		q, err := NewSwapQuote(s, amount)
		if err != nil {
			return CycleQuote{}, err
		}
		quotes = append(quotes, q)
		amount = q.AmountOut
	}
	return CycleQuote{quotes: quotes}, nil
}

// SwapQuotes returns the per-leg quotes in execution order.
func (q CycleQuote) SwapQuotes() []SwapQuote {
	return q.quotes
}

// AmountIn is the amount fed into the first leg.
func (q CycleQuote) AmountIn() *big.Int {
	return q.quotes[0].AmountIn
}

// AmountOut is the amount produced by the last leg.
func (q CycleQuote) AmountOut() *big.Int {
	return q.quotes[len(q.quotes)-1].AmountOut
}

// Profit is AmountOut - AmountIn as a signed value; a losing cycle quote has
// negative profit, unlike per-leg amounts which floor at zero.
func (q CycleQuote) Profit() *big.Int {
	return new(big.Int).Sub(q.AmountOut(), q.AmountIn())
}

// IsProfitable reports whether the realized profit is strictly positive.
func (q CycleQuote) IsProfitable() bool {
	return q.Profit().Sign() > 0
}

// ProfitMargin returns the profit margin in basis points (10000 = 100%),
// carrying the sign of the profit and saturating at the int32 range. A zero
// input amount yields zero.
func (q CycleQuote) ProfitMargin() int32 {
	amountIn := q.AmountIn()
	if amountIn.Sign() == 0 {
		return 0
	}
	profit := q.Profit()

	margin := new(big.Int).Abs(profit)
	margin.Mul(margin, big.NewInt(feeBasisPoints))
	margin.Div(margin, amountIn)

	result := int32(math.MaxInt32)
	if margin.IsInt64() && margin.Int64() <= math.MaxInt32 {
		result = int32(margin.Int64())
	}
	if profit.Sign() < 0 {
		return -result
	}
	return result
}
