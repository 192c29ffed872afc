package arb

import (
	"fmt"
	"math/big"
)

// OptimizerConfig bounds the binary search that Optimize runs over the input
// amount. The zero value is not usable; start from DefaultOptimizerConfig.
type OptimizerConfig struct {
	// Precision is the interval width below which the search stops.
	Precision *big.Int
	// ProbeDelta is the increment used to probe the local slope of the
	// profit curve. Too small a delta stalls the search on flat regions
	// where f(x+dx) == f(x).
	ProbeDelta *big.Int
	// MaxIterations caps the total number of probes. Hitting the cap aborts
	// the optimization without setting a best amount.
	MaxIterations int
}

// DefaultOptimizerConfig mirrors the tuning the bot runs in production.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Precision:     big.NewInt(1000),
		ProbeDelta:    big.NewInt(1000),
		MaxIterations: 100,
	}
}

// Optimize binary-searches the input amount in [0, min(first reserve,
// balanceCap)] for the maximum realized profit. On success it sets
// BestAmountIn, MaxProfit and MaxProfitMargin; a cycle whose log-rate is not
// positive, or for which no probed amount turns a profit, is left untouched.
//
// The profit curve composed over multiple AMM legs is not guaranteed to be
// single-peaked, so the best (amountIn, profit) pair seen across all probes
// is tracked rather than trusting the final interval bound.
//
// Optimize returns ErrNonConvergence when the iteration cap is reached; the
// caller should treat that the same as "not exploitable".
func (c *Cycle) Optimize(balanceCap *big.Int, cfg OptimizerConfig) error {
	if !c.IsProfitable() {
		return nil
	}
	firstReserve, ok := c.Swaps[0].ReserveIn()
	if !ok {
		return fmt.Errorf("optimize: %w", ErrMissingReserves)
	}

	// right is a copy: the search narrows it in place, and the originals are
	// live pool reserves and the caller's balance cap.
	left := new(big.Int)
	right := new(big.Int).Set(bigMin(firstReserve, balanceCap))

	bestAmountIn := new(big.Int)
	bestProfit := new(big.Int)

	// Probe ceiling: stay ProbeDelta below the cap so amountIn+delta is
	// always affordable. Clamped at zero for tiny balances.
	probeCap := new(big.Int).Sub(balanceCap, cfg.ProbeDelta)
	if probeCap.Sign() < 0 {
		probeCap.SetInt64(0)
	}

	count := 0
	interval := new(big.Int)
	for interval.Sub(right, left); interval.Cmp(cfg.Precision) > 0; interval.Sub(right, left) {
		count++
		if count > cfg.MaxIterations {
			return fmt.Errorf("%w after %d iterations", ErrNonConvergence, count-1)
		}

		amountIn := new(big.Int).Add(left, right)
		amountIn.Rsh(amountIn, 1)
		amountIn = bigMin(amountIn, probeCap)
		amountInDelta := new(big.Int).Add(amountIn, cfg.ProbeDelta)

		profit, err := c.profitAt(amountIn)
		if err != nil {
			return err
		}
		profitDelta, err := c.profitAt(amountInDelta)
		if err != nil {
			return err
		}

		if profitDelta.Cmp(profit) > 0 {
			// Rising profit curve: the peak is to the right.
			left.Set(amountIn)
		} else {
			right.Set(amountIn)
		}

		if profit.Cmp(bestProfit) > 0 {
			bestProfit.Set(profit)
			bestAmountIn.Set(amountIn)
		}
		if profitDelta.Cmp(bestProfit) > 0 {
			bestProfit.Set(profitDelta)
			bestAmountIn.Set(amountInDelta)
		}
	}

	if bestProfit.Sign() > 0 {
		c.BestAmountIn = bestAmountIn
		c.MaxProfit = bestProfit
		c.MaxProfitMargin = bigRatio(bestProfit, bestAmountIn)
	}
	return nil
}

// profitAt is amountOut(x) - x, saturating at zero: an unprofitable probe
// yields zero profit rather than a negative value.
func (c *Cycle) profitAt(amountIn *big.Int) (*big.Int, error) {
	out, err := c.AmountOut(amountIn)
	if err != nil {
		return nil, err
	}
	profit := new(big.Int).Sub(out, amountIn)
	if profit.Sign() < 0 {
		profit.SetInt64(0)
	}
	return profit, nil
}

// bigMin selects the smaller operand. It does not copy; callers that mutate
// the result must copy it first.
func bigMin(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// bigRatio returns num/den as a float64 ratio.
func bigRatio(num, den *big.Int) float64 {
	if den.Sign() == 0 {
		return 0
	}
	r, _ := new(big.Float).Quo(new(big.Float).SetInt(num), new(big.Float).SetInt(den)).Float64()
	return r
}
