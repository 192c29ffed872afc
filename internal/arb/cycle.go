package arb

import (
	"fmt"
	"math/big"
	"strings"
)

// Cycle is an ordered sequence of at least two swaps whose tokens chain into
// a closed loop. LogRate is the exact integer sum of the member swaps'
// log-rates; it is never recomputed from floating-point composition.
//
// BestAmountIn, MaxProfit and MaxProfitMargin are nil/zero until Optimize
// finds a profitable input amount.
type Cycle struct {
	Swaps   []Swap
	LogRate int64

	// BestAmountIn is the input amount that maximizes profit, set by
	// Optimize. nil means the cycle has not been (successfully) optimized.
	BestAmountIn *big.Int
	// MaxProfit is the profit realized at BestAmountIn.
	MaxProfit *big.Int
	// MaxProfitMargin is MaxProfit/BestAmountIn as a ratio. Only meaningful
	// when BestAmountIn is set.
	MaxProfitMargin float64
}

// NewCycle validates the swap sequence and builds a cycle. The sequence must
// contain at least two swaps, no duplicate swap id anywhere (the wraparound
// pair included), and every swap's output token must equal its successor's
// input token, the last-to-first pair included.
func NewCycle(swaps []Swap) (*Cycle, error) {
	if len(swaps) < 2 {
		return nil, ErrTooFewSwaps
	}

	seen := make(map[SwapID]struct{}, len(swaps))
	for i, s := range swaps {
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSwap, s.ID)
		}
		seen[s.ID] = struct{}{}

		next := swaps[(i+1)%len(swaps)]
		if s.TokenOut != next.TokenIn {
			return nil, &TokenMismatchError{Index: i, Expected: s.TokenOut, Actual: next.TokenIn}
		}
	}

	var logRate int64
	for _, s := range swaps {
		if lr, ok := s.LogRate(); ok {
			logRate += lr
		}
	}

	return &Cycle{Swaps: swaps, LogRate: logRate}, nil
}

// IsProfitable reports whether the summed log-rate is positive. This is a
// cheap, size-independent profitability proxy based purely on pool price: it
// is necessary but not sufficient for exploitability, since the realized
// amount out degrades with trade size.
func (c *Cycle) IsProfitable() bool {
	return c.LogRate > 0
}

// IsExploitable reports whether Optimize found a profitable input amount.
func (c *Cycle) IsExploitable() bool {
	return c.BestAmountIn != nil
}

// HasAllReserves reports whether every swap in the cycle is reserved.
func (c *Cycle) HasAllReserves() bool {
	for _, s := range c.Swaps {
		if !s.HasReserves() {
			return false
		}
	}
	return true
}

// ContainsPool reports whether any swap in the cycle belongs to the given
// pool.
func (c *Cycle) ContainsPool(id PoolID) bool {
	for _, s := range c.Swaps {
		if s.ID.Pool == id {
			return true
		}
	}
	return false
}

// AmountOut folds amountIn through each swap in sequence and returns the
// final output amount.
func (c *Cycle) AmountOut(amountIn *big.Int) (*big.Int, error) {
	amount := amountIn
	for _, s := range c.Swaps {
		out, err := s.AmountOut(amount)
		if err != nil {
			return nil, err
		}
		amount = out
	}
	return amount, nil
}

// Key returns the cycle's swap-id sequence rotated to start at the
// lexicographically smallest id, rendered as a string. The same geometric
// cycle discovered from either starting token, or by either search strategy,
// maps to the same key.
func (c *Cycle) Key() string {
	n := len(c.Swaps)
	minPos := 0
	for i := 1; i < n; i++ {
		if c.Swaps[i].ID.Cmp(c.Swaps[minPos].ID) < 0 {
			minPos = i
		}
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(c.Swaps[(minPos+i)%n].ID.String())
		b.WriteByte('|')
	}
	return b.String()
}

func (c *Cycle) String() string {
	parts := make([]string, len(c.Swaps))
	for i, s := range c.Swaps {
		parts[i] = s.String()
	}
	return fmt.Sprintf("Cycle(%s)", strings.Join(parts, ", "))
}
