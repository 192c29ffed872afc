package domain

import (
	"math/big"
	"time"

	"github.com/fly-arb/fly/internal/arb"
)

// Opportunity is the persisted record of one detected arbitrage cycle at one
// reserve snapshot. Cycles have no identity across snapshots, so every
// detection gets a fresh row.
type Opportunity struct {
	ID           string
	TriggerPool  arb.PoolID
	Path         []OrderLeg
	LogRate      int64
	BestAmountIn *big.Int
	MaxProfit    *big.Int
	ProfitMargin float64
	BlockNumber  uint64
	Executed     bool
	DetectedAt   time.Time
}

// OpportunityFromCycle flattens an optimized cycle into its storable record.
func OpportunityFromCycle(id string, c *arb.Cycle, trigger arb.PoolID, block uint64, at time.Time) Opportunity {
	legs := make([]OrderLeg, 0, len(c.Swaps))
	for _, s := range c.Swaps {
		legs = append(legs, OrderLeg{
			Pool:      s.ID.Pool,
			Direction: s.ID.Direction.String(),
			TokenIn:   s.TokenIn,
			TokenOut:  s.TokenOut,
		})
	}
	return Opportunity{
		ID:           id,
		TriggerPool:  trigger,
		Path:         legs,
		LogRate:      c.LogRate,
		BestAmountIn: c.BestAmountIn,
		MaxProfit:    c.MaxProfit,
		ProfitMargin: c.MaxProfitMargin,
		BlockNumber:  block,
		DetectedAt:   at,
	}
}
