package arb

// SearchStrategy selects which cycle-enumeration algorithm FindCycles runs.
// The two strategies are interchangeable implementations of the same
// capability; Both runs them and merges through deduplication.
type SearchStrategy uint8

const (
	// StrategyBoth runs DFS and Bellman-Ford and merges their candidates.
	StrategyBoth SearchStrategy = iota
	// StrategyDFS enumerates bounded closed walks by depth-first search.
	StrategyDFS
	// StrategyBellmanFord detects negative-weight cycles by relaxation.
	StrategyBellmanFord
)

func (s SearchStrategy) String() string {
	switch s {
	case StrategyDFS:
		return "dfs"
	case StrategyBellmanFord:
		return "bellman-ford"
	default:
		return "both"
	}
}

// SearchConfig bounds the cycle search.
type SearchConfig struct {
	// MaxHops caps the walk length of the DFS strategy.
	MaxHops int
	// Strategy selects the enumeration algorithm.
	Strategy SearchStrategy
}

// DefaultSearchConfig mirrors the production tuning: three hops, both
// strategies merged.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxHops:  3,
		Strategy: StrategyBoth,
	}
}

// FindCycles returns every profitable, fully-reserved, deduplicated cycle
// through the updated pool, derived from the full pool set plus the one
// changed snapshot. Each call re-derives from scratch; nothing is cached
// between calls.
//
// A returned cycle always (a) contains the updated pool's id among its swaps,
// (b) has reserves on every swap, and (c) has a positive summed log-rate.
// The same geometric cycle, however discovered, appears exactly once: the
// swap-id sequence is rotated to its lexicographically smallest id and used
// as the dedup key.
func FindCycles(pools []Pool, updated Pool, cfg SearchConfig) []*Cycle {
	g := buildGraph(pools, updated)

	seen := make(map[string]struct{})
	var result []*Cycle
	collect := func(c *Cycle) {
		if !c.ContainsPool(updated.ID) || !c.HasAllReserves() || !c.IsProfitable() {
			return
		}
		key := c.Key()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		result = append(result, c)
	}

	if cfg.Strategy == StrategyBoth || cfg.Strategy == StrategyDFS {
		g.dfsCycles(updated, cfg.MaxHops, collect)
	}
	if cfg.Strategy == StrategyBoth || cfg.Strategy == StrategyBellmanFord {
		g.bellmanFordCycles(updated, collect)
	}
	return result
}
