package arb

// edge is one directed traversal of a pool in the token multigraph. Every
// pool contributes two edges, one per direction.
type edge struct {
	from TokenID
	to   TokenID
	pool PoolID
	dir  Direction
}

// poolGraph is the token-adjacency multigraph over a pool snapshot set. It is
// built fresh for every search; there is no incremental maintenance.
type poolGraph struct {
	adj   map[TokenID][]edge
	pools map[PoolID]Pool
}

// buildGraph indexes the pool set, with updated taking precedence over any
// stale snapshot of the same pool, and lays out both directed edges per pool.
func buildGraph(pools []Pool, updated Pool) *poolGraph {
	byID := make(map[PoolID]Pool, len(pools)+1)
	for _, p := range pools {
		byID[p.ID] = p
	}
	byID[updated.ID] = updated

	g := &poolGraph{
		adj:   make(map[TokenID][]edge, len(byID)),
		pools: byID,
	}
	for _, p := range byID {
		g.adj[p.Token0] = append(g.adj[p.Token0], edge{from: p.Token0, to: p.Token1, pool: p.ID, dir: ZeroForOne})
		g.adj[p.Token1] = append(g.adj[p.Token1], edge{from: p.Token1, to: p.Token0, pool: p.ID, dir: OneForZero})
	}
	return g
}

// swap materializes the edge as a Swap using the pool's actual reserves.
func (g *poolGraph) swap(e edge) (Swap, error) {
	return g.pools[e.pool].Swap(e.dir)
}

// tokens returns every distinct token in the graph.
func (g *poolGraph) tokens() []TokenID {
	out := make([]TokenID, 0, len(g.adj))
	for t := range g.adj {
		out = append(out, t)
	}
	return out
}
