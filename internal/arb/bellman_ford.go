package arb

import "math"

// bfEdge is a relaxation edge: a reserved swap weighted by its negative
// log-rate. A cycle with positive total log-rate is a negative-weight cycle
// in this transformed graph.
type bfEdge struct {
	from, to int
	weight   int64
	swap     Swap
}

// bellmanFordCycles finds profitable cycles by Bellman-Ford relaxation seeded
// separately from each of the updated pool's two tokens. After relaxation
// converges (or the node-count iteration cap is hit), every node is probed
// for membership in a relaxed cycle by walking predecessor edges until a node
// already on the current walk repeats; the swap sequence is reconstructed
// from that point.
//
// Bare pools carry no log-rate and take no part in relaxation.
func (g *poolGraph) bellmanFordCycles(updated Pool, emit func(*Cycle)) {
	tokens := g.tokens()
	index := make(map[TokenID]int, len(tokens))
	for i, t := range tokens {
		index[t] = i
	}
	n := len(tokens)
	if n == 0 {
		return
	}

	var edges []bfEdge
	for _, adj := range g.adj {
		for _, e := range adj {
			s, err := g.swap(e)
			if err != nil {
				continue
			}
			lr, ok := s.LogRate()
			if !ok {
				continue
			}
			edges = append(edges, bfEdge{
				from:   index[e.from],
				to:     index[e.to],
				weight: -lr,
				swap:   s,
			})
		}
	}

	for _, seed := range []TokenID{updated.Token0, updated.Token1} {
		g.relaxAndProbe(index[seed], n, edges, emit)
	}
}

// unreachable is a large sentinel distance kept well below overflow range so
// that relaxation arithmetic stays safe.
const unreachable = math.MaxInt64 / 2

func (g *poolGraph) relaxAndProbe(source, n int, edges []bfEdge, emit func(*Cycle)) {
	dist := make([]int64, n)
	predEdge := make([]int, n)
	for i := range dist {
		dist[i] = unreachable
		predEdge[i] = -1
	}
	dist[source] = 0

	// Relax at most |V| rounds, stopping early once a full pass changes
	// nothing.
	for range n {
		changed := false
		for i, e := range edges {
			if dist[e.from] == unreachable {
				continue
			}
			if d := dist[e.from] + e.weight; d < dist[e.to] {
				dist[e.to] = d
				predEdge[e.to] = i
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// Probe each reachable node for a predecessor cycle.
	visited := make([]bool, n)
	for u := range n {
		if dist[u] == unreachable || visited[u] {
			continue
		}

		// Walk predecessor edges from u, marking the walk order, until we
		// either fall off the relaxed tree or revisit a node on this walk.
		onWalk := make(map[int]int) // node -> position in walkEdges
		var walkEdges []int
		node := u
		for {
			if visited[node] {
				break
			}
			if pos, ok := onWalk[node]; ok {
				g.emitPredCycle(edges, walkEdges[pos:], emit)
				break
			}
			ei := predEdge[node]
			if ei < 0 {
				break
			}
			onWalk[node] = len(walkEdges)
			walkEdges = append(walkEdges, ei)
			node = edges[ei].from
		}
		for v := range onWalk {
			visited[v] = true
		}
	}
}

// emitPredCycle turns a predecessor-edge walk segment into a Cycle. The walk
// was collected backwards (each edge leads to its predecessor), so the
// sequence is reversed to obtain execution order.
func (g *poolGraph) emitPredCycle(edges []bfEdge, walkEdges []int, emit func(*Cycle)) {
	swaps := make([]Swap, 0, len(walkEdges))
	for i := len(walkEdges) - 1; i >= 0; i-- {
		swaps = append(swaps, edges[walkEdges[i]].swap)
	}
	c, err := NewCycle(swaps)
	if err != nil {
		return
	}
	emit(c)
}
