package arb

// dfsCycles enumerates closed walks through the updated pool by exhaustive
// depth-first search, bounded by maxHops. The walk starts from each of the
// updated pool's two tokens in turn; a pool id is never revisited within one
// walk, which also rules out using a pool's two reciprocal legs back-to-back.
//
// Candidates whose swap or cycle construction fails (missing reserves, broken
// chain) are skipped individually; a bad candidate never aborts the search.
func (g *poolGraph) dfsCycles(updated Pool, maxHops int, emit func(*Cycle)) {
	for _, start := range []TokenID{updated.Token0, updated.Token1} {
		w := &dfsWalk{
			graph:   g,
			start:   start,
			visited: make(map[PoolID]struct{}),
			maxHops: maxHops,
			emit:    emit,
		}
		w.walk(start, 0)
	}
}

type dfsWalk struct {
	graph   *poolGraph
	start   TokenID
	visited map[PoolID]struct{}
	path    []edge
	maxHops int
	emit    func(*Cycle)
}

func (w *dfsWalk) walk(current TokenID, depth int) {
	if depth > 0 && current == w.start {
		w.emitCycle()
		return
	}
	if depth >= w.maxHops {
		return
	}

	for _, e := range w.graph.adj[current] {
		if _, seen := w.visited[e.pool]; seen {
			continue
		}
		w.visited[e.pool] = struct{}{}
		w.path = append(w.path, e)

		w.walk(e.to, depth+1)

		w.path = w.path[:len(w.path)-1]
		delete(w.visited, e.pool)
	}
}

// emitCycle materializes the current path into a Cycle and hands it to the
// sink. Construction failures drop the candidate silently.
func (w *dfsWalk) emitCycle() {
	swaps := make([]Swap, 0, len(w.path))
	for _, e := range w.path {
		s, err := w.graph.swap(e)
		if err != nil {
			return
		}
		swaps = append(swaps, s)
	}
	c, err := NewCycle(swaps)
	if err != nil {
		return
	}
	w.emit(c)
}
