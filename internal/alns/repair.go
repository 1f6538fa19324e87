package alns

import (
	"fmt"
	"math"
	"sort"
)

// insertion is a candidate placement: quality delta (or regret), route
// and position.
type insertion struct {
	cost float64
	r    int
	pos  int
}

// evaluateInsertionPosition probes customer c at position pos of route
// r: insert, re-evaluate, read the quality, then take the probe out
// again and re-evaluate back. Cheaper than copying the solution because
// only the touched route is walked. Returns ErrInfeasible (with the
// probe already reverted) when the route trips the pseudo capacity.
func evaluateInsertionPosition(e *opEnv, r, c, pos int) (float64, error) {
	sol := e.sol
	route := sol.Routes[r]
	sol.Routes[r] = append(route[:pos], append([]int{c}, route[pos:]...)...)
	sol.RouteOf[c] = r

	if err := sol.EvaluateChange(r, pos, *e.wCapa, *e.wFrame); err != nil {
		sol.Routes[r] = removeAt(sol.Routes[r], pos)
		_ = sol.EvaluateChange(r, pos-1, *e.wCapa, *e.wFrame)
		return 0, err
	}

	cost := sol.Quality

	sol.Routes[r] = removeAt(sol.Routes[r], pos)
	_ = sol.EvaluateChange(r, pos-1, *e.wCapa, *e.wFrame)
	return cost, nil
}

// evaluateInsertionChain probes a whole block of customers at pos.
func evaluateInsertionChain(e *opEnv, r int, block []int, pos int) (float64, error) {
	sol := e.sol
	route := sol.Routes[r]
	tail := append([]int(nil), route[pos:]...)
	sol.Routes[r] = append(append(route[:pos], block...), tail...)
	for _, c := range block {
		sol.RouteOf[c] = r
	}

	if err := sol.EvaluateChange(r, pos+len(block)-1, *e.wCapa, *e.wFrame); err != nil {
		sol.Routes[r] = append(sol.Routes[r][:pos], sol.Routes[r][pos+len(block):]...)
		_ = sol.EvaluateChange(r, pos-1, *e.wCapa, *e.wFrame)
		return 0, err
	}

	cost := sol.Quality

	sol.Routes[r] = append(sol.Routes[r][:pos], sol.Routes[r][pos+len(block):]...)
	_ = sol.EvaluateChange(r, pos-1, *e.wCapa, *e.wFrame)
	return cost, nil
}

// evaluateRemovalPosition mirrors the insertion probe for removals:
// remove, read the quality, put the customer back.
func evaluateRemovalPosition(e *opEnv, r, pos int) float64 {
	sol := e.sol
	c := sol.Routes[r][pos]
	sol.Routes[r] = removeAt(sol.Routes[r], pos)
	_ = sol.EvaluateChange(r, pos-1, *e.wCapa, *e.wFrame)

	cost := sol.Quality

	route := sol.Routes[r]
	sol.Routes[r] = append(route[:pos], append([]int{c}, route[pos:]...)...)
	sol.RouteOf[c] = r
	_ = sol.EvaluateChange(r, pos, *e.wCapa, *e.wFrame)
	return cost
}

// bestInsertion scans every position of one route (routeID >= 0) or all
// routes (routeID < 0) for the cheapest placement of c. Once a position
// in a route trips the pseudo capacity, the rest of that route is
// skipped: later positions only add load on top. The returned cost is
// the quality delta; math.MaxFloat64 means no feasible slot.
func bestInsertion(e *opEnv, c, routeID int) insertion {
	start, stop := 0, len(e.sol.Routes)
	if routeID >= 0 {
		start, stop = routeID, routeID+1
	}

	best := insertion{cost: math.MaxFloat64}
	for r := start; r < stop; r++ {
		for pos := 0; pos <= len(e.sol.Routes[r]); pos++ {
			cost, err := evaluateInsertionPosition(e, r, c, pos)
			if err != nil {
				break
			}
			delta := cost - e.sol.Quality
			if delta < best.cost {
				best = insertion{cost: delta, r: r, pos: pos}
			}
		}
	}
	return best
}

// insertAt places c and re-evaluates the touched route. By construction
// the caller probed the slot already, so tripping the pseudo capacity
// here means the caches are corrupt.
func insertAt(e *opEnv, c int, ins insertion) {
	if ins.cost == math.MaxFloat64 {
		panic(fmt.Sprintf("alns: no feasible insertion slot for customer %d", c))
	}
	sol := e.sol
	route := sol.Routes[ins.r]
	sol.Routes[ins.r] = append(route[:ins.pos], append([]int{c}, route[ins.pos:]...)...)
	sol.RouteOf[c] = ins.r
	if err := sol.EvaluateChange(ins.r, ins.pos, *e.wCapa, *e.wFrame); err != nil {
		panic("alns: probed insertion slot became infeasible")
	}
}

// basicGreedy inserts the removed customers in list order, each at its
// globally cheapest position.
func basicGreedy(e *opEnv, removed []int) {
	for _, c := range removed {
		insertAt(e, c, bestInsertion(e, c, -1))
	}
}

// randomGreedy pops the removed customers in random order.
func randomGreedy(e *opEnv, removed []int) {
	for len(removed) > 0 {
		i := e.rng.Number(len(removed)-1, 0)
		c := removed[i]
		insertAt(e, c, bestInsertion(e, c, -1))
		removed = removeAt(removed, i)
	}
}

// deepGreedy keeps a (customer x route) table of best placements,
// always commits the globally cheapest one, and rescans only the column
// of the route that changed.
func deepGreedy(e *opEnv, removed []int) {
	nRoutes := len(e.sol.Routes)

	table := make([][]insertion, len(removed))
	best := insertion{cost: math.MaxFloat64}
	bestIdx := 0
	for i, c := range removed {
		table[i] = make([]insertion, nRoutes)
		for r := 0; r < nRoutes; r++ {
			ins := bestInsertion(e, c, r)
			table[i][r] = ins
			if ins.cost < best.cost {
				best = ins
				bestIdx = i
			}
		}
	}

	for len(removed) > 0 {
		c := removed[bestIdx]
		insertAt(e, c, best)
		changed := best.r

		removed = removeAt(removed, bestIdx)
		table = append(table[:bestIdx], table[bestIdx+1:]...)

		for i, cand := range removed {
			table[i][changed] = bestInsertion(e, cand, changed)
		}

		best = insertion{cost: math.MaxFloat64}
		for i := range removed {
			for r := 0; r < nRoutes; r++ {
				if table[i][r].cost < best.cost {
					best = table[i][r]
					bestIdx = i
				}
			}
		}
	}
}

// kRegret inserts the customer whose best slot is hardest to substitute:
// regret is the summed cost gap between the best placement and the next
// k-1 per-route alternatives. A customer with few feasible routes gets a
// huge regret and is placed first.
func kRegret(e *opEnv, k int, removed []int) {
	nRoutes := len(e.sol.Routes)

	table := make([][]insertion, len(removed))
	regretOf := func(i int) insertion {
		row := append([]insertion(nil), table[i]...)
		sort.Slice(row, func(a, b int) bool { return row[a].cost < row[b].cost })
		m := k
		if m > len(row) {
			m = len(row)
		}
		regret := 0.0
		for j := 1; j < m; j++ {
			regret += row[j].cost - row[j-1].cost
		}
		return insertion{cost: regret, r: row[0].r, pos: row[0].pos}
	}

	best := insertion{cost: -math.MaxFloat64}
	bestIdx := 0
	for i, c := range removed {
		table[i] = make([]insertion, nRoutes)
		for r := 0; r < nRoutes; r++ {
			table[i][r] = bestInsertion(e, c, r)
		}
		if reg := regretOf(i); reg.cost > best.cost {
			best = reg
			bestIdx = i
		}
	}

	for len(removed) > 0 {
		c := removed[bestIdx]
		insertAt(e, c, insertion{r: best.r, pos: best.pos})
		changed := best.r

		removed = removeAt(removed, bestIdx)
		table = append(table[:bestIdx], table[bestIdx+1:]...)

		best = insertion{cost: -math.MaxFloat64}
		for i, cand := range removed {
			table[i][changed] = bestInsertion(e, cand, changed)
			if reg := regretOf(i); reg.cost > best.cost {
				best = reg
				bestIdx = i
			}
		}
	}
}

// betaHybrid tries to re-insert a small removed set as one contiguous
// block (reversed half the time) at the best feasible slot in any
// route; when the set is larger than beta, or no block slot exists, it
// degrades to randomGreedy. Note the second case can only arise for
// sets within beta whose every block position trips the pseudo
// capacity.
func betaHybrid(e *opEnv, beta int, removed []int) {
	best := insertion{cost: math.MaxFloat64, r: -1}

	if len(removed) > 0 && len(removed) <= beta {
		if e.rng.Number(1, 0) == 0 {
			for i, j := 0, len(removed)-1; i < j; i, j = i+1, j-1 {
				removed[i], removed[j] = removed[j], removed[i]
			}
		}

		for r := range e.sol.Routes {
			for pos := 0; pos <= len(e.sol.Routes[r]); pos++ {
				cost, err := evaluateInsertionChain(e, r, removed, pos)
				if err != nil {
					break
				}
				if delta := cost - e.sol.Quality; delta < best.cost {
					best = insertion{cost: delta, r: r, pos: pos}
				}
			}
		}

		if best.r >= 0 {
			sol := e.sol
			route := sol.Routes[best.r]
			tail := append([]int(nil), route[best.pos:]...)
			sol.Routes[best.r] = append(append(route[:best.pos], removed...), tail...)
			for _, c := range removed {
				sol.RouteOf[c] = best.r
			}
			_ = sol.EvaluateChange(best.r, best.pos+len(removed)-1, *e.wCapa, *e.wFrame)
		}
	}

	if best.r < 0 || len(removed) > beta {
		randomGreedy(e, removed)
	}
}
