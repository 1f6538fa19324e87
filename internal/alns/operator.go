package alns

import "math"

// opEnv is the shared context every operator closes over: the running
// solution, the driver-owned error weights and removal intensity, the
// perturbation exponent and the search's RNG stream. The pointers stay
// valid for the whole run, so the driver can retune weights mid-search
// without re-wiring the operators.
type opEnv struct {
	sol         *Solution
	wCapa       *float64
	wFrame      *float64
	meanRemoval *float64
	noise       float64
	rng         *Rand
}

// destroyFunc removes a set of customers from the running solution and
// returns their ids. repairFunc must place every id it is handed.
type destroyFunc func() []int

type repairFunc func(removed []int)

// removalCount samples how many customers a ranked destroy operator
// takes out this round.
func (e *opEnv) removalCount() int {
	n := e.sol.in.NCustomers
	k := e.rng.NormalInt(*e.meanRemoval, *e.meanRemoval/2)
	if k < 0 {
		k = 0
	}
	if k > n-1 {
		k = n - 1
	}
	return k
}

// perturb skews a rank by U^noise. With noise 0 the ranking is exact;
// larger exponents push the factor toward 0 and shuffle the tail.
func (e *opEnv) perturb(v float64) float64 {
	return v * math.Pow(e.rng.Uni(), e.noise)
}

// takeWorst perturbs the given ranks and returns the k customers with
// the largest results.
func (e *opEnv) takeWorst(rank []int, k int) []int {
	skewed := make([]float64, len(rank))
	for i, r := range rank {
		skewed[i] = e.perturb(float64(r))
	}
	order := sortIndices(skewed)
	return append([]int(nil), order[len(order)-k:]...)
}

// dropCustomers removes the listed customers from their routes via the
// inverted index, then rebuilds the caches wholesale.
func (e *opEnv) dropCustomers(removed []int) {
	for _, c := range removed {
		r := e.sol.RouteOf[c]
		pos := e.sol.customerPos(r, c)
		e.sol.Routes[r] = removeAt(e.sol.Routes[r], pos)
	}
	e.sol.EvaluateFull(*e.wCapa, *e.wFrame)
}

// randomDestroy removes each customer independently with probability
// meanRemoval/nCustomers, by rejection against a uniform integer draw.
func randomDestroy(e *opEnv) []int {
	var removed []int
	for r, route := range e.sol.Routes {
		kept := route[:0]
		for _, c := range route {
			if float64(e.rng.Number(e.sol.in.NCustomers, 0)) > *e.meanRemoval {
				kept = append(kept, c)
			} else {
				removed = append(removed, c)
			}
		}
		e.sol.Routes[r] = kept
	}
	e.sol.EvaluateFull(*e.wCapa, *e.wFrame)
	return removed
}

// routeDestroy empties one uniformly chosen route.
func routeDestroy(e *opEnv) []int {
	r := e.rng.Number(e.sol.in.NVehicles-1, 0)
	removed := append([]int(nil), e.sol.Routes[r]...)
	e.sol.Routes[r] = e.sol.Routes[r][:0]
	e.sol.EvaluateFull(*e.wCapa, *e.wFrame)
	return removed
}

// demandDestroy removes the customers with the largest (perturbed)
// demand ranks. These are the biggest levers: they slow every leg that
// carries them.
func demandDestroy(e *opEnv, demandRanks []int) []int {
	removed := e.takeWorst(demandRanks, e.removalCount())
	e.dropCustomers(removed)
	return removed
}

// travelTimeDestroy ranks customers by the incoming plus outgoing arc
// time at their current position and removes the worst. The ranking is
// route-dependent, so it is recomputed on every call rather than cached
// on the solution.
func travelTimeDestroy(e *opEnv) []int {
	in := e.sol.in
	travel := make([]float64, in.NCustomers)

	for _, route := range e.sol.Routes {
		prev := -1
		for _, c := range route {
			leg := in.TimeTensor[e.sol.LoadLevel[c]][prev+1][c+1]
			travel[c] += leg
			if prev >= 0 {
				travel[prev] += leg
			}
			prev = c
		}
		if prev >= 0 {
			travel[prev] += in.TimeTensor[0][prev+1][0]
		}
	}

	removed := e.takeWorst(ranks(travel), e.removalCount())
	e.dropCustomers(removed)
	return removed
}

// nodePairDestroy ranks customers by the historical potential of the
// arcs they sit on: the matrix stores the best driving time ever seen
// with that arc in use, so large values mark arcs that never appeared
// in a good solution.
func nodePairDestroy(e *opEnv, potential [][]float64) []int {
	in := e.sol.in
	perf := make([]float64, in.NCustomers)

	for _, route := range e.sol.Routes {
		prev := -1
		for _, c := range route {
			p := potential[prev+1][c+1]
			perf[c] += p
			if prev >= 0 {
				perf[prev] += p
			}
			prev = c
		}
		if prev >= 0 {
			perf[prev] += potential[prev+1][0]
		}
	}

	removed := e.takeWorst(ranks(perf), e.removalCount())
	e.dropCustomers(removed)
	return removed
}

// worstDestroy is the Ropke/Pisinger worst removal: repeatedly take out
// the customer whose removal improves the quality the most (perturbed),
// re-scoring only the route it left.
func worstDestroy(e *opEnv) []int {
	sol := e.sol
	k := e.removalCount()
	removed := make([]int, 0, k)

	// gains[r][pos] is the perturbed quality gain of removing the
	// customer at that position.
	gains := make([][]float64, len(sol.Routes))
	score := func(r int) {
		route := sol.Routes[r]
		gains[r] = gains[r][:0]
		for pos := range route {
			after := evaluateRemovalPosition(e, r, pos)
			gains[r] = append(gains[r], e.perturb(sol.Quality-after))
		}
	}
	for r := range sol.Routes {
		score(r)
	}

	for len(removed) < k {
		bestR, bestPos := -1, -1
		bestGain := -math.MaxFloat64
		for r := range gains {
			for pos, g := range gains[r] {
				if g > bestGain {
					bestGain = g
					bestR, bestPos = r, pos
				}
			}
		}
		if bestR < 0 {
			break // nothing left to remove
		}

		c := sol.Routes[bestR][bestPos]
		sol.Routes[bestR] = removeAt(sol.Routes[bestR], bestPos)
		// removal only sheds load, it cannot trip the pseudo capacity
		_ = sol.EvaluateChange(bestR, bestPos-1, *e.wCapa, *e.wFrame)
		removed = append(removed, c)

		score(bestR)
	}
	return removed
}

// shawWeights is one preset of the relatedness measure.
type shawWeights struct {
	distance float64
	window   float64
	demand   float64
	vehicle  float64
}

// shawDestroy removes a cluster of mutually related customers: seed one
// at random, then repeatedly pull the candidate most related to a
// random member of the removed set. Low scores mean high relatedness.
func shawDestroy(e *opEnv, w shawWeights) []int {
	sol := e.sol
	in := sol.in

	k := e.removalCount()
	candidates := intRange(in.NCustomers)

	seed := e.rng.Number(in.NCustomers-1, 0)
	removed := make([]int, 0, k+1)
	removed = append(removed, seed)
	candidates = removeAt(candidates, seed)

	for i := 1; i < k; i++ {
		q := removed[e.rng.Number(i-1, 0)]

		bestPos := -1
		bestScore := math.MaxFloat64
		for pos, cand := range candidates {
			score := w.distance*in.NormDistance.At(q+1, cand+1) +
				w.window*in.NormStartWindow.At(q, cand) +
				w.window*in.NormEndWindow.At(q, cand) +
				w.demand*in.NormDemand.At(q, cand)
			if sol.RouteOf[cand] == sol.RouteOf[q] {
				score += w.vehicle
			}
			score *= math.Pow(e.rng.Uni(), e.noise)

			if score < bestScore {
				bestScore = score
				bestPos = pos
			}
		}

		removed = append(removed, candidates[bestPos])
		candidates = removeAt(candidates, bestPos)
	}

	e.dropCustomers(removed)
	return removed
}
