package alns

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomDestroyReturnsRemoved(t *testing.T) {
	in := unitSquareInstance(t)
	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 7)
	*env.meanRemoval = float64(in.NCustomers) // remove everything

	removed := randomDestroy(env)
	require.Len(t, removed, 4)
	for _, route := range env.sol.Routes {
		require.Empty(t, route)
	}
	requireCachesAgree(t, env.sol, 1, 1)
}

func TestRouteDestroyEmptiesOneRoute(t *testing.T) {
	in := unitSquareInstance(t)
	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 3)

	removed := routeDestroy(env)
	require.Len(t, removed, 2)

	empty := 0
	for _, route := range env.sol.Routes {
		if len(route) == 0 {
			empty++
		}
	}
	require.Equal(t, 1, empty)
	requireCachesAgree(t, env.sol, 1, 1)
}

func TestDemandDestroyPrefersBigDemand(t *testing.T) {
	// customer 2 has far the largest demand; with zero noise it must be
	// in every non-empty removal
	points := [][2]float64{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	in := vrptwInstance(t, 2,
		[]float64{1, 1, 50}, []float64{0, 0, 0},
		[]float64{0, 0, 0}, []float64{999, 999, 999},
		euclidTimes(points), 100)

	env := testEnv(in, [][]int{{0, 1}, {2}}, 5)
	*env.meanRemoval = 1

	demandRanks := ranks(in.Demand)
	for i := 0; i < 10; i++ {
		removed := demandDestroy(env, demandRanks)
		if len(removed) == 0 {
			continue
		}
		require.Contains(t, removed, 2)
		basicGreedy(env, removed)
		requirePermutation(t, env.sol)
	}
}

func TestWorstDestroyRemovesCostliest(t *testing.T) {
	// customer 2 sits far off the corridor; removing it gains the most
	points := [][2]float64{{0, 0}, {1, 0}, {2, 0}, {2, 50}}
	in := vrptwInstance(t, 1,
		[]float64{1, 1, 1}, []float64{0, 0, 0},
		[]float64{0, 0, 0}, []float64{999, 999, 999},
		euclidTimes(points), 100)

	env := testEnv(in, [][]int{{0, 1, 2}}, 11)
	*env.meanRemoval = 1

	seenOutlier := false
	for i := 0; i < 10 && !seenOutlier; i++ {
		removed := worstDestroy(env)
		for _, c := range removed {
			if c == 2 {
				seenOutlier = true
			}
		}
		requireCachesAgree(t, env.sol, 1, 1)
		basicGreedy(env, removed)
		requirePermutation(t, env.sol)
	}
	require.True(t, seenOutlier, "worst removal never picked the outlier")
}

func TestShawDestroyRemovesRelatedCluster(t *testing.T) {
	// two tight clusters far apart: a distance-only shaw removal of two
	// customers must take both from the same cluster
	points := [][2]float64{{0, 0}, {10, 0}, {10.1, 0}, {-10, 0}, {-10.1, 0}}
	in := vrptwInstance(t, 2,
		[]float64{1, 1, 1, 1}, []float64{0, 0, 0, 0},
		[]float64{0, 0, 0, 0}, []float64{999, 999, 999, 999},
		euclidTimes(points), 100)

	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 23)
	*env.meanRemoval = 2

	cluster := map[int]int{0: 0, 1: 0, 2: 1, 3: 1}
	for i := 0; i < 10; i++ {
		removed := shawDestroy(env, shawWeights{distance: 1})
		if len(removed) >= 2 {
			require.Equal(t, cluster[removed[0]], cluster[removed[1]],
				"shaw removed across clusters: %v", removed)
		}
		randomGreedy(env, removed)
		requirePermutation(t, env.sol)
	}
}

func TestTravelTimeDestroyKeepsPermutation(t *testing.T) {
	in := unitSquareInstance(t)
	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 17)
	*env.meanRemoval = 2

	for i := 0; i < 20; i++ {
		removed := travelTimeDestroy(env)
		kRegret(env, 2, removed)
		requirePermutation(t, env.sol)
		requireCachesAgree(t, env.sol, 1, 1)
	}
}

func TestNodePairDestroyUsesPotential(t *testing.T) {
	in := unitSquareInstance(t)
	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 29)
	*env.meanRemoval = 1

	potential := make([][]float64, in.NNodes)
	for i := range potential {
		potential[i] = make([]float64, in.NNodes)
	}
	// arcs touching customer 3 only ever appeared in terrible solutions
	for i := range potential {
		potential[i][4] = 1e6
		potential[4][i] = 1e6
	}

	var removed []int
	for len(removed) == 0 {
		removed = nodePairDestroy(env, potential)
	}
	require.Contains(t, removed, 3)
	basicGreedy(env, removed)
	requirePermutation(t, env.sol)
}

func TestDestroyRepairRoundTripsKeepInvariants(t *testing.T) {
	in := unitSquareInstance(t)
	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 41)
	*env.meanRemoval = 2

	destroys := []destroyFunc{
		func() []int { return randomDestroy(env) },
		func() []int { return routeDestroy(env) },
		func() []int { return travelTimeDestroy(env) },
		func() []int { return worstDestroy(env) },
		func() []int { return shawDestroy(env, shawWeights{distance: 9, window: 3, demand: 2, vehicle: 5}) },
	}
	repairs := []repairFunc{
		func(r []int) { basicGreedy(env, r) },
		func(r []int) { randomGreedy(env, r) },
		func(r []int) { deepGreedy(env, r) },
		func(r []int) { kRegret(env, 3, r) },
		func(r []int) { betaHybrid(env, 3, r) },
	}

	for _, destroy := range destroys {
		for _, repair := range repairs {
			removed := destroy()
			repair(removed)
			requirePermutation(t, env.sol)
			requireCachesAgree(t, env.sol, 1, 1)
		}
	}
}

func TestBestInsertionAcceptsOverflowBelowPseudoCapacity(t *testing.T) {
	// once customer 3 is taken out, route 0 carries 20 of 25 and route 1
	// carries 10; pseudo capacity is 10, so probing the demand-10
	// customer into route 0 overflows by 5 without aborting, and a slot
	// is found
	in := unitSquareInstance(t)
	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 2)

	// isolate customer 3
	env.sol.Routes[1] = removeAt(env.sol.Routes[1], 1)
	require.NoError(t, env.sol.EvaluateChange(1, 0, 1, 1))

	ins := bestInsertion(env, 3, -1)
	require.NotEqual(t, math.MaxFloat64, ins.cost)
	insertAt(env, 3, ins)
	requirePermutation(t, env.sol)
}

func TestBetaHybridBlockInsertion(t *testing.T) {
	// a removed pair within beta gets probed as one block
	in := unitSquareInstance(t)
	env := testEnv(in, [][]int{{0, 1}, {2, 3}}, 13)

	env.sol.Routes[0] = env.sol.Routes[0][:0]
	env.sol.EvaluateFull(1, 1)

	betaHybrid(env, 3, []int{0, 1})
	requirePermutation(t, env.sol)
	requireCachesAgree(t, env.sol, 1, 1)
}
