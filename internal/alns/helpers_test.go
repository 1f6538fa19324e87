package alns

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// euclidTimes builds a symmetric travel time matrix from 2-D points;
// point 0 is the depot.
func euclidTimes(points [][2]float64) [][]float64 {
	n := len(points)
	times := make([][]float64, n)
	for i := range times {
		times[i] = make([]float64, n)
		for j := range times[i] {
			dx := points[i][0] - points[j][0]
			dy := points[i][1] - points[j][1]
			times[i][j] = math.Hypot(dx, dy)
		}
	}
	return times
}

// vrptwInstance builds a degenerate (load-independent) instance from a
// single travel time matrix.
func vrptwInstance(t *testing.T, nVehicles int, demand, service, startW, endW []float64, times [][]float64, capacity float64) *Instance {
	t.Helper()
	in, err := NewInstanceVRPTW(Config{
		NVehicles:       nVehicles,
		Demand:          demand,
		ServiceTime:     service,
		StartWindow:     startW,
		EndWindow:       endW,
		VehicleCapacity: capacity,
	}, [][][]float64{times})
	require.NoError(t, err)
	return in
}

// unitSquareInstance is the canonical tiny problem: four customers on
// the corners of a square around the depot, wide windows, capacity for
// exactly two customers per vehicle.
func unitSquareInstance(t *testing.T) *Instance {
	t.Helper()
	points := [][2]float64{{0, 0}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	four := func(v float64) []float64 { return []float64{v, v, v, v} }
	return vrptwInstance(t, 2, four(10), four(1), four(0), four(100), euclidTimes(points), 25)
}

// testEnv wires an opEnv around a fresh solution of in with unit error
// weights.
func testEnv(in *Instance, routes [][]int, seed uint64) *opEnv {
	wCapa, wFrame, meanRemoval := 1.0, 1.0, 2.0
	sol := NewSolutionFromRoutes(in, routes, wCapa, wFrame)
	return &opEnv{
		sol:         sol,
		wCapa:       &wCapa,
		wFrame:      &wFrame,
		meanRemoval: &meanRemoval,
		rng:         NewRand(seed),
	}
}

// requireCachesAgree re-evaluates a deep copy from scratch and compares
// every cache against the incrementally maintained one.
func requireCachesAgree(t *testing.T, sol *Solution, wCapa, wFrame float64) {
	t.Helper()
	fresh := sol.Clone()
	fresh.EvaluateFull(wCapa, wFrame)

	const eps = 1e-9
	require.InDelta(t, fresh.DrivingTime, sol.DrivingTime, eps, "driving time")
	require.InDelta(t, fresh.CapaError, sol.CapaError, eps, "capa error")
	require.InDelta(t, fresh.FrameError, sol.FrameError, eps, "frame error")
	require.InDelta(t, fresh.Quality, sol.Quality, eps, "quality")
	require.Equal(t, fresh.Feasible, sol.Feasible)

	for r := range sol.Routes {
		require.InDelta(t, fresh.RouteDrivingTimes[r], sol.RouteDrivingTimes[r], eps, "route %d driving", r)
		require.InDelta(t, fresh.RouteCapaErrors[r], sol.RouteCapaErrors[r], eps, "route %d capa", r)
		require.InDelta(t, fresh.RouteFrameErrors[r], sol.RouteFrameErrors[r], eps, "route %d frame", r)
	}
	for _, route := range sol.Routes {
		for _, c := range route {
			require.InDelta(t, fresh.Load[c], sol.Load[c], eps, "load of %d", c)
			require.InDelta(t, fresh.Arrival[c], sol.Arrival[c], eps, "arrival of %d", c)
			require.InDelta(t, fresh.Departure[c], sol.Departure[c], eps, "departure of %d", c)
			require.Equal(t, fresh.LoadLevel[c], sol.LoadLevel[c], "level of %d", c)
		}
	}
}

// requirePermutation asserts every customer id appears exactly once
// across all routes.
func requirePermutation(t *testing.T, sol *Solution) {
	t.Helper()
	seen := make([]int, sol.in.NCustomers)
	total := 0
	for _, route := range sol.Routes {
		for _, c := range route {
			require.GreaterOrEqual(t, c, 0)
			require.Less(t, c, sol.in.NCustomers)
			seen[c]++
			total++
		}
	}
	require.Equal(t, sol.in.NCustomers, total)
	for c, n := range seen {
		require.Equalf(t, 1, n, "customer %d appears %d times", c, n)
	}
}
