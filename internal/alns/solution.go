package alns

import (
	"errors"
	"math"
)

// ErrInfeasible signals that an insertion pushed a route past the pseudo
// capacity. It is a control-flow sentinel confined to probing: the
// capacity caches have been updated but the visit times have not, so the
// caller must revert the edit (another EvaluateChange) or recompute from
// scratch before touching the solution again.
var ErrInfeasible = errors.New("alns: pseudo capacity exceeded")

// Solution is the mutable routing state plus every cached KPI needed to
// re-evaluate a single edit in amortized O(route length). Three of these
// coexist during a run: running, current and best.
type Solution struct {
	in *Instance

	// Routes holds one ordered customer id sequence per vehicle.
	Routes [][]int
	// RouteOf inverts Routes: customer id -> route index.
	RouteOf []int

	// customer-indexed caches
	Load      []float64 // remaining demand from this customer to route end
	LoadLevel []int
	Arrival   []float64
	Departure []float64

	// route-indexed caches
	StartTimes        []float64
	RouteDrivingTimes []float64
	RouteCapaErrors   []float64
	RouteFrameErrors  []float64
	RouteQualities    []float64

	// aggregates
	DrivingTime float64
	CapaError   float64
	FrameError  float64
	Quality     float64
	Feasible    bool
}

// NewSolution allocates an empty solution shell whose driving time
// compares worse than any real one.
func NewSolution(in *Instance) *Solution {
	s := &Solution{
		in:                in,
		Routes:            make([][]int, in.NVehicles),
		RouteOf:           make([]int, in.NCustomers),
		Load:              make([]float64, in.NCustomers),
		LoadLevel:         make([]int, in.NCustomers),
		Arrival:           make([]float64, in.NCustomers),
		Departure:         make([]float64, in.NCustomers),
		StartTimes:        make([]float64, in.NVehicles),
		RouteDrivingTimes: make([]float64, in.NVehicles),
		RouteCapaErrors:   make([]float64, in.NVehicles),
		RouteFrameErrors:  make([]float64, in.NVehicles),
		RouteQualities:    make([]float64, in.NVehicles),
	}
	s.DrivingTime = math.MaxFloat64
	return s
}

// NewSolutionFromRoutes builds and fully evaluates a solution for the
// given routing.
func NewSolutionFromRoutes(in *Instance, routes [][]int, wCapa, wFrame float64) *Solution {
	s := NewSolution(in)
	s.Routes = routes
	s.EvaluateFull(wCapa, wFrame)
	return s
}

// Instance returns the shared read-only problem data.
func (s *Solution) Instance() *Instance { return s.in }

// CopyFrom deep-copies every cache from o. The Instance pointer is
// shared; everything else is duplicated so the two solutions can be
// mutated independently.
func (s *Solution) CopyFrom(o *Solution) {
	if s == o {
		return
	}
	s.in = o.in
	if len(s.Routes) != len(o.Routes) {
		s.Routes = make([][]int, len(o.Routes))
	}
	for r, route := range o.Routes {
		s.Routes[r] = append(s.Routes[r][:0], route...)
	}
	s.RouteOf = append(s.RouteOf[:0], o.RouteOf...)
	s.Load = append(s.Load[:0], o.Load...)
	s.LoadLevel = append(s.LoadLevel[:0], o.LoadLevel...)
	s.Arrival = append(s.Arrival[:0], o.Arrival...)
	s.Departure = append(s.Departure[:0], o.Departure...)
	s.StartTimes = append(s.StartTimes[:0], o.StartTimes...)
	s.RouteDrivingTimes = append(s.RouteDrivingTimes[:0], o.RouteDrivingTimes...)
	s.RouteCapaErrors = append(s.RouteCapaErrors[:0], o.RouteCapaErrors...)
	s.RouteFrameErrors = append(s.RouteFrameErrors[:0], o.RouteFrameErrors...)
	s.RouteQualities = append(s.RouteQualities[:0], o.RouteQualities...)
	s.DrivingTime = o.DrivingTime
	s.CapaError = o.CapaError
	s.FrameError = o.FrameError
	s.Quality = o.Quality
	s.Feasible = o.Feasible
}

// Clone returns an independent deep copy.
func (s *Solution) Clone() *Solution {
	c := &Solution{}
	c.CopyFrom(s)
	return c
}

// EvaluateFull rebuilds every cache from the routes alone. Used after
// initialization and after destroy operators that touch many routes at
// once; the incremental path is EvaluateChange.
func (s *Solution) EvaluateFull(wCapa, wFrame float64) {
	for r, route := range s.Routes {
		for _, c := range route {
			s.RouteOf[c] = r
		}
		s.updateLoadLevels(r, len(route)-1)
	}

	s.DrivingTime = 0
	s.CapaError = 0
	s.FrameError = 0
	s.Quality = 0
	for r := range s.Routes {
		start := s.routeStartingTime(r)
		s.StartTimes[r] = start
		s.updateVisitTimes(r, start)
		s.RouteCapaErrors[r] = s.routeCapaError(r)
		s.RouteFrameErrors[r] = s.routeFrameError(r)
		s.RouteQualities[r] = routeQuality(s.RouteDrivingTimes[r], s.RouteCapaErrors[r], s.RouteFrameErrors[r], wCapa, wFrame)

		s.DrivingTime += s.RouteDrivingTimes[r]
		s.CapaError += s.RouteCapaErrors[r]
		s.FrameError += s.RouteFrameErrors[r]
		s.Quality += s.RouteQualities[r]
	}
	s.Feasible = s.CapaError == 0 && s.FrameError == 0
}

// EvaluateChange re-evaluates route r after a single insertion or
// removal at insPos. The capacity check runs first so hopeless
// insertions abort before the costlier time walk: on ErrInfeasible the
// capacity caches reflect the edit but the time caches are stale, and
// the caller must revert or recompute.
func (s *Solution) EvaluateChange(r, insPos int, wCapa, wFrame float64) error {
	s.CapaError -= s.RouteCapaErrors[r]
	s.updateLoadLevels(r, insPos)
	capa := s.routeCapaError(r)
	s.CapaError += capa
	s.RouteCapaErrors[r] = capa

	if capa >= s.in.PseudoCapacity {
		return ErrInfeasible
	}

	s.DrivingTime -= s.RouteDrivingTimes[r]
	s.FrameError -= s.RouteFrameErrors[r]
	s.Quality -= s.RouteQualities[r]

	start := s.routeStartingTime(r)
	s.StartTimes[r] = start
	s.updateVisitTimes(r, start)

	frame := s.routeFrameError(r)
	quality := routeQuality(s.RouteDrivingTimes[r], capa, frame, wCapa, wFrame)

	s.DrivingTime += s.RouteDrivingTimes[r]
	s.FrameError += frame
	s.Quality += quality

	s.RouteFrameErrors[r] = frame
	s.RouteQualities[r] = quality

	s.Feasible = s.CapaError == 0 && s.FrameError == 0
	return nil
}

// SetQuality recomputes the qualities under new error weights without
// touching any other cache. Used when the driver retunes the weights.
func (s *Solution) SetQuality(wCapa, wFrame float64) {
	s.Quality = 0
	for r := range s.Routes {
		q := routeQuality(s.RouteDrivingTimes[r], s.RouteCapaErrors[r], s.RouteFrameErrors[r], wCapa, wFrame)
		s.RouteQualities[r] = q
		s.Quality += q
	}
}

// Diversity scores how rarely the solution's arcs have been used so far,
// normalized by the number of customers plus non-empty routes. 1 means
// every arc is fresh.
func (s *Solution) Diversity(usage [][]int, iteration int) float64 {
	iter := float64(iteration + 1)
	norm := s.in.NCustomers
	div := 0.0

	for _, route := range s.Routes {
		if len(route) == 0 {
			continue
		}
		norm++
		prev := 0
		for _, c := range route {
			div += 1 - float64(usage[prev][c+1])/iter
			prev = c + 1
		}
		div += 1 - float64(usage[prev][0])/iter
	}
	return div / float64(norm)
}

// Hash folds the route structure into a key for the visited map. Route
// lengths are mixed in so [1,2][3] and [1][2,3] land apart; route order
// matters and rotations are distinct.
func (s *Solution) Hash() uint64 {
	seed := uint64(len(s.Routes))
	for _, route := range s.Routes {
		seed ^= uint64(len(route)) + 0x9e3779b9 + seed<<6 + seed>>2
		for _, c := range route {
			seed ^= uint64(c) + 0x9e3779b9 + seed<<6 + seed>>2
		}
	}
	return seed
}
