package alns

import "fmt"

// Route-slice evaluators. These run on every insertion probe and form
// the hot path of the whole search; each one touches only the fields it
// names and relies on the caller for everything downstream.

// updateLoadLevels recomputes Load and LoadLevel for positions 0..endPos
// of route r, walking in reverse. Positions past endPos must already be
// correct: the remaining load at a customer only depends on the tail.
func (s *Solution) updateLoadLevels(r, endPos int) {
	route := s.Routes[r]
	if len(route) == 0 {
		return
	}
	load := 0.0
	if endPos < len(route)-1 {
		load = s.Load[route[endPos+1]]
	}
	for pos := endPos; pos >= 0; pos-- {
		c := route[pos]
		load += s.in.Demand[c]
		s.Load[c] = load
		s.LoadLevel[c] = s.in.bucket(load)
	}
}

// routeStartingTime returns the latest depot departure that still serves
// the first customer at the opening of its window, floored at 0.
func (s *Solution) routeStartingTime(r int) float64 {
	route := s.Routes[r]
	if len(route) == 0 {
		return 0
	}
	first := route[0]
	start := s.in.StartWindow[first] - s.in.TimeTensor[s.LoadLevel[first]][0][first+1]
	if start < 0 {
		return 0
	}
	return start
}

// updateVisitTimes walks route r forward from startTime, setting Arrival
// and Departure per customer and the route driving time including the
// empty return leg to the depot.
func (s *Solution) updateVisitTimes(r int, startTime float64) {
	route := s.Routes[r]
	driving := 0.0
	prev := 0
	now := startTime

	for _, c := range route {
		node := c + 1
		leg := s.in.TimeTensor[s.LoadLevel[c]][prev][node]
		now += leg
		driving += leg

		// wait out the window opening if we are early
		if open := s.in.StartWindow[c]; now < open {
			now = open
		}
		s.Arrival[c] = now

		now += s.in.ServiceTime[c]
		s.Departure[c] = now

		prev = node
	}

	driving += s.in.TimeTensor[0][prev][0]
	s.RouteDrivingTimes[r] = driving
}

// routeCapaError is the capacity overflow of route r. The first customer
// carries the whole route load, so only it needs checking.
func (s *Solution) routeCapaError(r int) float64 {
	route := s.Routes[r]
	if len(route) == 0 {
		return 0
	}
	if diff := s.Load[route[0]] - s.in.VehicleCapacity; diff > 0 {
		return diff
	}
	return 0
}

// routeFrameError sums the lateness over route r. Early arrival never
// contributes; the vehicle waits instead.
func (s *Solution) routeFrameError(r int) float64 {
	total := 0.0
	for _, c := range s.Routes[r] {
		if late := s.Arrival[c] - s.in.EndWindow[c]; late > 0 {
			total += late
		}
	}
	return total
}

func routeQuality(drivingTime, capaError, frameError, wCapa, wFrame float64) float64 {
	return drivingTime + wCapa*capaError + wFrame*frameError
}

// customerPos locates a customer inside route r. A miss is a corrupted
// chromosome and not recoverable.
func (s *Solution) customerPos(r, customer int) int {
	for pos, c := range s.Routes[r] {
		if c == customer {
			return pos
		}
	}
	panic(fmt.Sprintf("alns: customer %d not in route %d", customer, r))
}
