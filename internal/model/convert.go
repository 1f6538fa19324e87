package model

import "loadnav/internal/alns"

// FromResult flattens a finished search into the wire form.
func FromResult(res *alns.Result) *SolutionOut {
	best := res.Best
	out := &SolutionOut{
		DrivingTime:    best.DrivingTime,
		CapaError:      best.CapaError,
		FrameError:     best.FrameError,
		Feasible:       best.Feasible,
		Iterations:     res.Iterations,
		SolveTimeMs:    res.SolveTime.Milliseconds(),
		Visited:        res.Visited,
		DestroyWeights: res.DestroyWeights,
		RepairWeights:  res.RepairWeights,
	}
	for _, s := range res.Snapshots {
		out.Snapshots = append(out.Snapshots, WeightSnapshot(s))
	}

	for r, route := range best.Routes {
		out.Routes = append(out.Routes, RouteOut{
			Vehicle:     r,
			Customers:   append([]int(nil), route...),
			StartTime:   best.StartTimes[r],
			DrivingTime: best.RouteDrivingTimes[r],
			CapaError:   best.RouteCapaErrors[r],
			FrameError:  best.RouteFrameErrors[r],
		})
		for _, c := range route {
			out.Visits = append(out.Visits, CustomerVisit{
				Customer:  c,
				Route:     r,
				Arrival:   best.Arrival[c],
				Departure: best.Departure[c],
				Load:      best.Load[c],
			})
		}
	}
	return out
}
