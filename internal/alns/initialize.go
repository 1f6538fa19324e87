package alns

import "errors"

// randomRoutes builds the starting routing: customers are appended in
// random order to the routes, each starting the scan at a random route
// index and wrapping around, taking the first route whose cumulative
// load stays under the padded capacity. The pseudo capacity padding is
// what guarantees this terminates for any instance a repair operator
// could later fix up.
func randomRoutes(in *Instance, rng *Rand) ([][]int, error) {
	maxLoad := in.VehicleCapacity + in.PseudoCapacity

	routes := make([][]int, in.NVehicles)
	loads := make([]float64, in.NVehicles)
	pool := intRange(in.NCustomers)

	for len(pool) > 0 {
		i := rng.Number(len(pool)-1, 0)
		c := pool[i]

		start := rng.Number(in.NVehicles-1, 0)
		placed := false
		for off := 0; off < in.NVehicles; off++ {
			r := (start + off) % in.NVehicles
			if loads[r]+in.Demand[c] < maxLoad {
				routes[r] = append(routes[r], c)
				loads[r] += in.Demand[c]
				placed = true
				break
			}
		}
		if !placed {
			return nil, errors.New("alns: total vehicle capacity cannot hold all customers")
		}
		pool = removeAt(pool, i)
	}
	return routes, nil
}
