package alns

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cyclist power model. Travel speed depends on total mass and slope, so
// the travel time between two nodes is a function of the cargo carried.
const (
	maxSpeed         = 25  // km/h
	riderPower       = 350 // W
	kmhToMs          = 3.6
	gravity          = 9.81
	dragCoefficient  = 1.18
	riderSurface     = 0.83
	airDensity       = 1.18
	rollingCoeff     = 0.01
	drivetrainLosses = 0.95
)

var airResistance = airDensity * dragCoefficient * riderSurface / 2

// velocity finds the steady-state speed in km/h of a rider with fixed
// power for the given total mass (kg) and slope (rise over run). The
// speed is found by walking the power curve upward in small steps and
// capped at maxSpeed; downhill legs ride at the cap.
func velocity(mass, slope float64) float64 {
	const accuracy = 0.01
	if slope < 0 {
		return maxSpeed
	}

	rolling := rollingCoeff * mass * gravity * math.Cos(math.Atan(slope))
	grade := mass * gravity * math.Sin(math.Atan(slope))

	// start half a step in so the final rounding lands on a step boundary
	v := accuracy / 1.99
	for {
		drag := airResistance * math.Pow(v/kmhToMs, 2)
		power := (drag + rolling + grade) * v / kmhToMs / drivetrainLosses
		if power-riderPower >= 0 {
			break
		}
		v += accuracy
	}

	if v < maxSpeed {
		return v - accuracy/1.99
	}
	return maxSpeed
}

// slopeMatrix derives rise-over-run slopes from the distance matrix (km)
// and the elevation difference matrix (m).
func slopeMatrix(distance, elevation [][]float64) [][]float64 {
	n := len(distance)
	slope := make([][]float64, n)
	for i := range slope {
		slope[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d := distance[i][j]
			if d == 0 {
				continue
			}
			rise := elevation[i][j]
			run := math.Sqrt(math.Pow(d*1000, 2) - math.Pow(rise, 2))
			slope[i][j] = rise / run
		}
	}
	return slope
}

// timeTensor precomputes travel times in minutes for every load bucket
// and node pair. The mass of a bucket is taken at the interval midpoint,
// clipped at the total considered capacity.
func timeTensor(distance, slope [][]float64, vehicleWeight, capacity, pseudoCapacity, bucketSize float64) [][][]float64 {
	maxLoad := capacity + pseudoCapacity
	nBuckets := int(math.Ceil(maxLoad / bucketSize))
	n := len(distance)

	tensor := make([][][]float64, nBuckets)
	for b := 0; b < nBuckets; b++ {
		cargo := math.Min(maxLoad, float64(b)*bucketSize+bucketSize/2)
		level := make([][]float64, n)
		for i := 0; i < n; i++ {
			level[i] = make([]float64, n)
			for j := 0; j < n; j++ {
				// slope is directional, so ij and ji differ
				v := velocity(vehicleWeight+cargo, slope[i][j])
				level[i][j] = distance[i][j] / v * 60
			}
		}
		tensor[b] = level
	}
	return tensor
}

// normalize fills the unit-normalized similarity matrices consumed by
// the shaw destroy family.
func (in *Instance) normalize() {
	minD, maxD := math.MaxFloat64, -math.MaxFloat64
	for _, row := range in.Distance {
		for _, d := range row {
			if d < minD {
				minD = d
			}
			if d > maxD {
				maxD = d
			}
		}
	}
	in.NormDistance = normalizeMatrix(in.Distance, minD, maxD)
	in.NormStartWindow = pairwiseNorm(in.StartWindow)
	in.NormEndWindow = pairwiseNorm(in.EndWindow)
	in.NormDemand = pairwiseNorm(in.Demand)
}

func normalizeMatrix(m [][]float64, min, max float64) *mat.Dense {
	n := len(m)
	out := mat.NewDense(n, len(m[0]), nil)
	base := max - min
	for i := range m {
		for j, v := range m[i] {
			out.Set(i, j, (v-min)/base)
		}
	}
	return out
}

// pairwiseNorm builds the min-max normalized absolute-difference matrix
// of a customer attribute vector.
func pairwiseNorm(v []float64) *mat.Dense {
	n := len(v)
	out := mat.NewDense(n, n, nil)
	min, max := 0.0, 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := math.Abs(v[i] - v[j])
			out.Set(i, j, d)
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
	}
	base := max - min
	if base == 0 {
		return mat.NewDense(n, n, nil)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, (out.At(i, j)-min)/base)
		}
	}
	return out
}
