package alns

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Instance is the immutable problem data shared read-only by every
// solution during a run. Node indices include the depot at 0; customer
// ids are 0-based, so customer c maps to node c+1.
type Instance struct {
	NVehicles  int
	NNodes     int
	NCustomers int

	// customer-indexed
	Demand      []float64
	ServiceTime []float64
	StartWindow []float64
	EndWindow   []float64

	VehicleWeight   float64
	VehicleCapacity float64

	// PseudoCapacity is the per-route overflow allowance used as a hard
	// cap during repair probing: ceil(max single customer demand).
	PseudoCapacity float64
	LoadBucketSize float64

	// node-indexed
	Distance [][]float64 // km
	Slope    [][]float64 // rise over run

	// TimeTensor[b][i][j] is the travel time in minutes from node i to
	// node j while carrying a load in bucket b.
	TimeTensor [][][]float64

	// unit-normalized similarity matrices for the shaw family.
	// NormDistance is node-indexed; the rest are customer-indexed.
	NormDistance    *mat.Dense
	NormStartWindow *mat.Dense
	NormEndWindow   *mat.Dense
	NormDemand      *mat.Dense
}

// Config carries the raw problem data for a load-dependent instance.
// Elevation is in meters, distances in km.
type Config struct {
	NVehicles   int
	Demand      []float64
	ServiceTime []float64
	StartWindow []float64
	EndWindow   []float64
	Distance    [][]float64
	Elevation   [][]float64

	VehicleWeight   float64 // curb weight, kg
	VehicleCapacity float64

	// At least one of LoadBucketSize / NLoadBuckets must be positive;
	// NLoadBuckets takes precedence when both are.
	LoadBucketSize float64
	NLoadBuckets   int
}

const (
	defaultVehicleWeight   = 140
	defaultVehicleCapacity = 150
)

// NewInstance builds a VRPLDTT instance: validates the raw data, derives
// the slope matrix and the load-dependent time tensor, and precomputes
// the normalized similarity matrices.
func NewInstance(cfg Config) (*Instance, error) {
	if cfg.VehicleWeight == 0 {
		cfg.VehicleWeight = defaultVehicleWeight
	}
	if cfg.VehicleCapacity == 0 {
		cfg.VehicleCapacity = defaultVehicleCapacity
	}

	in, err := newBase(cfg)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.NLoadBuckets > 0:
		in.LoadBucketSize = cfg.VehicleCapacity / float64(cfg.NLoadBuckets)
	case cfg.LoadBucketSize > 0:
		in.LoadBucketSize = cfg.LoadBucketSize
	default:
		return nil, errors.New("alns: neither load bucket size nor bucket count given")
	}

	if len(cfg.Elevation) != in.NNodes {
		return nil, fmt.Errorf("alns: elevation matrix is %dx%d, want %dx%d", len(cfg.Elevation), len(cfg.Elevation), in.NNodes, in.NNodes)
	}
	in.Slope = slopeMatrix(cfg.Distance, cfg.Elevation)
	in.TimeTensor = timeTensor(cfg.Distance, in.Slope, in.VehicleWeight, in.VehicleCapacity, in.PseudoCapacity, in.LoadBucketSize)

	in.normalize()
	return in, nil
}

// NewInstanceVRPTW builds the degenerate load-independent form: the time
// tensor is supplied (a single bucket is enough) and the bucket size is
// set past any reachable load so every load maps to bucket 0.
func NewInstanceVRPTW(cfg Config, timeTensor [][][]float64) (*Instance, error) {
	if cfg.VehicleCapacity == 0 {
		cfg.VehicleCapacity = 200
	}
	cfg.VehicleWeight = 0
	if len(timeTensor) == 0 {
		return nil, errors.New("alns: empty time tensor")
	}
	if cfg.Distance == nil {
		// the shaw family only needs relative distances
		cfg.Distance = timeTensor[0]
	}

	in, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	in.LoadBucketSize = cfg.VehicleCapacity * 2
	in.TimeTensor = timeTensor
	in.normalize()
	return in, nil
}

func newBase(cfg Config) (*Instance, error) {
	n := len(cfg.Demand)
	if n == 0 {
		return nil, errors.New("alns: no customers")
	}
	if cfg.NVehicles <= 0 {
		return nil, errors.New("alns: vehicle count must be positive")
	}
	for name, v := range map[string][]float64{
		"service times": cfg.ServiceTime,
		"start windows": cfg.StartWindow,
		"end windows":   cfg.EndWindow,
	} {
		if len(v) != n {
			return nil, fmt.Errorf("alns: %s has %d entries, want %d", name, len(v), n)
		}
	}
	nodes := n + 1
	if len(cfg.Distance) != nodes {
		return nil, fmt.Errorf("alns: distance matrix is %dx%d, want %dx%d", len(cfg.Distance), len(cfg.Distance), nodes, nodes)
	}

	maxDemand := 0.0
	for _, d := range cfg.Demand {
		if d > maxDemand {
			maxDemand = d
		}
	}

	return &Instance{
		NVehicles:       cfg.NVehicles,
		NNodes:          nodes,
		NCustomers:      n,
		Demand:          cfg.Demand,
		ServiceTime:     cfg.ServiceTime,
		StartWindow:     cfg.StartWindow,
		EndWindow:       cfg.EndWindow,
		VehicleWeight:   cfg.VehicleWeight,
		VehicleCapacity: cfg.VehicleCapacity,
		PseudoCapacity:  math.Ceil(maxDemand),
		Distance:        cfg.Distance,
	}, nil
}

// bucketEpsilon pulls exact bucket bounds into the lower bucket.
const bucketEpsilon = 0.3

func (in *Instance) bucket(load float64) int {
	b := int((load - bucketEpsilon) / in.LoadBucketSize)
	if b < 0 {
		return 0
	}
	return b
}
