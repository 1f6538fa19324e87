package alns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ldttConfig() Config {
	dist := [][]float64{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	elev := [][]float64{
		{0, 0, 80},
		{0, 0, 80},
		{-80, -80, 0},
	}
	return Config{
		NVehicles:      1,
		Demand:         []float64{50, 5},
		ServiceTime:    []float64{0, 0},
		StartWindow:    []float64{0, 0},
		EndWindow:      []float64{1e6, 1e6},
		Distance:       dist,
		Elevation:      elev,
		LoadBucketSize: 10,
	}
}

func TestNewInstanceDefaultsAndPseudoCapacity(t *testing.T) {
	in, err := NewInstance(ldttConfig())
	require.NoError(t, err)

	require.Equal(t, 3, in.NNodes)
	require.Equal(t, 2, in.NCustomers)
	require.Equal(t, float64(defaultVehicleWeight), in.VehicleWeight)
	require.Equal(t, float64(defaultVehicleCapacity), in.VehicleCapacity)
	require.Equal(t, 50.0, in.PseudoCapacity)

	// tensor covers capacity + pseudo capacity
	require.Len(t, in.TimeTensor, 20)
	require.Len(t, in.TimeTensor[0], 3)
}

func TestNewInstanceRequiresBucketing(t *testing.T) {
	cfg := ldttConfig()
	cfg.LoadBucketSize = 0
	_, err := NewInstance(cfg)
	require.Error(t, err)

	cfg.NLoadBuckets = 15
	in, err := NewInstance(cfg)
	require.NoError(t, err)
	require.InDelta(t, 10, in.LoadBucketSize, 1e-9) // 150 / 15
}

func TestNewInstanceValidatesShapes(t *testing.T) {
	cfg := ldttConfig()
	cfg.ServiceTime = []float64{0}
	_, err := NewInstance(cfg)
	require.Error(t, err)

	cfg = ldttConfig()
	cfg.Distance = cfg.Distance[:2]
	_, err = NewInstance(cfg)
	require.Error(t, err)

	cfg = ldttConfig()
	cfg.Demand = nil
	_, err = NewInstance(cfg)
	require.Error(t, err)

	cfg = ldttConfig()
	cfg.NVehicles = 0
	_, err = NewInstance(cfg)
	require.Error(t, err)
}

func TestBucketBoundaries(t *testing.T) {
	in, err := NewInstance(ldttConfig())
	require.NoError(t, err)

	// an exact upper bound falls into the lower bucket
	require.Equal(t, 0, in.bucket(10))
	require.Equal(t, 1, in.bucket(10.4))
	require.Equal(t, 0, in.bucket(0.1))
	require.Equal(t, 4, in.bucket(50))
}

func TestVRPTWInstanceSingleBucket(t *testing.T) {
	times := [][]float64{{0, 3}, {3, 0}}
	in, err := NewInstanceVRPTW(Config{
		NVehicles:       1,
		Demand:          []float64{5},
		ServiceTime:     []float64{2},
		StartWindow:     []float64{10},
		EndWindow:       []float64{20},
		VehicleCapacity: 200,
	}, [][][]float64{times})
	require.NoError(t, err)

	// every reachable load maps to bucket 0
	require.Equal(t, 0, in.bucket(200))
	require.Equal(t, 0, in.bucket(5))
	require.Equal(t, 5.0, in.PseudoCapacity)
	require.Zero(t, in.VehicleWeight)
}

func TestNormalizedMatricesInUnitRange(t *testing.T) {
	in, err := NewInstance(ldttConfig())
	require.NoError(t, err)

	for _, m := range []interface{ At(i, j int) float64 }{in.NormStartWindow, in.NormEndWindow, in.NormDemand} {
		for i := 0; i < in.NCustomers; i++ {
			for j := 0; j < in.NCustomers; j++ {
				v := m.At(i, j)
				require.GreaterOrEqual(t, v, 0.0)
				require.LessOrEqual(t, v, 1.0)
			}
		}
	}
	// identical attributes normalize to zero distance
	require.Zero(t, in.NormStartWindow.At(0, 1))
	require.Equal(t, 1.0, in.NormDemand.At(0, 1))
}
