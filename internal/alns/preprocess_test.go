package alns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVelocityDownhillRidesAtCap(t *testing.T) {
	require.Equal(t, float64(maxSpeed), velocity(200, -0.05))
	require.Equal(t, float64(maxSpeed), velocity(1000, -0.001))
}

func TestVelocityFlatLightRiderHitsCap(t *testing.T) {
	// 350 W push a light rig past 25 km/h on the flat
	require.Equal(t, float64(maxSpeed), velocity(150, 0))
}

func TestVelocityDropsWithMassAndSlope(t *testing.T) {
	steepLight := velocity(150, 0.08)
	steepHeavy := velocity(300, 0.08)
	require.Less(t, steepHeavy, steepLight)
	require.Positive(t, steepHeavy)

	gentle := velocity(300, 0.02)
	require.Greater(t, gentle, steepHeavy)
}

func TestSlopeMatrix(t *testing.T) {
	dist := [][]float64{{0, 1}, {1, 0}}
	elev := [][]float64{{0, 100}, {-100, 0}}
	slope := slopeMatrix(dist, elev)

	require.Zero(t, slope[0][0]) // zero distance
	require.Positive(t, slope[0][1])
	require.Negative(t, slope[1][0])
	// rise 100 over ~995m of ground run
	require.InDelta(t, 0.1005, slope[0][1], 1e-3)
}

func TestTimeTensorLoadMonotoneUphill(t *testing.T) {
	dist := [][]float64{{0, 1}, {1, 0}}
	elev := [][]float64{{0, 50}, {-50, 0}}
	slope := slopeMatrix(dist, elev)
	tensor := timeTensor(dist, slope, 140, 100, 50, 25)

	require.Len(t, tensor, 6) // ceil(150/25)
	for b := 1; b < len(tensor); b++ {
		require.GreaterOrEqual(t, tensor[b][0][1], tensor[b-1][0][1],
			"uphill travel got faster with more cargo")
	}
	// the downhill direction is pinned to the cap regardless of load
	require.InDelta(t, tensor[0][1][0], tensor[len(tensor)-1][1][0], 1e-9)
}
