package morph

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tpsTolerance = 1e-3

var (
	// Non-affine displacement of a small grid
	warpSource      = []float32{0, 0, 10, 0, 0, 10, 10, 10, 5, 5, 3, 7}
	warpDestination = []float32{1, 0, 11, 1, 0, 9, 9, 11, 6, 5, 3, 8}
)

func TestThinPlateSplineValidation(t *testing.T) {
	cases := []struct {
		name        string
		source      []float32
		destination []float32
	}{
		{name: "odd source", source: []float32{0, 0, 1, 1, 2}, destination: []float32{0, 0, 1, 1, 2, 2}},
		{name: "odd destination", source: []float32{0, 0, 1, 1, 2, 2}, destination: []float32{0, 0, 1, 1, 2}},
		{name: "length mismatch", source: []float32{0, 0, 1, 1, 2, 2}, destination: []float32{0, 0, 1, 1}},
		{name: "single point", source: []float32{0, 0}, destination: []float32{1, 1}},
		{name: "empty", source: nil, destination: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tps, err := NewThinPlateSpline(tc.source, tc.destination, 0)
			assert.Nil(t, tps)
			assert.True(t, errors.Is(err, ErrShapeMismatch), "expected ErrShapeMismatch, got %v", err)
		})
	}
}

func TestThinPlateSplineTwoPoints(t *testing.T) {
	// Two points are accepted: the pseudo-inverse drops the affine direction they cannot fix
	tps, err := NewThinPlateSpline([]float32{0, 0, 10, 0}, []float32{1, 1, 11, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, tps.NumControlPoints())
	for _, v := range tps.Parameters() {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "parameters must be finite: %v", tps.Parameters())
	}
}

func TestThinPlateSplineExactAtControlPoints(t *testing.T) {
	tps, err := NewThinPlateSpline(warpSource, warpDestination, 0)
	require.NoError(t, err)

	warped, err := tps.Transform(warpSource)
	require.NoError(t, err)
	require.Len(t, warped, len(warpDestination))
	for i := range warped {
		assert.InDelta(t, warpDestination[i], warped[i], tpsTolerance, "value %d", i)
	}
}

func TestThinPlateSplineRegularizationMonotonic(t *testing.T) {
	previous := -1.0
	for _, alpha := range []float32{0, 0.1, 1, 10, 100} {
		tps, err := NewThinPlateSpline(warpSource, warpDestination, alpha)
		require.NoError(t, err)
		warped, err := tps.Transform(warpSource)
		require.NoError(t, err)
		residual := 0.0
		for i := 0; i < len(warped); i += 2 {
			dx := float64(warped[i] - warpDestination[i])
			dy := float64(warped[i+1] - warpDestination[i+1])
			residual += math.Sqrt(dx*dx + dy*dy)
		}
		assert.Greater(t, residual, previous, "alpha %v should increase residual", alpha)
		previous = residual
	}
}

func TestThinPlateSplineIdentity(t *testing.T) {
	tps, err := NewThinPlateSpline(warpSource, warpSource, 0.5)
	require.NoError(t, err)
	queries := []Point{NewPoint(2, 3), NewPoint(7, 6), NewPoint(5, 1), NewPoint(9.5, 9.5)}
	for _, q := range queries {
		warped := tps.TransformPoint(q)
		assert.InDelta(t, q.X, warped.X, tpsTolerance)
		assert.InDelta(t, q.Y, warped.Y, tpsTolerance)
	}
}

func TestThinPlateSplineThreePointScenario(t *testing.T) {
	source := []float32{0, 0, 8, 0, 0, 10}
	destination := []float32{10, 10, 18, 10, 10, 18}
	tps, err := NewThinPlateSpline(source, destination, 0.1)
	require.NoError(t, err)

	warped, err := tps.Transform([]float32{4, 0, 0, 5, 4, 5})
	require.NoError(t, err)
	// Three pairs pin down an affine map exactly: x' = x + 10, y' = 10 + 0.8y
	expected := []float32{14, 10, 10, 14, 14, 14}
	for i := range expected {
		assert.InDelta(t, expected[i], warped[i], tpsTolerance, "value %d", i)
	}
}

func TestThinPlateSplineDegenerateDoesNotFail(t *testing.T) {
	// Duplicate and collinear control points make the system singular
	source := []float32{0, 0, 1, 1, 2, 2, 2, 2}
	destination := []float32{0, 0, 2, 2, 4, 4, 4, 4}
	tps, err := NewThinPlateSpline(source, destination, 0)
	require.NoError(t, err)
	warped, err := tps.Transform([]float32{1.5, 1.5})
	require.NoError(t, err)
	for _, v := range warped {
		assert.False(t, math.IsNaN(float64(v)), "degenerate solve must stay finite")
	}
}

func TestThinPlateSplineTransformShape(t *testing.T) {
	tps, err := NewThinPlateSpline(warpSource, warpDestination, 0)
	require.NoError(t, err)

	_, err = tps.Transform([]float32{1, 2, 3})
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	empty, err := tps.Transform(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestThinPlateSplineAccessors(t *testing.T) {
	tps, err := NewThinPlateSpline(warpSource, warpDestination, 0.25)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), tps.Alpha())
	assert.Equal(t, 6, tps.NumControlPoints())
	assert.Equal(t, warpSource, tps.ControlPoints())
	assert.Len(t, tps.Parameters(), (6+3)*2)

	// Copies must not alias internal state
	points := tps.ControlPoints()
	points[0] = 1000
	assert.Equal(t, warpSource, tps.ControlPoints())
}

func TestRadialBasis(t *testing.T) {
	assert.Equal(t, 0.0, radialBasis(0))
	assert.Equal(t, 0.0, radialBasis(kernelEpsilon/2))
	assert.InDelta(t, 0.0, radialBasis(1), 1e-12)
	assert.InDelta(t, 100.0, radialBasis(10), 1e-9)
	assert.InDelta(t, 20000.0, radialBasis(100), 1e-6)
}

func TestRadialKernelDistances(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{0, 0, 3, 4, 10, 10})
	origin := mat.NewDense(1, 2, []float64{0, 0})

	kernel := radialKernel(origin, a)
	rows, cols := kernel.Dims()
	require.Equal(t, 1, rows)
	require.Equal(t, 3, cols)
	assert.Equal(t, 0.0, kernel.At(0, 0))
	assert.InDelta(t, 25*math.Log10(5), kernel.At(0, 1), 1e-9)
	assert.InDelta(t, 200*math.Log10(math.Sqrt(200)), kernel.At(0, 2), 1e-9)
}

func TestFlatToMat(t *testing.T) {
	values := []float32{0, 1, 2, 3, 4, 5}
	expected := mat.NewDense(3, 2, []float64{0, 1, 2, 3, 4, 5})
	out := flatToMat(values, 3, 2)
	assert.True(t, mat.Equal(expected, out))
	assert.Equal(t, values, matToFlat(out))
}
