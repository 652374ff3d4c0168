package morph

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// Distances at or below kernelEpsilon contribute nothing to the radial kernel (U(0) = 0).
	kernelEpsilon = 1e-5
	// Singular values below singularValueCutoff are dropped from the pseudo-inverse.
	singularValueCutoff = 1e-6
	// Points are always (x, y), though nothing below depends on it except the flat layout.
	pointDims = 2
)

// Warp maps flat [x, y, x, y, ...] coordinates from one image plane to another.
type Warp interface {
	Transform(points []float32) ([]float32, error)
}

// ThinPlateSpline is a solved thin-plate-spline mapping between two matched point sets.
//
// The mapping is f(X) = A + X.B + Phi(X).C where Phi(X)[i][j] = U(||X_i - S_j||) against
// the control points S, and U(r) = r^2 * log10(r). Fitting solves
//
//	| K + alpha*I   X' | | C  |   | D |
//	|                  | |    | = |   |
//	| X'^T          0  | | B' |   | 0 |
//
// with X' = [1 | S], for the (N+3)x2 parameter matrix [C; A; B].
// Once built the instance is immutable and safe for concurrent Transform calls.
type ThinPlateSpline struct {
	alpha float32
	// (N+3)x2: N kernel weights, then constant, x and y affine rows
	parameters *mat.Dense
	// Nx2 source points the kernel is anchored to
	controlPoints *mat.Dense
}

// NewThinPlateSpline solves the spline which takes sourcePoints onto destinationPoints.
// Both arrays are [x, y, x, y, ...], must have the same even length and hold at least two points.
// alpha = 0 interpolates the control points exactly; larger values trade exactness for smoothness.
//
// Degenerate layouts (duplicate or collinear points) do not fail: singular directions of the
// system are dropped and the result is a best-effort, possibly non-unique, mapping.
func NewThinPlateSpline(sourcePoints, destinationPoints []float32, alpha float32) (*ThinPlateSpline, error) {
	if len(sourcePoints)%2 != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "source points must have even length, got %d", len(sourcePoints))
	}
	if len(destinationPoints)%2 != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "destination points must have even length, got %d", len(destinationPoints))
	}
	if len(sourcePoints) != len(destinationPoints) {
		return nil, errors.Wrapf(ErrShapeMismatch, "source and destination lengths differ: %d vs %d", len(sourcePoints), len(destinationPoints))
	}
	if len(sourcePoints) <= 3 {
		return nil, errors.Wrapf(ErrShapeMismatch, "need at least 2 points, got %d values", len(sourcePoints))
	}

	numControl := len(sourcePoints) / pointDims
	source := flatToMat(sourcePoints, numControl, pointDims)
	destination := flatToMat(destinationPoints, numControl, pointDims)

	k := radialKernel(source, source)
	for i := 0; i < numControl; i++ {
		k.Set(i, i, k.At(i, i)+float64(alpha))
	}

	var xp mat.Dense
	xp.Augment(ones(numControl, 1), source)

	var top, bottom, a mat.Dense
	top.Augment(k, &xp)
	bottom.Augment(xp.T(), mat.NewDense(pointDims+1, pointDims+1, nil))
	a.Stack(&top, &bottom)

	var y mat.Dense
	y.Stack(destination, mat.NewDense(pointDims+1, pointDims, nil))

	return &ThinPlateSpline{
		alpha:         alpha,
		parameters:    solvePseudoInverse(&a, &y),
		controlPoints: source,
	}, nil
}

// Transform maps flat [x, y, x, y, ...] points through the spline.
func (tps *ThinPlateSpline) Transform(points []float32) ([]float32, error) {
	if len(points)%2 != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "query points must have even length, got %d", len(points))
	}
	numPoints := len(points) / pointDims
	if numPoints == 0 {
		return []float32{}, nil
	}
	query := flatToMat(points, numPoints, pointDims)
	phi := radialKernel(query, tps.controlPoints)

	var withOnes, augmented, warped mat.Dense
	withOnes.Augment(phi, ones(numPoints, 1))
	augmented.Augment(&withOnes, query)
	warped.Mul(&augmented, tps.parameters)
	return matToFlat(&warped), nil
}

// TransformPoint maps a single point through the spline.
func (tps *ThinPlateSpline) TransformPoint(p Point) Point {
	// Two values never fail the shape check
	warped, _ := tps.Transform([]float32{p.X, p.Y})
	return Point{X: warped[0], Y: warped[1]}
}

// Alpha returns regularization the spline was solved with
func (tps *ThinPlateSpline) Alpha() float32 {
	return tps.alpha
}

// NumControlPoints returns N, the number of control points
func (tps *ThinPlateSpline) NumControlPoints() int {
	rows, _ := tps.controlPoints.Dims()
	return rows
}

// ControlPoints returns copy of control points as [x, y, x, y, ...]
func (tps *ThinPlateSpline) ControlPoints() []float32 {
	return matToFlat(tps.controlPoints)
}

// Parameters returns copy of the (N+3)x2 parameter matrix in row-major order
func (tps *ThinPlateSpline) Parameters() []float32 {
	return matToFlat(tps.parameters)
}

// solvePseudoInverse returns V * diag(s+) * U^T * y for a = U * diag(s) * V^T.
func solvePseudoInverse(a, y *mat.Dense) *mat.Dense {
	rows, _ := a.Dims()
	_, cols := y.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		// No convergence: every direction counts as singular
		return mat.NewDense(rows, cols, nil)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	var projected mat.Dense
	projected.Mul(u.T(), y)
	for i, s := range values {
		inverse := 0.0
		if s >= singularValueCutoff {
			inverse = 1.0 / s
		}
		for j := 0; j < cols; j++ {
			projected.Set(i, j, projected.At(i, j)*inverse)
		}
	}

	var parameters mat.Dense
	parameters.Mul(&v, &projected)
	return &parameters
}

// radialKernel returns the len(points) x len(control) matrix of U(||points_i - control_j||).
func radialKernel(points, control *mat.Dense) *mat.Dense {
	numPoints, dims := points.Dims()
	numControl, _ := control.Dims()
	kernel := mat.NewDense(numPoints, numControl, nil)
	for i := 0; i < numPoints; i++ {
		for j := 0; j < numControl; j++ {
			squared := 0.0
			for d := 0; d < dims; d++ {
				delta := points.At(i, d) - control.At(j, d)
				squared += delta * delta
			}
			kernel.Set(i, j, radialBasis(math.Sqrt(squared)))
		}
	}
	return kernel
}

// radialBasis is U(r) = r^2 * log10(r), zero near the origin.
func radialBasis(r float64) float64 {
	if r <= kernelEpsilon {
		return 0
	}
	return r * r * math.Log10(r)
}

func ones(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 1.0
	}
	return mat.NewDense(rows, cols, data)
}

func flatToMat(points []float32, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(points[i])
	}
	return mat.NewDense(rows, cols, data)
}

func matToFlat(m mat.Matrix) []float32 {
	rows, cols := m.Dims()
	flat := make([]float32, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			flat = append(flat, float32(m.At(i, j)))
		}
	}
	return flat
}
