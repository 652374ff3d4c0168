package morph

import "github.com/pkg/errors"

// PointsToFlat interleaves points into [x0, y0, x1, y1, ...]
func PointsToFlat(points []Point) []float32 {
	flat := make([]float32, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// FlatToPoints is the inverse of PointsToFlat. The input must have even length.
func FlatToPoints(flat []float32) ([]Point, error) {
	if len(flat)%2 != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "point array must have even length, got %d", len(flat))
	}
	points := make([]Point, len(flat)/2)
	for i := range points {
		points[i] = Point{X: flat[2*i], Y: flat[2*i+1]}
	}
	return points, nil
}

func validChannel(idx, numChannels int) error {
	if idx < 0 || idx >= numChannels {
		return errors.Wrapf(ErrOutOfRange, "channel %d (have %d channels)", idx, numChannels)
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
