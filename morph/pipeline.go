package morph

import (
	"fmt"

	"github.com/pkg/errors"
)

// Direction selects which point set is the source of a solved warp.
type Direction uint16

const (
	// LeftToRight solves a warp taking left image coordinates to right image coordinates
	LeftToRight Direction = iota
	// RightToLeft solves the inverse mapping. Use it when resampling the left image onto the right one
	RightToLeft
)

func (d Direction) String() string {
	switch d {
	case LeftToRight:
		return "left_to_right"
	case RightToLeft:
		return "right_to_left"
	default:
		return fmt.Sprintf("Direction(%d)", uint16(d))
	}
}

// ParseDirection is the inverse of Direction.String
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left_to_right":
		return LeftToRight, nil
	case "right_to_left":
		return RightToLeft, nil
	default:
		return LeftToRight, errors.Wrapf(ErrInvalidConfig, "unknown direction %q", s)
	}
}

// SolveFrame interpolates point pairs at frame and solves a spline between them.
// Every edit to the store makes previously solved splines stale: solve again after editing.
func (anim *Animation) SolveFrame(frame uint32, alpha float32, direction Direction) (*ThinPlateSpline, error) {
	leftPoints, rightPoints := anim.GetPoints(frame)
	tps, err := solveDirected(leftPoints, rightPoints, alpha, direction)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't solve frame %d", frame)
	}
	return tps, nil
}

func solveDirected(leftPoints, rightPoints []float32, alpha float32, direction Direction) (*ThinPlateSpline, error) {
	switch direction {
	case LeftToRight:
		return NewThinPlateSpline(leftPoints, rightPoints, alpha)
	case RightToLeft:
		return NewThinPlateSpline(rightPoints, leftPoints, alpha)
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown direction %d", direction)
	}
}
