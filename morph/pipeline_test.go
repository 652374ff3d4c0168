package morph

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionRoundTrip(t *testing.T) {
	for _, direction := range []Direction{LeftToRight, RightToLeft} {
		parsed, err := ParseDirection(direction.String())
		require.NoError(t, err)
		assert.Equal(t, direction, parsed)
	}
	_, err := ParseDirection("up")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, "Direction(9)", Direction(9).String())
}

func TestSolveFrame(t *testing.T) {
	anim := NewAnimation()
	source := []Point{NewPoint(0, 0), NewPoint(8, 0), NewPoint(0, 10), NewPoint(8, 10)}
	for _, p := range source {
		channel, _ := anim.SetPoint(p, NewPoint(p.X*2, p.Y+1), 0, NewChannel)
		anim.SetPoint(p, NewPoint(p.X*2, p.Y+3), 20, channel)
	}

	forward, err := anim.SolveFrame(10, 0, LeftToRight)
	require.NoError(t, err)
	warped := forward.TransformPoint(NewPoint(4, 5))
	assert.InDelta(t, 8, warped.X, tpsTolerance)
	assert.InDelta(t, 7, warped.Y, tpsTolerance)

	backward, err := anim.SolveFrame(10, 0, RightToLeft)
	require.NoError(t, err)
	warped = backward.TransformPoint(NewPoint(8, 7))
	assert.InDelta(t, 4, warped.X, tpsTolerance)
	assert.InDelta(t, 5, warped.Y, tpsTolerance)

	_, err = anim.SolveFrame(10, 0, Direction(3))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = NewAnimation().SolveFrame(0, 0, LeftToRight)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
