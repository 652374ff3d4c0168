package morph

import (
	"sort"

	"github.com/pkg/errors"
)

// NewChannel is passed as channel index to SetPoint to start a new channel.
const NewChannel = -1

// Keypoint is a point pair pinned at a specific frame.
type Keypoint struct {
	Frame uint32
	Left  Point
	Right Point
}

// Animation is the keyframe store.
// A channel is a list of keypoints sorted by frame, and the channel index is what links
// a point on the left image to its point on the right image.
// Channels are never empty: once the last keypoint is gone the channel is removed and
// every channel after it shifts down by one.
//
// Animation does no locking. Wrap it in SharedAnimation when several goroutines touch it.
type Animation struct {
	channels [][]Keypoint
}

// NewAnimation creates an empty keyframe store
func NewAnimation() *Animation {
	return &Animation{
		channels: make([][]Keypoint, 0),
	}
}

// NumChannels returns number of channels
func (anim *Animation) NumChannels() int {
	return len(anim.channels)
}

// nearestKeyframeIdx returns index of the first keypoint with frame >= the given one.
// When every keypoint is before frame it returns the channel length.
func (anim *Animation) nearestKeyframeIdx(frame uint32, channel int) int {
	keypoints := anim.channels[channel]
	return sort.Search(len(keypoints), func(i int) bool {
		return keypoints[i].Frame >= frame
	})
}

// SetPoint inserts a point pair at the given frame.
// If channel is NewChannel a new channel is appended and its index is returned.
// Otherwise the keypoint is added to that channel, replacing the one already stored at
// the same frame if there is one. The returned value is the channel index.
func (anim *Animation) SetPoint(left, right Point, frame uint32, channel int) (int, error) {
	if channel == NewChannel {
		newChannelIdx := len(anim.channels)
		anim.channels = append(anim.channels, []Keypoint{{Frame: frame, Left: left, Right: right}})
		return newChannelIdx, nil
	}
	if err := validChannel(channel, len(anim.channels)); err != nil {
		return channel, errors.Wrap(err, "Can't set point")
	}
	keypoints := anim.channels[channel]
	idx := anim.nearestKeyframeIdx(frame, channel)
	if idx < len(keypoints) && keypoints[idx].Frame == frame {
		keypoints[idx].Left = left
		keypoints[idx].Right = right
		return channel, nil
	}
	keypoints = append(keypoints, Keypoint{})
	copy(keypoints[idx+1:], keypoints[idx:])
	keypoints[idx] = Keypoint{Frame: frame, Left: left, Right: right}
	anim.channels[channel] = keypoints
	return channel, nil
}

// ClearPoint removes the keypoint stored at exactly frame in the given channel.
// If it was the last keypoint of the channel, the channel is removed as well.
func (anim *Animation) ClearPoint(frame uint32, channel int) error {
	if err := validChannel(channel, len(anim.channels)); err != nil {
		return errors.Wrap(err, "Can't clear point")
	}
	keypoints := anim.channels[channel]
	idx := anim.nearestKeyframeIdx(frame, channel)
	if idx >= len(keypoints) || keypoints[idx].Frame != frame {
		return errors.Wrapf(ErrNotFound, "no keyframe %d on channel %d", frame, channel)
	}
	if len(keypoints) == 1 {
		anim.removeChannel(channel)
		return nil
	}
	anim.channels[channel] = append(keypoints[:idx], keypoints[idx+1:]...)
	return nil
}

// ClearChannel removes the whole channel. Channels after it shift down by one.
func (anim *Animation) ClearChannel(channel int) error {
	if err := validChannel(channel, len(anim.channels)); err != nil {
		return errors.Wrap(err, "Can't clear channel")
	}
	anim.removeChannel(channel)
	return nil
}

// removeChannel keeps surviving channels in their relative order.
func (anim *Animation) removeChannel(channel int) {
	last := len(anim.channels) - 1
	copy(anim.channels[channel:], anim.channels[channel+1:])
	anim.channels[last] = nil
	anim.channels = anim.channels[:last]
}

// interpolatePoint returns linear interpolation of channel at frame, clamped to the first and last keyframes.
func (anim *Animation) interpolatePoint(frame uint32, channel int) (Point, Point) {
	keypoints := anim.channels[channel]
	nextIdx := anim.nearestKeyframeIdx(frame, channel)
	if nextIdx >= len(keypoints) {
		last := keypoints[len(keypoints)-1]
		return last.Left, last.Right
	}
	prevIdx := maxInt(nextIdx-1, 0)
	next := keypoints[nextIdx]
	if nextIdx == prevIdx || next.Frame == frame {
		return next.Left, next.Right
	}
	prev := keypoints[prevIdx]
	amount := float32(float64(frame-prev.Frame) / float64(next.Frame-prev.Frame))
	return Lerp(prev.Left, next.Left, amount), Lerp(prev.Right, next.Right, amount)
}

// GetPoints returns left and right points interpolated at frame.
// Each slice is [x, y, x, y, ...] with 2*NumChannels() values ordered by channel.
// Frames outside of a channel's keyframes are clamped to its first or last keyframe.
func (anim *Animation) GetPoints(frame uint32) ([]float32, []float32) {
	leftPoints := make([]float32, 0, 2*len(anim.channels))
	rightPoints := make([]float32, 0, 2*len(anim.channels))
	for channel := range anim.channels {
		lp, rp := anim.interpolatePoint(frame, channel)
		leftPoints = append(leftPoints, lp.X, lp.Y)
		rightPoints = append(rightPoints, rp.X, rp.Y)
	}
	return leftPoints, rightPoints
}

// MorphPoints returns the in-between point set at frame: left points moved towards right
// points by amount (0 is left, 1 is right).
func (anim *Animation) MorphPoints(frame uint32, amount float32) []float32 {
	leftPoints, rightPoints := anim.GetPoints(frame)
	morphed := make([]float32, len(leftPoints))
	for i := range leftPoints {
		morphed[i] = leftPoints[i] + amount*(rightPoints[i]-leftPoints[i])
	}
	return morphed
}

// Keypoints returns a copy of channel's keypoints
func (anim *Animation) Keypoints(channel int) ([]Keypoint, error) {
	if err := validChannel(channel, len(anim.channels)); err != nil {
		return nil, err
	}
	keypoints := make([]Keypoint, len(anim.channels[channel]))
	copy(keypoints, anim.channels[channel])
	return keypoints, nil
}

// FrameRange returns first and last keyframe over all channels. ok is false for an empty store.
func (anim *Animation) FrameRange() (first, last uint32, ok bool) {
	for _, keypoints := range anim.channels {
		channelFirst := keypoints[0].Frame
		channelLast := keypoints[len(keypoints)-1].Frame
		if !ok || channelFirst < first {
			first = channelFirst
		}
		if !ok || channelLast > last {
			last = channelLast
		}
		ok = true
	}
	return first, last, ok
}

// Clone returns deep copy of the store
func (anim *Animation) Clone() *Animation {
	channels := make([][]Keypoint, len(anim.channels))
	for i, keypoints := range anim.channels {
		channels[i] = make([]Keypoint, len(keypoints))
		copy(channels[i], keypoints)
	}
	return &Animation{
		channels: channels,
	}
}
