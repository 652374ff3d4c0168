package morph

// Side picks the left or the right point of a channel.
type Side uint16

const (
	LeftSide Side = iota
	RightSide
)

// NearestChannels returns up to k channels whose point on the given side at frame lies within
// maxDistance of target, nearest first. Editors use it to pick the landmark under the cursor.
func (anim *Animation) NearestChannels(frame uint32, side Side, target Point, k int, maxDistance float32) []ChannelDistance {
	if k <= 0 {
		return nil
	}
	priorityQueue := make(distanceHeap, 0, len(anim.channels))
	for channel := range anim.channels {
		left, right := anim.interpolatePoint(frame, channel)
		point := left
		if side == RightSide {
			point = right
		}
		dist := euclideanDistance(point, target)
		if dist > maxDistance {
			continue
		}
		priorityQueue.Push(ChannelDistance{
			Channel:  channel,
			Point:    point,
			Distance: dist,
		})
	}
	found := make([]ChannelDistance, 0, minInt(k, priorityQueue.Len()))
	for priorityQueue.Len() > 0 && len(found) < k {
		found = append(found, priorityQueue.Pop())
	}
	return found
}
