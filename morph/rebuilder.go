package morph

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// WarpSnapshot is a published solve. It never changes after publication.
type WarpSnapshot struct {
	ID        uuid.UUID
	Frame     uint32
	Revision  uint64
	Direction Direction
	Warp      *ThinPlateSpline
}

// RebuildConfig configures a Rebuilder. Alpha has no default and must be set.
type RebuildConfig struct {
	Alpha     *float32
	Direction Direction
}

// Validate checks the configuration
func (cfg RebuildConfig) Validate() error {
	if cfg.Alpha == nil {
		return errors.Wrap(ErrInvalidConfig, "alpha must be given explicitly")
	}
	if *cfg.Alpha < 0 {
		return errors.Wrapf(ErrInvalidConfig, "alpha must not be negative, got %v", *cfg.Alpha)
	}
	if cfg.Direction != LeftToRight && cfg.Direction != RightToLeft {
		return errors.Wrapf(ErrInvalidConfig, "unknown direction %d", cfg.Direction)
	}
	return nil
}

// Rebuilder solves splines on a background goroutine and publishes them atomically.
// Readers keep getting the previous snapshot until the new one is ready, so an O(N^3)
// solve never blocks rendering.
type Rebuilder struct {
	shared    *SharedAnimation
	alpha     float32
	direction Direction

	current atomic.Pointer[WarpSnapshot]

	pendingLock  sync.Mutex
	pendingFrame uint32
	hasPending   bool
	wake         chan struct{}
}

// NewRebuilder creates Rebuilder for the shared store
func NewRebuilder(shared *SharedAnimation, cfg RebuildConfig) (*Rebuilder, error) {
	if shared == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "shared animation is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't create rebuilder")
	}
	return &Rebuilder{
		shared:    shared,
		alpha:     *cfg.Alpha,
		direction: cfg.Direction,
		wake:      make(chan struct{}, 1),
	}, nil
}

// Request asks for a solve at frame. It never blocks; a request not yet picked up is
// replaced by the newer one.
func (rb *Rebuilder) Request(frame uint32) {
	rb.pendingLock.Lock()
	rb.pendingFrame = frame
	rb.hasPending = true
	rb.pendingLock.Unlock()

	select {
	case rb.wake <- struct{}{}:
	default:
	}
}

// Run processes requests until ctx is done. It returns ctx.Err().
func (rb *Rebuilder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rb.wake:
			frame, ok := rb.takePending()
			if !ok {
				continue
			}
			if _, err := rb.Rebuild(frame); err != nil {
				Logf("morph: rebuild of frame %d failed, keeping previous warp: %v", frame, err)
			}
		}
	}
}

func (rb *Rebuilder) takePending() (uint32, bool) {
	rb.pendingLock.Lock()
	defer rb.pendingLock.Unlock()

	if !rb.hasPending {
		return 0, false
	}
	rb.hasPending = false
	return rb.pendingFrame, true
}

// Rebuild solves frame on the calling goroutine and publishes the result.
// Only the point lookup holds the read lock; the solve runs unlocked.
// When the current snapshot already matches frame and revision it is returned as is.
// On error nothing is published.
func (rb *Rebuilder) Rebuild(frame uint32) (*WarpSnapshot, error) {
	var leftPoints, rightPoints []float32
	var revision uint64
	rb.shared.Read(func(anim *Animation, rev uint64) {
		leftPoints, rightPoints = anim.GetPoints(frame)
		revision = rev
	})

	if current := rb.current.Load(); current != nil && current.Frame == frame && current.Revision == revision {
		return current, nil
	}

	tps, err := solveDirected(leftPoints, rightPoints, rb.alpha, rb.direction)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't solve frame %d at revision %d", frame, revision)
	}
	snapshot := &WarpSnapshot{
		ID:        uuid.New(),
		Frame:     frame,
		Revision:  revision,
		Direction: rb.direction,
		Warp:      tps,
	}
	rb.publish(snapshot)
	return snapshot, nil
}

// publish stores snapshot unless a newer revision got there first
func (rb *Rebuilder) publish(snapshot *WarpSnapshot) {
	for {
		current := rb.current.Load()
		if current != nil && current.Revision > snapshot.Revision {
			return
		}
		if rb.current.CompareAndSwap(current, snapshot) {
			return
		}
	}
}

// Current returns the latest published snapshot, nil before the first one
func (rb *Rebuilder) Current() *WarpSnapshot {
	return rb.current.Load()
}

// Stale reports whether the store changed since the current snapshot was solved
func (rb *Rebuilder) Stale() bool {
	current := rb.current.Load()
	return current == nil || current.Revision != rb.shared.Revision()
}
