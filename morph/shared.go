package morph

import "sync"

// SharedAnimation guards an Animation with a single lock so editing and rendering goroutines
// can share it. Writers are exclusive, readers share.
type SharedAnimation struct {
	lock     sync.RWMutex
	anim     *Animation
	revision uint64
}

// NewSharedAnimation takes ownership of anim. Nil starts from an empty store.
func NewSharedAnimation(anim *Animation) *SharedAnimation {
	if anim == nil {
		anim = NewAnimation()
	}
	return &SharedAnimation{
		anim: anim,
	}
}

// Update runs fn against a copy of the store under the write lock.
// The copy replaces the store and the revision increases only when fn succeeds, so a
// batch of edits is applied all-or-nothing.
func (shared *SharedAnimation) Update(fn func(anim *Animation) error) error {
	shared.lock.Lock()
	defer shared.lock.Unlock()

	draft := shared.anim.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	shared.anim = draft
	shared.revision++
	return nil
}

// Read runs fn under the read lock. fn must not keep anim or modify it.
func (shared *SharedAnimation) Read(fn func(anim *Animation, revision uint64)) {
	shared.lock.RLock()
	defer shared.lock.RUnlock()

	fn(shared.anim, shared.revision)
}

// Snapshot returns a private copy of the store together with its revision
func (shared *SharedAnimation) Snapshot() (*Animation, uint64) {
	shared.lock.RLock()
	defer shared.lock.RUnlock()

	return shared.anim.Clone(), shared.revision
}

// Revision returns number of successful updates
func (shared *SharedAnimation) Revision() uint64 {
	shared.lock.RLock()
	defer shared.lock.RUnlock()

	return shared.revision
}
