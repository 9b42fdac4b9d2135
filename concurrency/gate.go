// Package concurrency provides a tree-wide bound on how many job bodies may
// run at once, independent of the named per-resource limits in core's
// resource arbiter. It is a plain buffered-channel counting semaphore: every
// job already owns its own goroutine, so the gate only needs acquire/release
// accounting rather than visiting nodes itself (see DESIGN.md for how this
// was adapted).
package concurrency

import "sync/atomic"

// Gate bounds concurrent Acquire holders to the limit given to NewGate. A
// limit <= 0 means unbounded: Acquire always succeeds immediately.
type Gate struct {
	slots chan struct{}
	cur   int32
}

// NewGate constructs a Gate with the given limit. limit <= 0 means
// unbounded.
func NewGate(limit int) *Gate {
	if limit <= 0 {
		return &Gate{}
	}
	return &Gate{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a slot is free.
func (g *Gate) Acquire() {
	if g.slots == nil {
		return
	}
	g.slots <- struct{}{}
	atomic.AddInt32(&g.cur, 1)
}

// Release frees a slot acquired via Acquire.
func (g *Gate) Release() {
	if g.slots == nil {
		return
	}
	<-g.slots
	atomic.AddInt32(&g.cur, -1)
}

// InUse reports how many slots are currently held.
func (g *Gate) InUse() int {
	return int(atomic.LoadInt32(&g.cur))
}
