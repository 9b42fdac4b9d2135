package core

import "sync"

// latch is a single-assignment event that, once set, releases all current
// and future waiters until it is explicitly cleared.
//
// A closed channel is the idiomatic Go analogue of a one-shot event:
// wait() is just a receive, which blocks until the channel is closed and
// then always returns immediately, satisfying "releases all current and
// future waiters".
type latch struct {
	mu sync.Mutex
	ch chan struct{}
}

func newLatch() *latch {
	return &latch{ch: make(chan struct{})}
}

// set marks the latch as signaled. Idempotent.
func (l *latch) set() {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
		// already set
	default:
		close(l.ch)
	}
}

// isSet reports whether the latch has been signaled.
func (l *latch) isSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
		return true
	default:
		return false
	}
}

// wait blocks until the latch is set.
func (l *latch) wait() {
	l.mu.Lock()
	ch := l.ch
	l.mu.Unlock()
	<-ch
}

// waitChan exposes the underlying channel for use in select statements
// (e.g. racing a latch wait against cancellation or a timeout).
func (l *latch) waitChan() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ch
}

// clear resets the latch to unset, allowing it to be waited on again. Used
// by Job.Reset so a rescheduled job's downstream waiters can be woken
// again on its next completion.
func (l *latch) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.ch:
		l.ch = make(chan struct{})
	default:
	}
}

// latchSet holds one latch per State value (keyed by state) plus the
// "statechange" latch owned by each Job.
type latchSet struct {
	byState     map[State]*latch
	stateChange *latch
}

func newLatchSet() *latchSet {
	ls := &latchSet{byState: make(map[State]*latch, len(states))}
	for _, s := range states {
		ls.byState[s] = newLatch()
	}
	ls.stateChange = newLatch()
	return ls
}

func (ls *latchSet) get(s State) *latch { return ls.byState[s] }

// fire sets the latch for s and the shared statechange latch.
func (ls *latchSet) fire(s State) {
	ls.byState[s].set()
	ls.stateChange.set()
}

// reset clears every latch in the set, including statechange.
func (ls *latchSet) reset() {
	for _, l := range ls.byState {
		l.clear()
	}
	ls.stateChange.clear()
}
