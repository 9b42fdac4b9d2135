package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Resource is a named, count-limited critical section. Avail < 0 means
// unbounded; that is the sole representation of infinite capacity.
//
// The wake event is implemented with a mutex plus a closed-and-replaced
// channel rather than a condition variable so that Reserve can honor a
// per-call timeout cleanly.
type Resource struct {
	UUID  uuid.UUID
	Name  string
	Avail int

	mu   sync.Mutex
	used int
	wake chan struct{}
}

// NewResource creates a Resource with the given name and capacity. A
// negative avail means unbounded.
func NewResource(name string, avail int) *Resource {
	return &Resource{
		UUID:  uuid.New(),
		Name:  name,
		Avail: avail,
		wake:  make(chan struct{}),
	}
}

func (r *Resource) String() string { return "<Resource " + r.Name + ">" }

// Used returns the current reservation count, for observers/tests.
func (r *Resource) Used() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Reserve attempts to acquire one unit of the resource. If the resource is
// unbounded or currently has spare capacity, it succeeds immediately. If
// blocking is false, it returns immediately with the outcome. If blocking
// is true, the caller parks until capacity frees up or timeout elapses
// (timeout <= 0 means wait forever).
func (r *Resource) Reserve(blocking bool, timeout time.Duration) bool {
	r.mu.Lock()
	if r.Avail < 0 {
		r.mu.Unlock()
		return true
	}
	if r.used < r.Avail {
		r.used++
		r.mu.Unlock()
		return true
	}
	if !blocking {
		r.mu.Unlock()
		return false
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		wake := r.wake
		r.mu.Unlock()

		select {
		case <-wake:
		case <-deadline:
			return false
		}

		r.mu.Lock()
		if r.used < r.Avail {
			r.used++
			r.mu.Unlock()
			return true
		}
	}
}

// Release gives back one unit of the resource, waking any blocked
// reservers. A floor of zero is enforced so a stray extra Release never
// drives the counter negative.
func (r *Resource) Release() {
	r.mu.Lock()
	if r.Avail < 0 {
		r.mu.Unlock()
		return
	}
	if r.used <= 0 {
		r.used = 0
	} else {
		r.used--
	}
	old := r.wake
	r.wake = make(chan struct{})
	r.mu.Unlock()
	close(old)
}

// releaseAll releases every resource in the slice in declared order.
// Release is order-independent and always fully succeeds.
func releaseAll(resources []*Resource) {
	for _, r := range resources {
		r.Release()
	}
}
