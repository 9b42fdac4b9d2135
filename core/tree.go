package core

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/weberc2/exectree/concurrency"
)

// IterationPolicy controls how a subtree's iterated run (iterrun)
// aggregates per-iteration success into the host job's result. Left
// implicit elsewhere ("the host job is marked success even if some
// iterations failed"); this implementation makes the policy explicit and
// configurable (see DESIGN.md).
type IterationPolicy int

const (
	// IterationPolicyAlwaysSucceed: the host job succeeds regardless of
	// per-iteration outcome. Default.
	IterationPolicyAlwaysSucceed IterationPolicy = iota
	// IterationPolicyFirstFailure propagates the first failing iteration to
	// the host job.
	IterationPolicyFirstFailure
)

// Tree owns a set of Jobs, Dependencies, Resources and nested subtree
// Trees, and drives their cooperative, dependency-ordered execution.
type Tree struct {
	UUID uuid.UUID
	Name string
	Cwd  string
	HRef string

	// Iterator is set when this Tree is used as a subtree body.
	Iterator *Iterator

	// WaitSuccess, if true, keeps the tree open (does not set doneEvent)
	// while a mandatory job is FAILED, so an operator can Reset+Start it
	// out-of-band.
	WaitSuccess bool

	// IterationPolicy controls subtree iteration success aggregation.
	// Defaults to IterationPolicyAlwaysSucceed.
	IterationPolicy IterationPolicy

	// AcquireTimeout and MaxAcquireAttempts configure every job's resource
	// arbitration; zero values fall back to the package defaults
	// (60s / 1000 attempts).
	AcquireTimeout     time.Duration
	MaxAcquireAttempts int

	// MaxConcurrency bounds how many job bodies may run at once tree-wide,
	// independent of named per-resource limits. Zero means unbounded.
	MaxConcurrency int

	Legend map[string]string

	mu        sync.RWMutex
	jobs      []*Job
	deps      []*Dependency
	resources []*Resource
	subtrees  []*Tree

	cancelled bool
	started   bool
	doneEvt   *latch
	gate      *concurrency.Gate
}

// NewTree constructs an empty, runnable-once-populated Tree.
func NewTree(name string) *Tree {
	return &Tree{
		UUID:    uuid.New(),
		Name:    name,
		Cwd:     "/",
		Legend:  map[string]string{},
		doneEvt: newLatch(),
	}
}

func (t *Tree) String() string { return "<Tree " + t.Name + ">" }

// clusterName sanitizes the tree name for use as a dot subgraph
// identifier (dot doesn't tolerate spaces there).
func (t *Tree) clusterName() string {
	name := make([]byte, 0, len(t.Name))
	for _, r := range t.Name {
		if r == ' ' {
			name = append(name, '_')
		} else {
			name = append(name, byte(r))
		}
	}
	return "cluster_" + string(name)
}

// Jobs, Deps, Resources, Subtrees return read-only snapshots of the tree's
// member slices. These are frozen once Run has started.
func (t *Tree) Jobs() []*Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

func (t *Tree) Deps() []*Dependency {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Dependency, len(t.deps))
	copy(out, t.deps)
	return out
}

func (t *Tree) Resources() []*Resource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Resource, len(t.resources))
	copy(out, t.resources)
	return out
}

func (t *Tree) Subtrees() []*Tree {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Tree, len(t.subtrees))
	copy(out, t.subtrees)
	return out
}

// AddResource registers r with the tree; a job's resource references are
// checked against this set.
func (t *Tree) AddResource(r *Resource) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resources = append(t.resources, r)
}

// FindJob locates a job by name or hex UUID.
func (t *Tree) FindJob(needle string) *Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, j := range t.jobs {
		if j.Name == needle || j.UUID.String() == needle {
			return j
		}
	}
	return nil
}

// FindResource locates a resource by name or hex UUID.
func (t *Tree) FindResource(needle string) *Resource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.resources {
		if r.Name == needle || r.UUID.String() == needle {
			return r
		}
	}
	return nil
}

// FindSubtree locates a direct subtree by UUID.
func (t *Tree) FindSubtree(id uuid.UUID) *Tree {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.subtrees {
		if s.UUID == id {
			return s
		}
	}
	return nil
}

// AddJob attaches job to the tree, enforcing name uniqueness and
// single-tree ownership. If the job's body is a subtree not already
// registered, it is auto-registered.
func (t *Tree) AddJob(job *Job) error {
	if t.FindJob(job.Name) != nil {
		return JobDefinedErr{Name: job.Name}
	}
	if err := job.setTree(t); err != nil {
		return err
	}

	job.acquireTimeout = t.AcquireTimeout
	job.maxAcquireAttempts = t.MaxAcquireAttempts

	t.mu.Lock()
	defer t.mu.Unlock()
	if sub := job.subtree; sub != nil {
		found := false
		for _, s := range t.subtrees {
			if s == sub {
				found = true
				break
			}
		}
		if !found {
			t.subtrees = append(t.subtrees, sub)
		}
	}
	t.jobs = append(t.jobs, job)
	return nil
}

// AddDep resolves parent/child by job reference (pass either a *Job or a
// name string) and appends a Dependency, enforcing same-tree membership,
// no self-loops, and no exact duplicates (duplicates are logged and
// dropped, not rejected with an error).
func (t *Tree) AddDep(parent, child interface{}, required State) (*Dependency, error) {
	if !required.valid() {
		return nil, UnknownStateErr{Value: required}
	}
	pj, err := t.resolveJob(parent)
	if err != nil {
		return nil, err
	}
	cj, err := t.resolveJob(child)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	inTree := func(j *Job) bool {
		for _, x := range t.jobs {
			if x == j {
				return true
			}
		}
		return false
	}
	pOK, cOK := inTree(pj), inTree(cj)
	t.mu.RUnlock()
	if !pOK {
		return nil, JobUndefinedErr{Name: pj.Name}
	}
	if !cOK {
		return nil, JobUndefinedErr{Name: cj.Name}
	}

	if pj == cj {
		return nil, DependencyErr{Reason: "child cannot be own parent (" + pj.Name + ")"}
	}

	for _, p := range cj.Parents() {
		if p == pj {
			// Duplicate dependency: logged and dropped.
			log.Printf("Duplicate dependency %s -> %s.", pj.Name, cj.Name)
			return nil, nil
		}
	}

	dep := newDependency(pj, cj, required)
	t.mu.Lock()
	t.deps = append(t.deps, dep)
	t.mu.Unlock()
	return dep, nil
}

func (t *Tree) resolveJob(v interface{}) (*Job, error) {
	switch x := v.(type) {
	case *Job:
		return x, nil
	case string:
		if j := t.FindJob(x); j != nil {
			return j, nil
		}
		return nil, JobUndefinedErr{Name: x}
	default:
		return nil, JobUndefinedErr{Name: "<invalid>"}
	}
}

// Stems returns defined jobs with no defined ancestor (glossary: "Stem").
func (t *Tree) Stems() []*Job {
	var out []*Job
	for _, j := range t.Jobs() {
		if j.hasDefinedAncestors() || !j.IsDefined() {
			continue
		}
		out = append(out, j)
	}
	return out
}

// Leaves returns jobs that have at least one outgoing dependency
// (glossary: "Leaf"; used by the renderer to attach subtree edges).
func (t *Tree) Leaves() []*Job {
	var out []*Job
	for _, j := range t.Jobs() {
		if len(j.childDeps()) > 0 {
			out = append(out, j)
		}
	}
	return out
}

// Validate returns a (possibly empty) list of human-readable errors,
// checking exactly-one-stem, no-cycles, full reachability from the stem,
// and per-job body validity.
func (t *Tree) Validate() []string {
	var errs []string
	stems := t.Stems()

	switch {
	case len(stems) == 0 && len(t.Jobs()) > 0:
		errs = append(errs, "Tree "+t.Name+" is empty, has 0 stems.")
	case len(stems) > 1:
		names := ""
		for i, s := range stems {
			if i > 0 {
				names += " "
			}
			names += s.Name
		}
		errs = append(errs, "Tree "+t.Name+" has multiple stems ("+names+").")
	}

	// Cycle detection runs over every job, defined or not, not just ones
	// reachable from a discovered stem: a pure cycle with no external entry
	// point leaves every member job with an ancestor, so Stems() reports
	// zero stems and a per-stem-only scan would never run.
	globalVisited := map[*Job]bool{}
	hasCycle := false
	for _, j := range t.Jobs() {
		if globalVisited[j] {
			continue
		}
		if !t.validateNoCycles(j, globalVisited, map[*Job]bool{}) {
			hasCycle = true
		}
	}
	if hasCycle {
		errs = append(errs, "Tree "+t.Name+" has cycles.")
	}

	for _, stem := range stems {
		visited := map[*Job]bool{}
		t.validateNoCycles(stem, visited, map[*Job]bool{})

		var unconnected []string
		for _, j := range t.Jobs() {
			if j.IsDefined() && !visited[j] {
				unconnected = append(unconnected, j.Name)
			}
		}
		if len(unconnected) > 0 {
			names := ""
			for i, n := range unconnected {
				if i > 0 {
					names += " "
				}
				names += n
			}
			errs = append(errs, "The jobs "+names+" are not connected to "+stem.Name+".")
		}
	}

	for _, j := range t.Jobs() {
		errs = append(errs, j.Validate()...)
	}

	return errs
}

// validateNoCycles performs a DFS tracking the "parents on current path"
// set.
func (t *Tree) validateNoCycles(job *Job, visited, onPath map[*Job]bool) bool {
	if onPath[job] {
		return false
	}
	onPath[job] = true
	visited[job] = true
	for _, child := range job.Children() {
		if onPath[child] {
			return false
		}
		if visited[child] {
			continue
		}
		if !t.validateNoCycles(child, visited, onPath) {
			return false
		}
	}
	delete(onPath, job)
	return true
}

// Argument returns the current iterator argument if this tree is used as a
// subtree, else "".
func (t *Tree) Argument() string {
	if t.Iterator == nil {
		return ""
	}
	return t.Iterator.Argument()
}

// concurrencyGate returns the tree's bounded-concurrency gate, lazily
// creating one sized by MaxConcurrency if Run hasn't been called yet (e.g. a job
// inside a subtree iterating via runOnce before the host tree's own Run).
func (t *Tree) concurrencyGate() *concurrency.Gate {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gate == nil {
		t.gate = concurrency.NewGate(t.MaxConcurrency)
	}
	return t.gate
}

// maybeDone is the tree-level completion callback wired to every job's
// latches: it returns true iff every job with mustcomplete=true is DONE.
// On first becoming true, it fires doneEvt and sweeps up any
// still-waiting non-mandatory jobs via Cancel.
func (t *Tree) maybeDone() bool {
	for _, j := range t.Jobs() {
		if j.MustComplete {
			if t.WaitSuccess && j.State() == StateFailed {
				return false
			}
			if !j.IsDone() {
				return false
			}
		}
	}
	if !t.doneEvt.isSet() {
		t.doneEvt.set()
		t.Cancel()
	}
	return true
}

// IsSuccess reports whether every job in the tree is in a SUCCESS-like
// state.
func (t *Tree) IsSuccess() bool {
	for _, j := range t.Jobs() {
		if !j.IsSuccess() {
			return false
		}
	}
	return true
}

// Cancel marks the tree cancelled and cancels every job. Idempotent.
func (t *Tree) Cancel() bool {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return false
	}
	t.cancelled = true
	t.mu.Unlock()

	for _, j := range t.Jobs() {
		j.Cancel()
	}
	return true
}

// Cancelled reports whether Cancel has been invoked on this tree.
func (t *Tree) Cancelled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cancelled
}

// Started reports whether Run has been invoked.
func (t *Tree) Started() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.started
}

// Run spawns one cooperative goroutine per job. If blocking is true, it
// waits (up to timeout, if positive) for doneEvt, calling Cancel on
// expiry. Run is not safe to call twice on the same Tree.
func (t *Tree) Run(blocking bool, timeout time.Duration) {
	t.mu.Lock()
	if t.gate == nil {
		t.gate = concurrency.NewGate(t.MaxConcurrency)
	}
	t.mu.Unlock()

	watchMaybeDone := func() {
		t.maybeDone()
	}
	for _, j := range t.Jobs() {
		j.onAnyStateChange(watchMaybeDone)
		j.Start()
	}

	t.mu.Lock()
	t.started = true
	t.mu.Unlock()

	if !blocking {
		return
	}

	// Give the freshly spawned goroutines a moment to reach their first
	// suspension point before settling into the blocking wait.
	time.Sleep(time.Millisecond)

	if timeout <= 0 {
		t.Join()
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.doneEvt.waitChan():
	case <-timer.C:
		t.Cancel()
	}
}

// Join blocks until the tree's done condition has fired.
func (t *Tree) Join() {
	t.doneEvt.wait()
}

// advance clears doneEvt, increments the iterator if one is set, and then,
// unless that increment exhausted the iterator, resets every non-UNDEF job
// so their parent-wait latches clear (a non-iterated tree always gets the
// reset). Jobs in UNDEF state are never reset by advance(): UNDEF is a
// permanent designation of a job's body, not a transient runtime state.
func (t *Tree) advance() {
	t.doneEvt.clear()
	inc := true
	if t.Iterator != nil {
		inc = t.Iterator.Increment()
	}
	if inc {
		for _, j := range t.Jobs() {
			if j.State() == StateUndef {
				continue
			}
			j.Reset()
		}
	}
}

// iterrun runs the tree once per iterator element (or once, if no iterator
// is set). The returned bool aggregates success per
// IterationPolicy.
func (t *Tree) iterrun() (bool, error) {
	if t.Iterator == nil {
		t.runOnce()
		return t.IsSuccess(), nil
	}
	if t.Iterator.IsExhausted() {
		return true, nil
	}

	overallSuccess := true
	for {
		t.runOnce()
		if !t.IsSuccess() {
			overallSuccess = false
			if t.IterationPolicy == IterationPolicyFirstFailure {
				return false, nil
			}
		}
		t.advance()
		if t.Iterator.IsExhausted() {
			break
		}
	}
	if t.IterationPolicy == IterationPolicyAlwaysSucceed {
		return true, nil
	}
	return overallSuccess, nil
}

// runOnce performs a single blocking Run pass with no timeout, resetting
// doneEvt bookkeeping as needed between iterations.
func (t *Tree) runOnce() {
	if t.Started() {
		// Subsequent iterations: jobs were already reset by advance(); just
		// restart them without re-registering maybeDone callbacks (already
		// wired from the first pass) or flipping started again.
		for _, j := range t.Jobs() {
			j.Start()
		}
		time.Sleep(time.Millisecond)
		t.Join()
		return
	}
	t.Run(true, 0)
}
