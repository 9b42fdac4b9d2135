package core

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// UndefJobPath is the sentinel JobPath value meaning "no-op" placeholder
// job.
const UndefJobPath = "-"

// defaultAcquireTimeout and defaultMaxAcquireAttempts bound how long and
// how many times a job retries acquiring its resources before failing.
const (
	defaultAcquireTimeout   = 60 * time.Second
	defaultMaxAcquireAttempts = 1000
)

// Job is a single executable unit in a Tree: exactly one of JobPath or
// Subtree may be set.
type Job struct {
	UUID uuid.UUID
	Name string

	HRef   string
	TColor string

	MustComplete bool
	Override     bool

	Arguments []string
	LogFile   string
	Resources []*Resource

	mu       sync.Mutex
	state    State
	jobPath  string
	hasPath  bool
	subtree  *Tree
	progress int
	execCount int
	failCount int

	tree    *Tree // weak back-reference; Tree exclusively owns Jobs
	latches *latchSet

	// onStateChange holds callbacks registered by the owning Tree and
	// invoked after every actual state transition. Used to drive the
	// tree's maybe-done evaluation.
	onStateChange []func()

	// acquireTimeout/maxAcquireAttempts override the package defaults when
	// non-zero; set by Tree.AddJob from Tree-level configuration.
	acquireTimeout     time.Duration
	maxAcquireAttempts int
}

// NewJob constructs an unattached Job. Call SetJobPath/SetSubtree to give it
// a body before adding it to a Tree, or call SetJobPath(UndefJobPath) for a
// no-op placeholder.
func NewJob(name string) *Job {
	j := &Job{
		UUID:         uuid.New(),
		Name:         name,
		MustComplete: true,
		TColor:       "lavender",
		progress:     -1,
		latches:      newLatchSet(),
		state:        StateIdle,
	}
	return j
}

func (j *Job) String() string { return "<Job " + j.Name + ">" }

// Tree returns the Tree this job belongs to, or nil if unattached.
func (j *Job) Tree() *Tree {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tree
}

// setTree assigns the job's owning tree. Reassignment fails.
func (j *Job) setTree(t *Tree) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.tree != nil {
		return TreeDefinedErr{Job: j.Name}
	}
	j.tree = t
	return nil
}

// JobPath returns the job's executable path, or "" if the job's body is a
// subtree (or unset).
func (j *Job) JobPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jobPath
}

// SetJobPath sets the job's body to an executable. It fails if a subtree is
// already set, or if the job has left the PRE-START partition. Setting
// UndefJobPath while IDLE transitions the job to UNDEF immediately.
func (j *Job) SetJobPath(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.subtree != nil && path != "" {
		return JobError{Reason: "jobpath cannot be used if subtree is set"}
	}
	if !isPreStart(j.state) {
		return JobError{
			Reason: "jobpath cannot be modified after job has been started",
		}
	}
	j.jobPath = path
	j.hasPath = true
	if path == UndefJobPath && j.state == StateIdle {
		j.state = StateUndef
	}
	return nil
}

// Subtree returns the job's embedded Tree body, or nil.
func (j *Job) Subtree() *Tree {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.subtree
}

// SetSubtree sets the job's body to an embedded Tree. Fails under the same
// conditions as SetJobPath.
func (j *Job) SetSubtree(t *Tree) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.hasPath && j.jobPath != "" {
		return JobError{Reason: "subtree cannot be used if jobpath is set"}
	}
	if !isPreStart(j.state) {
		return JobError{
			Reason: "subtree cannot be modified after job has been started",
		}
	}
	j.subtree = t
	return nil
}

// State returns the job's current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// setState validates and assigns a new state, firing the corresponding
// latch (and statechange) exactly once per entry. Re-entering the same
// state is a no-op.
func (j *Job) setState(s State) error {
	if !s.valid() {
		return UnknownStateErr{Value: s}
	}
	j.mu.Lock()
	if j.state == s {
		j.mu.Unlock()
		return nil
	}
	j.state = s
	latches := j.latches
	callbacks := append([]func(){}, j.onStateChange...)
	j.mu.Unlock()

	latches.fire(s)
	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// onAnyStateChange registers a callback invoked after every actual state
// transition of this job. The tree uses this to wire every job's latches
// to its maybe-done evaluation.
func (j *Job) onAnyStateChange(cb func()) {
	j.mu.Lock()
	j.onStateChange = append(j.onStateChange, cb)
	j.mu.Unlock()
}

// Progress returns the job's last reported progress, -1 if unknown.
func (j *Job) Progress() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// SetProgress accepts integers in [0,100] and silently ignores out-of-range
// values. Progress is for external observers only; it has no bearing on
// scheduling.
func (j *Job) SetProgress(value int) {
	if value < 0 || value > 100 {
		return
	}
	j.mu.Lock()
	j.progress = value
	j.mu.Unlock()
}

// ExecCount and FailCount report how many times the job's body has been
// invoked, and how many of those invocations failed.
func (j *Job) ExecCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.execCount
}

func (j *Job) FailCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failCount
}

// IsDone, IsSuccess, IsCancelled, IsDefined are state-partition predicates.
func (j *Job) IsDone() bool      { return isDone(j.State()) }
func (j *Job) IsSuccess() bool   { return isSuccess(j.State()) }
func (j *Job) IsCancelled() bool { return j.State() == StateCancelled }
func (j *Job) IsDefined() bool   { return j.State() != StateUndef }

// event returns the latch for the given state, used by Dependency.Wait and
// tests.
func (j *Job) event(s State) *latch { return j.latches.get(s) }

// parentDeps and childDeps return the edges of the owning tree where this
// job is the child/parent respectively.
func (j *Job) parentDeps() []*Dependency {
	var out []*Dependency
	t := j.Tree()
	if t == nil {
		return out
	}
	for _, d := range t.deps {
		if d.Child == j {
			out = append(out, d)
		}
	}
	return out
}

func (j *Job) childDeps() []*Dependency {
	var out []*Dependency
	t := j.Tree()
	if t == nil {
		return out
	}
	for _, d := range t.deps {
		if d.Parent == j {
			out = append(out, d)
		}
	}
	return out
}

// Parents and Children return the jobs connected via parentDeps/childDeps.
func (j *Job) Parents() []*Job {
	deps := j.parentDeps()
	out := make([]*Job, len(deps))
	for i, d := range deps {
		out[i] = d.Parent
	}
	return out
}

func (j *Job) Children() []*Job {
	deps := j.childDeps()
	out := make([]*Job, len(deps))
	for i, d := range deps {
		out[i] = d.Child
	}
	return out
}

// hasDefinedAncestors reports whether any ancestor of j is defined
// (not UNDEF), used to compute Tree.Stems.
func (j *Job) hasDefinedAncestors() bool {
	for _, p := range j.Parents() {
		if p.IsDefined() {
			return true
		}
		if p.hasDefinedAncestors() {
			return true
		}
	}
	return false
}

// Validate returns human-readable validation errors for this job alone
// (body presence, executable-ness, recursion into a subtree body).
func (j *Job) Validate() []string {
	var errs []string
	j.mu.Lock()
	hasPath := j.hasPath && j.jobPath != ""
	path := j.jobPath
	subtree := j.subtree
	j.mu.Unlock()

	switch {
	case hasPath && subtree != nil:
		errs = append(errs, "subtree and jobpath of "+j.Name+
			" are set. Only one can be set.")
	case hasPath:
		if path == UndefJobPath {
			// no-op jobs are allowed
		} else if err := validateExecutable(path); err != "" {
			errs = append(errs, "File "+path+" needed by job "+j.Name+" "+err)
		}
	case subtree != nil:
		errs = append(errs, subtree.Validate()...)
	default:
		errs = append(errs, "subtree or jobpath of "+j.Name+" must be set.")
	}
	return errs
}

// Reset returns a DONE job to RESET, clearing every latch so it may be
// re-started. It is a no-op unless the job is DONE.
func (j *Job) Reset() error {
	j.mu.Lock()
	if !isDone(j.state) {
		j.mu.Unlock()
		return nil
	}
	j.latches.reset()
	j.state = StateReset
	j.mu.Unlock()
	return nil
}

// Cancel transitions a job that is neither RUNNING nor DONE directly to
// CANCELLED. A DONE job (UNDEF included) is left in its state and Cancel
// returns true. A RUNNING job cannot be forcibly killed: Cancel returns
// false and the job is left to finish naturally.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	state := j.state
	j.mu.Unlock()

	if state == StateRunning {
		return false
	}
	if isDone(state) {
		return true
	}
	j.setState(StateCancelled)
	return true
}

// Start spawns the job's execution goroutine. UNDEF jobs short-circuit:
// they never invoke a body, but they still wait for their own parent
// dependencies before their SUCCESS latch fires. A job in RESET moves to
// IDLE. Returns false, spawning nothing, if a non-UNDEF job is already in
// SUCCESS.
func (j *Job) Start() bool {
	if j.State() == StateUndef {
		go j.runUndef()
		return true
	}
	if j.IsSuccess() {
		return false
	}
	if j.State() == StateReset {
		j.setState(StateIdle)
	}
	go j.run()
	return true
}

// runUndef waits for parent dependencies, then fires the SUCCESS latch
// without invoking any body and without changing j.state away from UNDEF
// (UNDEF is a permanent designation of the job's body, not a transient
// runtime state: it must still read as UNDEF on subsequent advance() calls
// in an iterated subtree, whose reset pass must never touch an UNDEF
// job).
func (j *Job) runUndef() {
	for _, dep := range j.parentDeps() {
		dep.Wait()
	}
	j.latches.fire(StateSuccess)
	j.mu.Lock()
	callbacks := append([]func(){}, j.onStateChange...)
	j.mu.Unlock()
	for _, cb := range callbacks {
		cb()
	}
}

// run drives a single job invocation from parent-wait through body
// execution to its terminal state.
func (j *Job) run() {
	for _, dep := range j.parentDeps() {
		dep.Wait()
	}
	if isDone(j.State()) {
		return
	}

	ok, err := j.acquireResources()
	if !ok {
		if err != nil {
			j.setState(StateFailed)
		}
		return
	}
	if isDone(j.State()) {
		// Cancelled between acquiring resources and starting the body; give
		// back the reservation since the body closure that would normally
		// release it never runs.
		releaseAll(j.Resources)
		return
	}

	var rcode int
	var runErr error
	j.setState(StateRunning)

	func() {
		defer releaseAll(j.Resources)

		if t := j.Tree(); t != nil {
			gate := t.concurrencyGate()
			gate.Acquire()
			defer gate.Release()
		}

		switch {
		case j.hasPath && j.jobPath != "":
			rcode, runErr = j.runExecutable()
		case j.subtree != nil:
			rcode, runErr = j.runSubtree()
		default:
			runErr = JobError{Reason: "job has no body"}
		}
	}()

	j.mu.Lock()
	j.execCount++
	j.mu.Unlock()

	if runErr == nil && rcode == 0 {
		j.setState(StateSuccess)
	} else {
		j.mu.Lock()
		j.failCount++
		j.mu.Unlock()
		j.setState(StateFailed)
	}
}

// runExecutable spawns the job's script per the subprocess contract
// defined in process.go.
func (j *Job) runExecutable() (int, error) {
	t := j.Tree()
	var extra string
	if t != nil {
		extra = t.Argument()
	}
	return runProcess(processSpec{
		Path:      j.jobPath,
		Arguments: j.Arguments,
		ExtraArg:  extra,
		Cwd:       treeCwd(t),
		LogFile:   j.LogFile,
	})
}

// runSubtree invokes the subtree's iterated run (core/tree.go: iterrun).
// The subtree's aggregation policy controls whether a failing iteration
// fails the host job.
func (j *Job) runSubtree() (int, error) {
	ok, err := j.subtree.iterrun()
	if err != nil {
		return 1, err
	}
	if ok {
		return 0, nil
	}
	return 1, nil
}

func treeCwd(t *Tree) string {
	if t == nil {
		return ""
	}
	return t.Cwd
}

// acquireResources implements two-phase-with-backoff multi-resource
// acquisition. It is intentionally lock-free at the scheduler level:
// resources are reserved in declared order, and any single failed
// reservation causes every resource reserved so far to be released before
// retrying with jittered backoff.
func (j *Job) acquireResources() (bool, error) {
	if len(j.Resources) < 1 {
		return true, nil
	}

	acquireTimeout := j.acquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	maxAttempts := j.maxAcquireAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAcquireAttempts
	}

	j.setState(StateBlocked)

	backoff := time.Duration(len(j.Resources)) * acquireTimeout

	attempt := 0
	for {
		reserved := make([]*Resource, 0, len(j.Resources))
		ok := true
		for _, r := range j.Resources {
			if r.Reserve(true, acquireTimeout) {
				reserved = append(reserved, r)
			} else {
				ok = false
				break
			}
		}
		if ok {
			if isDone(j.State()) {
				// Cancelled (or otherwise finished) while parked BLOCKED;
				// give back what we just reserved and let the caller see
				// the job as already done rather than forcing it back to
				// IDLE and running its body anyway.
				releaseAll(reserved)
				return false, nil
			}
			j.setState(StateIdle)
			return true, nil
		}

		releaseAll(reserved)
		attempt++
		if maxAttempts > 0 && attempt >= maxAttempts {
			return false, errors.Errorf(
				"resource deadlock prevention exceeded max attempts for %s",
				j.Name,
			)
		}
		jitter := time.Duration(rand.Int63n(int64(acquireTimeout) + 1))
		sleepWithContext(context.Background(), backoff+jitter)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
