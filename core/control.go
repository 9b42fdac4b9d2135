package core

// Control is the thin set of operations the core exposes for an external
// front-end to drive. No RPC/HTTP transport lives in this package, and
// cmd/exectreectl does not call these methods.
type Control interface {
	Progress(scriptName string, value int) bool
	Reschedule(scriptName string) bool
	ManualOverride(scriptName string) bool
	Cancel() bool
	Supported(feature string) bool
}

var _ Control = (*Tree)(nil)

// Progress updates the named job's progress if value is in [0,100] and the
// job exists; returns whether the update was applied.
func (t *Tree) Progress(scriptName string, value int) bool {
	job := t.FindJob(scriptName)
	if job == nil {
		return false
	}
	if value < 0 || value > 100 {
		return false
	}
	job.SetProgress(value)
	return true
}

// Reschedule resets and restarts the named job; fails if the job is not
// DONE (Reset is itself a no-op outside DONE, so this additionally reports
// the failure to the caller rather than silently doing nothing).
func (t *Tree) Reschedule(scriptName string) bool {
	job := t.FindJob(scriptName)
	if job == nil {
		return false
	}
	if !job.IsDone() {
		return false
	}
	if err := job.Reset(); err != nil {
		return false
	}
	job.Start()
	return true
}

// ManualOverride sets a job's state to SUCCESS without executing it,
// clearing latches as if reset then immediately succeeded. Intended for
// operator recovery.
func (t *Tree) ManualOverride(scriptName string) bool {
	job := t.FindJob(scriptName)
	if job == nil {
		return false
	}
	job.mu.Lock()
	job.latches.reset()
	job.state = StateIdle
	job.Override = true
	job.mu.Unlock()
	job.setState(StateSuccess)
	return true
}

// supportedFeatures enumerates the feature names this control surface
// advertises.
var supportedFeatures = map[string]bool{
	"progress":        true,
	"reschedule":      true,
	"manualOverride":  true,
	"cancel":          true,
	"export":          true,
	"waitsuccess":     true,
	"iterationpolicy": true,
}

// Supported is a feature-advertising probe.
func (t *Tree) Supported(feature string) bool {
	return supportedFeatures[feature]
}
