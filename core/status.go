package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// JobStatus is a single job's projection for UI consumption.
type JobStatus struct {
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Iteration string `json:"iteration,omitempty"`
}

// Snapshot is the full per-job status projection, keyed on job name,
// including jobs nested inside subtrees.
type Snapshot map[string]JobStatus

// rjobs yields every job in the tree, recursing into subtree bodies.
func (t *Tree) rjobs(yield func(*Job)) {
	for _, j := range t.Jobs() {
		yield(j)
		if sub := j.Subtree(); sub != nil {
			sub.rjobs(yield)
		}
	}
}

// StatusSnapshot builds a Snapshot for this tree and every nested subtree.
func (t *Tree) StatusSnapshot() Snapshot {
	snap := Snapshot{}
	t.rjobs(func(j *Job) {
		entry := JobStatus{
			Status:   StateColors[j.State()],
			Progress: j.Progress(),
		}
		if sub := j.Subtree(); sub != nil && sub.Iterator != nil {
			entry.Iteration = fmt.Sprintf(
				"%d/%d",
				sub.Iterator.Run(),
				sub.Iterator.Len(),
			)
		}
		snap[j.Name] = entry
	})
	return snap
}

// MarshalJSON renders the snapshot as a flat JSON object with a
// hand-rolled ordered encoding rather than relying on map-order-independent
// encoding/json defaults, so output is stable for diffing/tests.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := bytes.NewBuffer(make([]byte, 0, 256))
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(s[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
