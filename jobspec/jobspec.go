// Package jobspec loads a Document describing a job tree from JSON and
// builds a core.Tree from it. It stands in for a filesystem
// script-directory scanner: callers assemble a Document from a fixture
// file or a literal instead of scanning a directory tree of scripts.
package jobspec

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/weberc2/exectree/core"
)

// ResourceSpec declares a named, count-limited resource.
type ResourceSpec struct {
	Name  string `json:"name"`
	Avail int    `json:"avail"`
}

// JobSpec declares a single job. If Subtree is set it is the job's body and
// Path is ignored; otherwise Path is the body, and an empty Path builds a
// core.UndefJobPath placeholder.
type JobSpec struct {
	Name         string    `json:"name"`
	Path         string    `json:"path,omitempty"`
	Subtree      *Document `json:"subtree,omitempty"`
	Arguments    []string  `json:"arguments,omitempty"`
	LogFile      string    `json:"logfile,omitempty"`
	Resources    []string  `json:"resources,omitempty"`
	MustComplete *bool     `json:"mustComplete,omitempty"`
	HRef         string    `json:"href,omitempty"`
	TColor       string    `json:"tcolor,omitempty"`
}

// DependencySpec declares an edge: child requires parent to reach State.
type DependencySpec struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	State  string `json:"state"`
}

// IteratorSpec declares the named iterator argument list, applied to a
// Document used as a subtree body.
type IteratorSpec struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// Document is the declarative, round-trippable description of a Tree,
// independent of the core.Tree's own XML wire format (serialize.go):
// Document is an authoring format; Tree.Marshal/Unmarshal is the
// operational one.
type Document struct {
	Name               string            `json:"name"`
	Cwd                string            `json:"cwd,omitempty"`
	HRef               string            `json:"href,omitempty"`
	WaitSuccess        bool              `json:"waitSuccess,omitempty"`
	IterationPolicy    string            `json:"iterationPolicy,omitempty"`
	AcquireTimeoutSecs int               `json:"acquireTimeoutSecs,omitempty"`
	MaxAcquireAttempts int               `json:"maxAcquireAttempts,omitempty"`
	Iterator           *IteratorSpec     `json:"iterator,omitempty"`
	Resources          []ResourceSpec    `json:"resources,omitempty"`
	Jobs               []JobSpec         `json:"jobs"`
	Dependencies       []DependencySpec  `json:"dependencies,omitempty"`
	Legend             map[string]string `json:"legend,omitempty"`
}

// Load parses a Document from r.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding jobspec document")
	}
	return &doc, nil
}

var stateNames = map[string]core.State{
	"IDLE":      core.StateIdle,
	"RUNNING":   core.StateRunning,
	"SUCCESS":   core.StateSuccess,
	"FAILED":    core.StateFailed,
	"CANCELLED": core.StateCancelled,
	"UNDEF":     core.StateUndef,
	"RESET":     core.StateReset,
	"BLOCKED":   core.StateBlocked,
}

// Build assembles a core.Tree from the document, recursing into any
// subtree-bodied jobs.
func (d *Document) Build() (*core.Tree, error) {
	t := core.NewTree(d.Name)
	if d.Cwd != "" {
		t.Cwd = d.Cwd
	}
	t.HRef = d.HRef
	t.WaitSuccess = d.WaitSuccess
	if d.AcquireTimeoutSecs > 0 {
		t.AcquireTimeout = time.Duration(d.AcquireTimeoutSecs) * time.Second
	}
	if d.MaxAcquireAttempts > 0 {
		t.MaxAcquireAttempts = d.MaxAcquireAttempts
	}
	switch d.IterationPolicy {
	case "", "alwaysSucceed":
		t.IterationPolicy = core.IterationPolicyAlwaysSucceed
	case "firstFailure":
		t.IterationPolicy = core.IterationPolicyFirstFailure
	default:
		return nil, errors.Errorf("unknown iterationPolicy %q", d.IterationPolicy)
	}
	if d.Iterator != nil {
		t.Iterator = core.NewIterator(d.Iterator.Name, d.Iterator.Args)
	}
	for k, v := range d.Legend {
		t.Legend[k] = v
	}

	for _, rs := range d.Resources {
		t.AddResource(core.NewResource(rs.Name, rs.Avail))
	}

	for _, js := range d.Jobs {
		job := core.NewJob(js.Name)
		job.Arguments = js.Arguments
		job.LogFile = js.LogFile
		job.HRef = js.HRef
		if js.TColor != "" {
			job.TColor = js.TColor
		}
		if js.MustComplete != nil {
			job.MustComplete = *js.MustComplete
		}
		for _, rname := range js.Resources {
			r := t.FindResource(rname)
			if r == nil {
				return nil, errors.Errorf(
					"job %q references undefined resource %q", js.Name, rname,
				)
			}
			job.Resources = append(job.Resources, r)
		}

		switch {
		case js.Subtree != nil:
			sub, err := js.Subtree.Build()
			if err != nil {
				return nil, errors.Wrapf(err, "building subtree for job %q", js.Name)
			}
			if err := job.SetSubtree(sub); err != nil {
				return nil, err
			}
		default:
			path := js.Path
			if path == "" {
				path = core.UndefJobPath
			}
			if err := job.SetJobPath(path); err != nil {
				return nil, err
			}
		}

		if err := t.AddJob(job); err != nil {
			return nil, errors.Wrapf(err, "adding job %q", js.Name)
		}
	}

	for _, ds := range d.Dependencies {
		state, ok := stateNames[ds.State]
		if !ok {
			return nil, errors.Errorf("unknown dependency state %q", ds.State)
		}
		if _, err := t.AddDep(ds.Parent, ds.Child, state); err != nil {
			return nil, errors.Wrapf(
				err, "adding dependency %s -> %s", ds.Parent, ds.Child,
			)
		}
	}

	return t, nil
}
