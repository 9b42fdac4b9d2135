package core

import "fmt"

// TreeDefinedErr is returned when a Job that already belongs to a tree is
// added to another one.
type TreeDefinedErr struct {
	Job string
}

func (err TreeDefinedErr) Error() string {
	return fmt.Sprintf("job %s already belongs to a tree", err.Job)
}

// JobDefinedErr is returned when AddJob is called with a name that is
// already present in the tree.
type JobDefinedErr struct {
	Name string
}

func (err JobDefinedErr) Error() string {
	return fmt.Sprintf("job with name '%s' already part of tree", err.Name)
}

// JobUndefinedErr is returned when a dependency references a job that is
// not a member of the tree (or references a name that can't be resolved).
type JobUndefinedErr struct {
	Name string
}

func (err JobUndefinedErr) Error() string {
	return fmt.Sprintf("job '%s' is not defined in tree", err.Name)
}

// DependencyErr is returned for malformed dependency edges, e.g. self-loops.
type DependencyErr struct {
	Reason string
}

func (err DependencyErr) Error() string {
	return fmt.Sprintf("dependency error: %s", err.Reason)
}

// UnknownStateErr is returned when a state value outside the enumerated set
// is assigned to a Job or used to construct a Dependency.
type UnknownStateErr struct {
	Value State
}

func (err UnknownStateErr) Error() string {
	return fmt.Sprintf("job state cannot be changed to %d", int(err.Value))
}

// XMLError is returned when a serialized document does not match the
// expected schema or carries an unsupported version.
type XMLError struct {
	Reason string
}

func (err XMLError) Error() string {
	return fmt.Sprintf("xml error: %s", err.Reason)
}

// JobError is returned for invalid body mutations, e.g. setting JobPath
// after the job has left the PRE-START partition.
type JobError struct {
	Reason string
}

func (err JobError) Error() string {
	return err.Reason
}

// IteratorOverrunErr is reserved; the current Iterator.Argument
// implementation defensively clamps out-of-range access rather than
// returning this error (see DESIGN.md).
type IteratorOverrunErr struct {
	Run, Len int
}

func (err IteratorOverrunErr) Error() string {
	return fmt.Sprintf(
		"iterator overrun: run %d >= len %d",
		err.Run,
		err.Len,
	)
}
