package core

// Dependency is an edge (Parent, Child, RequiredState) in a Tree's DAG. The
// child is released from its Wait once the parent enters RequiredState.
type Dependency struct {
	Parent        *Job
	Child         *Job
	RequiredState State

	// DColor/UColor are the "defined"/"undefined" edge colors; used only by
	// the dot renderer and the serializer.
	DColor string
	UColor string
}

// newDependency constructs a Dependency with the given RequiredState, as
// passed to AddDep (no default is applied here), and the default edge
// colors.
func newDependency(parent, child *Job, required State) *Dependency {
	return &Dependency{
		Parent:        parent,
		Child:         child,
		RequiredState: required,
		DColor:        "deepskyblue",
		UColor:        "palegreen",
	}
}

// Defined reports whether the parent job has a real body, i.e. is not
// UNDEF. Used only for rendering.
func (d *Dependency) Defined() bool {
	return d.Parent.State() != StateUndef
}

// Wait blocks the caller until the parent reaches RequiredState.
func (d *Dependency) Wait() {
	d.Parent.latches.get(d.RequiredState).wait()
}

func (d *Dependency) String() string {
	return "<Dependency " + d.Parent.Name + "-" + d.Child.Name + ">"
}
