package core

// Iterator is a finite ordered argument sequence attached to a subtree,
// driving how many times the subtree runs and what argument each pass
// receives.
type Iterator struct {
	Name string
	args []string
	run  int
}

// NewIterator builds an Iterator over args, starting at run index 0.
func NewIterator(name string, args []string) *Iterator {
	cp := make([]string, len(args))
	copy(cp, args)
	return &Iterator{Name: name, args: cp}
}

func (it *Iterator) String() string { return "<Iterator " + it.Name + ">" }

// Len returns the number of elements in the argument list.
func (it *Iterator) Len() int { return len(it.args) }

// Run returns the current run index.
func (it *Iterator) Run() int { return it.run }

// IsExhausted reports whether the iterator has consumed every argument.
func (it *Iterator) IsExhausted() bool { return it.run >= len(it.args) }

// Increment advances the run index by one and reports whether the iterator
// still has elements remaining.
func (it *Iterator) Increment() bool {
	it.run++
	return it.run < len(it.args)
}

// Argument returns the argument at the current run index, defensively
// clamped to the last element when run has overrun the list, and "" for an
// empty list. This never panics or errors on overrun.
func (it *Iterator) Argument() string {
	if len(it.args) == 0 {
		return ""
	}
	idx := it.run
	if idx >= len(it.args) {
		idx = len(it.args) - 1
	}
	return it.args[idx]
}
