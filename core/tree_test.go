package core

import "testing"

func TestAddJobRejectsDuplicateNames(t *testing.T) {
	tr := NewTree("t")
	a := NewJob("a")
	if err := a.SetJobPath(UndefJobPath); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddJob(a); err != nil {
		t.Fatal(err)
	}

	b := NewJob("a")
	if err := b.SetJobPath(UndefJobPath); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddJob(b); err == nil {
		t.Fatal("expected error adding duplicate job name")
	}
}

func TestAddDepRejectsSelfLoop(t *testing.T) {
	tr := NewTree("t")
	a := NewJob("a")
	a.SetJobPath(UndefJobPath)
	tr.AddJob(a)

	if _, err := tr.AddDep(a, a, StateSuccess); err == nil {
		t.Fatal("expected error for self-loop dependency")
	}
}

func TestAddDepDropsExactDuplicate(t *testing.T) {
	tr := NewTree("t")
	a, b := NewJob("a"), NewJob("b")
	a.SetJobPath(UndefJobPath)
	b.SetJobPath(UndefJobPath)
	tr.AddJob(a)
	tr.AddJob(b)

	if _, err := tr.AddDep(a, b, StateSuccess); err != nil {
		t.Fatal(err)
	}
	before := len(tr.Deps())

	dep, err := tr.AddDep(a, b, StateSuccess)
	if err != nil {
		t.Fatalf("duplicate add_dep should not error: %v", err)
	}
	if dep != nil {
		t.Fatalf("expected nil dependency for exact duplicate, got %v", dep)
	}
	if len(tr.Deps()) != before {
		t.Fatalf("deps length changed on duplicate add: before=%d after=%d", before, len(tr.Deps()))
	}
}

func TestValidateSingleStemNoCycles(t *testing.T) {
	tr := NewTree("t")
	a, b, c := NewJob("a"), NewJob("b"), NewJob("c")
	for _, j := range []*Job{a, b, c} {
		j.SetJobPath("/bin/true")
		tr.AddJob(j)
	}
	tr.AddDep(a, b, StateSuccess)
	tr.AddDep(b, c, StateSuccess)

	if errs := tr.Validate(); len(errs) != 0 {
		t.Fatalf("expected a valid tree, got errors: %v", errs)
	}
	if stems := tr.Stems(); len(stems) != 1 || stems[0] != a {
		t.Fatalf("expected exactly one stem (a), got %v", stems)
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	tr := NewTree("t")
	a, b := NewJob("a"), NewJob("b")
	a.SetJobPath(UndefJobPath)
	b.SetJobPath(UndefJobPath)
	tr.AddJob(a)
	tr.AddJob(b)
	tr.AddDep(a, b, StateSuccess)
	tr.AddDep(b, a, StateSuccess)

	errs := tr.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation errors for a cyclic tree")
	}
	found := false
	for _, e := range errs {
		if e == "Tree t has cycles." {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cycles message, got: %v", errs)
	}
}

func TestValidateRejectsMultipleStems(t *testing.T) {
	tr := NewTree("t")
	a, b := NewJob("a"), NewJob("b")
	a.SetJobPath("/bin/true")
	b.SetJobPath("/bin/true")
	tr.AddJob(a)
	tr.AddJob(b)

	errs := tr.Validate()
	if len(errs) == 0 {
		t.Fatal("expected an error for a tree with two unconnected stems")
	}
}

func TestOneOfJobPathOrSubtreeInvariant(t *testing.T) {
	j := NewJob("j")
	if err := j.SetJobPath("/bin/true"); err != nil {
		t.Fatal(err)
	}
	sub := NewTree("sub")
	if err := j.SetSubtree(sub); err == nil {
		t.Fatal("expected error setting subtree when jobpath is already set")
	}
}
