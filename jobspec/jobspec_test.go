package jobspec

import (
	"strings"
	"testing"

	"github.com/weberc2/exectree/core"
)

func TestBuildSimpleChain(t *testing.T) {
	doc := Document{
		Name: "t",
		Jobs: []JobSpec{
			{Name: "a", Path: "/bin/true"},
			{Name: "b", Path: "/bin/true"},
		},
		Dependencies: []DependencySpec{
			{Parent: "a", Child: "b", State: "SUCCESS"},
		},
	}

	tr, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tr.Jobs()) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(tr.Jobs()))
	}
	if len(tr.Deps()) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(tr.Deps()))
	}
	if errs := tr.Validate(); len(errs) != 0 {
		t.Fatalf("expected a valid tree, got errors: %v", errs)
	}
}

func TestBuildResolvesResourceReferences(t *testing.T) {
	doc := Document{
		Name:      "t",
		Resources: []ResourceSpec{{Name: "R", Avail: 1}},
		Jobs: []JobSpec{
			{Name: "a", Path: "/bin/true", Resources: []string{"R"}},
		},
	}
	tr, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a := tr.FindJob("a")
	if a == nil || len(a.Resources) != 1 || a.Resources[0].Name != "R" {
		t.Fatalf("expected job a to reference resource R, got %+v", a)
	}
}

func TestBuildRejectsUnknownResourceReference(t *testing.T) {
	doc := Document{
		Name: "t",
		Jobs: []JobSpec{
			{Name: "a", Path: "/bin/true", Resources: []string{"missing"}},
		},
	}
	if _, err := doc.Build(); err == nil {
		t.Fatal("expected an error for an undefined resource reference")
	}
}

func TestBuildRejectsUnknownDependencyState(t *testing.T) {
	doc := Document{
		Name: "t",
		Jobs: []JobSpec{
			{Name: "a", Path: "/bin/true"},
			{Name: "b", Path: "/bin/true"},
		},
		Dependencies: []DependencySpec{
			{Parent: "a", Child: "b", State: "NOPE"},
		},
	}
	if _, err := doc.Build(); err == nil {
		t.Fatal("expected an error for an unknown dependency state")
	}
}

func TestBuildRecursesIntoSubtreeJob(t *testing.T) {
	doc := Document{
		Name: "outer",
		Jobs: []JobSpec{
			{
				Name: "host",
				Subtree: &Document{
					Name:     "inner",
					Iterator: &IteratorSpec{Name: "it", Args: []string{"x", "y"}},
					Jobs: []JobSpec{
						{Name: "l", Path: "/bin/true"},
					},
				},
			},
		},
	}

	tr, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	host := tr.FindJob("host")
	if host == nil {
		t.Fatal("expected to find host job")
	}
	sub := host.Subtree()
	if sub == nil {
		t.Fatal("expected host to carry a subtree")
	}
	if sub.Iterator == nil || sub.Iterator.Len() != 2 {
		t.Fatalf("expected the subtree's iterator to carry 2 arguments, got %+v", sub.Iterator)
	}
	if sub.FindJob("l") == nil {
		t.Fatal("expected the nested subtree to contain job l")
	}
}

func TestBuildDefaultsBareJobToUndef(t *testing.T) {
	doc := Document{
		Name: "t",
		Jobs: []JobSpec{{Name: "a"}},
	}
	tr, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a := tr.FindJob("a")
	if a == nil || a.JobPath() != core.UndefJobPath {
		t.Fatalf("expected job a to default to the undef path, got %+v", a)
	}
}

func TestLoadParsesJSON(t *testing.T) {
	r := strings.NewReader(`{"name":"t","jobs":[{"name":"a","path":"/bin/true"}]}`)
	doc, err := Load(r)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Name != "t" || len(doc.Jobs) != 1 || doc.Jobs[0].Name != "a" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}
