package core

import "testing"

func buildFixtureTree() *Tree {
	tr := NewTree("fixture")
	tr.Cwd = "/tmp"
	tr.HRef = "https://example/fixture"
	tr.Legend["custom"] = "note"

	r := NewResource("R", 2)
	tr.AddResource(r)

	a := NewJob("a")
	a.SetJobPath("/bin/true")
	a.Arguments = []string{"x", "y"}
	a.Resources = []*Resource{r}
	tr.AddJob(a)

	b := NewJob("b")
	b.SetJobPath(UndefJobPath)
	tr.AddJob(b)
	tr.AddDep(a, b, StateSuccess)

	return tr
}

func TestSerializeRoundTrip(t *testing.T) {
	orig := buildFixtureTree()
	data, err := orig.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if parsed.Name != orig.Name || parsed.Cwd != orig.Cwd || parsed.HRef != orig.HRef {
		t.Fatalf("tree attributes did not round-trip: %+v", parsed)
	}
	if len(parsed.Jobs()) != len(orig.Jobs()) {
		t.Fatalf("expected %d jobs, got %d", len(orig.Jobs()), len(parsed.Jobs()))
	}
	if len(parsed.Resources()) != 1 || parsed.Resources()[0].Name != "R" || parsed.Resources()[0].Avail != 2 {
		t.Fatalf("resource did not round-trip: %+v", parsed.Resources())
	}

	pa := parsed.FindJob("a")
	if pa == nil {
		t.Fatal("expected job a to round-trip")
	}
	if pa.JobPath() != "/bin/true" {
		t.Fatalf("expected jobpath to round-trip, got %q", pa.JobPath())
	}
	if len(pa.Arguments) != 2 || pa.Arguments[0] != "x" || pa.Arguments[1] != "y" {
		t.Fatalf("expected arguments to round-trip, got %v", pa.Arguments)
	}
	if len(pa.Resources) != 1 || pa.Resources[0].Name != "R" {
		t.Fatalf("expected resource reference to round-trip, got %v", pa.Resources)
	}

	pb := parsed.FindJob("b")
	if pb == nil {
		t.Fatal("expected job b to round-trip")
	}
	if pb.State() != StateUndef {
		t.Fatalf("expected job b to round-trip as UNDEF, got %v", pb.State())
	}

	if len(parsed.Deps()) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(parsed.Deps()))
	}
	dep := parsed.Deps()[0]
	if dep.Parent.Name != "a" || dep.Child.Name != "b" || dep.RequiredState != StateSuccess {
		t.Fatalf("dependency did not round-trip: %+v", dep)
	}

	if parsed.Legend["custom"] != "note" {
		t.Fatalf("expected legend entry to round-trip, got %v", parsed.Legend)
	}
}

func TestUnmarshalRejectsWrongVersion(t *testing.T) {
	data := []byte(`<execTree version="0.9" name="x" uuid="` +
		"00000000-0000-0000-0000-000000000000" + `" href="" cwd="/"></execTree>`)
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected an error for an unsupported document version")
	}
}

func TestUnmarshalRejectsWrongRootElement(t *testing.T) {
	data := []byte(`<notATree version="1.0"></notATree>`)
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected an error for the wrong root element")
	}
}
