package core

import (
	"strings"
	"testing"
)

func TestStatusSnapshotIncludesSubtreeJobs(t *testing.T) {
	tr := NewTree("outer")
	sub := NewTree("inner")
	sub.Iterator = NewIterator("it", []string{"a", "b"})

	l := NewJob("l")
	l.SetJobPath(UndefJobPath)
	sub.AddJob(l)

	host := NewJob("host")
	host.SetSubtree(sub)
	tr.AddJob(host)

	snap := tr.StatusSnapshot()
	if _, ok := snap["host"]; !ok {
		t.Fatal("expected snapshot to include the host job")
	}
	if _, ok := snap["l"]; !ok {
		t.Fatal("expected snapshot to include the nested subtree's job")
	}
	if snap["host"].Iteration != "0/2" {
		t.Fatalf("expected host's iteration to be 0/2, got %q", snap["host"].Iteration)
	}
	if snap["l"].Iteration != "" {
		t.Fatalf("expected l (not itself subtree-bodied) to have no iteration, got %q", snap["l"].Iteration)
	}
}

func TestSnapshotMarshalJSONIsDeterministic(t *testing.T) {
	snap := Snapshot{
		"zeta":  JobStatus{Status: "white"},
		"alpha": JobStatus{Status: "gray"},
		"mid":   JobStatus{Status: "red"},
	}
	data, err := snap.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if strings.Index(s, "alpha") > strings.Index(s, "mid") ||
		strings.Index(s, "mid") > strings.Index(s, "zeta") {
		t.Fatalf("expected keys in sorted order, got %s", s)
	}
}
