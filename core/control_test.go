package core

import "testing"

func TestProgressRejectsOutOfRangeAndMissingJob(t *testing.T) {
	tr := NewTree("t")
	a := NewJob("a")
	a.SetJobPath(UndefJobPath)
	tr.AddJob(a)

	if !tr.Progress("a", 50) {
		t.Fatal("expected a valid progress update to apply")
	}
	if a.Progress() != 50 {
		t.Fatalf("expected progress 50, got %d", a.Progress())
	}
	if tr.Progress("a", 101) {
		t.Fatal("expected an out-of-range progress update to be rejected")
	}
	if tr.Progress("missing", 10) {
		t.Fatal("expected Progress against an unknown job to fail")
	}
}

func TestRescheduleRequiresDoneJob(t *testing.T) {
	tr := NewTree("t")
	a := NewJob("a")
	a.SetJobPath("/bin/true")
	tr.AddJob(a)

	if tr.Reschedule("a") {
		t.Fatal("expected Reschedule to fail on a job that hasn't run yet")
	}
	if tr.Reschedule("missing") {
		t.Fatal("expected Reschedule against an unknown job to fail")
	}
}

func TestManualOverrideForcesSuccess(t *testing.T) {
	tr := NewTree("t")
	a := NewJob("a")
	a.SetJobPath(UndefJobPath)
	tr.AddJob(a)

	if !tr.ManualOverride("a") {
		t.Fatal("expected ManualOverride to succeed for an existing job")
	}
	if !a.IsSuccess() {
		t.Fatal("expected the overridden job to report success")
	}
	if !a.Override {
		t.Fatal("expected the Override flag to be set")
	}
	if tr.ManualOverride("missing") {
		t.Fatal("expected ManualOverride against an unknown job to fail")
	}
}

func TestSupportedAdvertisesKnownFeaturesOnly(t *testing.T) {
	tr := NewTree("t")
	if !tr.Supported("reschedule") {
		t.Fatal("expected reschedule to be a supported feature")
	}
	if tr.Supported("teleportation") {
		t.Fatal("expected an unknown feature to be unsupported")
	}
}

func TestTreeCancelIsIdempotentAndPropagates(t *testing.T) {
	tr := NewTree("t")
	a := NewJob("a")
	a.SetJobPath("/bin/true")
	tr.AddJob(a)

	if !tr.Cancel() {
		t.Fatal("expected first Cancel to report true")
	}
	if tr.Cancel() {
		t.Fatal("expected a second Cancel to report false")
	}
	if !tr.Cancelled() {
		t.Fatal("expected the tree to report cancelled")
	}
	if !a.IsCancelled() {
		t.Fatal("expected Cancel to propagate to jobs")
	}
}
