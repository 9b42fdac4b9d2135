package core

import (
	"testing"
	"time"
)

func TestLatchWaitBlocksUntilSet(t *testing.T) {
	l := newLatch()
	done := make(chan struct{})
	go func() {
		l.wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait returned before set")
	case <-time.After(10 * time.Millisecond):
	}

	l.set()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after set")
	}
}

func TestLatchSetIsIdempotent(t *testing.T) {
	l := newLatch()
	l.set()
	l.set()
	if !l.isSet() {
		t.Fatal("expected latch to be set")
	}
}

func TestLatchClearRearms(t *testing.T) {
	l := newLatch()
	l.set()
	l.clear()
	if l.isSet() {
		t.Fatal("expected latch to be unset after clear")
	}

	done := make(chan struct{})
	go func() {
		l.wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("wait returned before re-set")
	case <-time.After(10 * time.Millisecond):
	}
	l.set()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter registered after clear did not wake on re-set")
	}
}

func TestLatchClearOnUnsetIsNoOp(t *testing.T) {
	l := newLatch()
	before := l.ch
	l.clear()
	if l.ch != before {
		t.Fatal("clear on an unset latch must not replace the channel")
	}
}
