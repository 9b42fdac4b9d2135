package core

import "testing"

func TestIteratorWalksArguments(t *testing.T) {
	it := NewIterator("i", []string{"qwe", "asd", "zxc"})
	if it.Len() != 3 {
		t.Fatalf("expected len 3, got %d", it.Len())
	}
	if it.Argument() != "qwe" {
		t.Fatalf("expected first argument qwe, got %q", it.Argument())
	}
	if !it.Increment() {
		t.Fatal("expected Increment to report more elements remaining")
	}
	if it.Argument() != "asd" {
		t.Fatalf("expected second argument asd, got %q", it.Argument())
	}
	if it.Run() != 1 {
		t.Fatalf("expected run index 1, got %d", it.Run())
	}
	if !it.Increment() {
		t.Fatal("expected Increment to report the third element remaining")
	}
	if it.Argument() != "zxc" {
		t.Fatalf("expected third argument zxc, got %q", it.Argument())
	}
	if it.Increment() {
		t.Fatal("expected Increment to report exhaustion after the last element")
	}
	if !it.IsExhausted() {
		t.Fatal("expected iterator to be exhausted")
	}
}

func TestIteratorEmptyArgListClampsToEmptyString(t *testing.T) {
	it := NewIterator("i", nil)
	if it.Argument() != "" {
		t.Fatalf("expected empty argument for empty iterator, got %q", it.Argument())
	}
	if !it.IsExhausted() {
		t.Fatal("expected an empty iterator to report exhausted immediately")
	}
}

func TestIteratorArgumentClampsOnOverrun(t *testing.T) {
	it := NewIterator("i", []string{"a", "b"})
	it.Increment()
	it.Increment()
	if it.Argument() != "b" {
		t.Fatalf("expected Argument to clamp to the last element, got %q", it.Argument())
	}
}
