package core

import (
	"os"
	"path/filepath"
	"testing"
)

// writeScript writes an executable shell script to dir/name and returns its
// absolute path, for tests that exercise real subprocesses rather than
// mocking exec.Command.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("writing script %s: %v", name, err)
	}
	return path
}
