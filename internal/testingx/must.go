// Package testingx provides helpers for use with the testing package.
package testingx

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/txtar"
)

// Must provides a concise way to handle returned error in tests that
// "should never happen".
//
// This function can be used in test case setup that can be presumed to be
// correct, but technically may return an error. It MUST NOT be used to check
// for test case conditions themselves because it provides a generic,
// nondescript test error message.
//
//	mustRead := testingx.Must[[]byte](t)
//	golden := mustRead(os.ReadFile("a.c.2.out"))
func Must[T any](t *testing.T) func(v T, err error) T {
	return func(v T, err error) T {
		t.Helper()
		if err != nil {
			t.Fatalf("Got: unexpected error: %s. Want: no error.", err)
		}
		return v
	}
}

// WriteTree materializes a txtar archive into a new temporary directory and
// returns its path. File names in the archive are slash-separated paths
// relative to the directory.
func WriteTree(t *testing.T, archive string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", f.Name, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", f.Name, err)
		}
	}
	return dir
}

// Script writes an executable /bin/sh script named name into dir and returns
// its path. Tests using it are skipped on platforms without a POSIX shell.
func Script(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" || runtime.GOOS == "js" {
		t.Skip("test needs a POSIX shell to fake the compiler")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("Failed to write script %s: %v", name, err)
	}
	return path
}

// ReadFile returns the contents of dir/name, or nil and false if it doesn't
// exist.
func ReadFile(t *testing.T, dir, name string) ([]byte, bool) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return nil, false
	}
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return data, true
}
