package sequencer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/beluga-cc/tstrun/internal/testingx"
)

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "a.c", want: true},
		{name: "A.C", want: true},
		{name: "d-xtra-ttype-1.c", want: true},
		{name: "e_33_2.c", want: true},
		{name: "pp-103-1.c", want: true},
		{name: "a.h", want: false},
		{name: "a.c.1.out", want: false},
		{name: "a.c.1.out.new", want: false},
		{name: "a.c.x86-test.s", want: false},
		{name: ".c", want: false},
		{name: "a_.c", want: false},
		{name: "a.cc", want: false},
		{name: "ID", want: false},
	}

	for _, test := range tests {
		if got := IsTestFile(test.name); got != test.want {
			t.Errorf("Got: IsTestFile(%q) = %v. Want: %v.", test.name, got, test.want)
		}
	}
}

func TestReadID(t *testing.T) {
	dir := testingx.WriteTree(t, "-- ID --\nsea-canary\n\n")
	got, err := ReadID(dir)
	if err != nil {
		t.Fatalf("ReadID() returned error: %v", err)
	}
	if got != "sea-canary" {
		t.Errorf("Got: %q. Want: %q.", got, "sea-canary")
	}

	if _, err := ReadID(t.TempDir()); !errors.Is(err, ErrNoIdentification) {
		t.Errorf("Got: error %v. Want: %v.", err, ErrNoIdentification)
	}
}

func TestParseExclusions(t *testing.T) {
	e := ParseExclusions([]byte("skip.c\n\nother.c\r\n  \nskip.c\nlast.c"))
	if diff := cmp.Diff([]string{"skip.c", "other.c", "last.c"}, e.Names); diff != "" {
		t.Errorf("Names differ (-want,+got):\n%s", diff)
	}
	for _, name := range []string{"skip.c", "other.c", "last.c"} {
		if !e.Has(name) {
			t.Errorf("Got: Has(%q) = false. Want: true.", name)
		}
	}
	if e.Has("") || e.Has("keep.c") {
		t.Errorf("Got: unexpected names excluded: %v.", e.Names)
	}
	if !e.Present {
		t.Errorf("Got: Present = false. Want: true for a parsed manifest.")
	}
}

func TestReadExclusionsMissing(t *testing.T) {
	e, err := ReadExclusions(t.TempDir())
	if err != nil {
		t.Fatalf("ReadExclusions() returned error: %v", err)
	}
	if e.Present || len(e.Names) != 0 || e.Has("a.c") {
		t.Errorf("Got: %+v. Want: empty exclusions.", e)
	}
}

func TestDiscover(t *testing.T) {
	dir := testingx.WriteTree(t, `
-- ID --
sea-canary
-- EXCLUDE --
skip.c
-- b.c --
-- a.c --
-- skip.c --
-- a.c.2.out --
-- a.c.2.out.new --
-- notes.txt --
-- Z-9.C --
`)
	if err := os.Mkdir(filepath.Join(dir, "sub.c"), 0o755); err != nil {
		t.Fatal(err)
	}
	excl, err := ReadExclusions(dir)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Discover(dir, excl)
	if err != nil {
		t.Fatalf("Discover() returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"Z-9.C", "a.c", "b.c"}, got); diff != "" {
		t.Errorf("Discover() returned diff (-want,+got):\n%s", diff)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "nope"), Exclusions{}); err == nil {
		t.Errorf("Got: no error. Want: error for a missing directory.")
	}
}
