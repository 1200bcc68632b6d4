// Package golden checks the output of the compiler under test against
// recorded golden files.
//
// For diagnostic suites every checked channel n of test <name> is compared
// with <name>.<n>.out. For assembly suites the compiler is run once per target
// and its stdout is compared with <name>.<target>. Comparison is byte for
// byte. When the output differs, or the golden file does not exist, the
// captured bytes are written next to it as a candidate (<name>.<n>.out.new or
// <name>.<target>.s) for review.
package golden

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/beluga-cc/tstrun/internal/runner"
	"github.com/beluga-cc/tstrun/internal/suite"
)

// Failure messages reported in Result.Message.
const (
	ReadFailure  = "cannot read test code"
	WriteFailure = "cannot write output file"
)

// Candidate file suffixes.
const (
	DiagnosticsSuffix = ".new"
	AssemblySuffix    = ".s"
)

// Result is the outcome of one test.
type Result struct {
	Name    string
	Failed  bool
	Message string
}

func pass(name string) Result {
	return Result{Name: name}
}

func fail(name, msg string) Result {
	return Result{Name: name, Failed: true, Message: msg}
}

// DiagnosticsFile returns the golden file name for a channel of a test.
func DiagnosticsFile(name string, ch suite.Channel) string {
	return name + "." + strconv.Itoa(int(ch)) + ".out"
}

// AssemblyFile returns the golden file name for a target of a test.
func AssemblyFile(name, target string) string {
	return name + "." + target
}

// Checker runs tests of one suite in one working directory.
type Checker struct {
	Profile suite.Profile
	Dir     string
	Runner  runner.Runner
	// NoWrite disables writing candidate files. Mismatches still fail.
	NoWrite bool
}

// Check runs the test file name and compares its output with the golden files.
// Check never returns before every compiler run it started has finished.
func (c *Checker) Check(ctx context.Context, name string) Result {
	switch c.Profile.Variant {
	case suite.Assembly:
		return c.checkAssembly(ctx, name)
	default:
		return c.checkDiagnostics(ctx, name)
	}
}

// compare reports whether got equals the contents of the golden file. On
// mismatch it writes got to the candidate file; a non-nil error means the
// candidate could not be written.
func (c *Checker) compare(golden, candidate string, got []byte) (bool, error) {
	want, err := os.ReadFile(filepath.Join(c.Dir, golden))
	if err == nil && bytes.Equal(want, got) {
		return true, nil
	}
	if err != nil {
		log.Infof("No golden file %q: %v", golden, err)
	} else {
		log.Infof("Output differs from %q (got %d bytes, want %d bytes).", golden, len(got), len(want))
	}
	if c.NoWrite {
		return false, nil
	}
	if err := os.WriteFile(filepath.Join(c.Dir, candidate), got, 0o644); err != nil {
		log.Warningf("Failed to write candidate file %q: %v", candidate, err)
		return false, err
	}
	return false, nil
}
