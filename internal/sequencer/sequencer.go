// Package sequencer drives a test run: it finds the tests of a working
// directory, runs them strictly one after another and prints the progress
// stream and the final summary.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/beluga-cc/tstrun/internal/golden"
)

// ErrTestsFailed is returned by Run when at least one test failed.
var ErrTestsFailed = errors.New("tests failed")

// State of a Sequencer. A sequencer moves forward only:
// Idle → Running → Draining → Done.
type State int

const (
	Idle State = iota
	Running
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Checker runs a single test and returns its result once it is final.
type Checker interface {
	Check(ctx context.Context, name string) golden.Result
}

// Summary is the outcome of a run.
type Summary struct {
	Suite   string
	Results []golden.Result
	// Failed lists the failing tests in run order.
	Failed []string
}

// Total returns the number of tests that were run.
func (s Summary) Total() int {
	return len(s.Results)
}

// Err returns nil if every test passed.
func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", ErrTestsFailed, len(s.Failed), s.Total())
}

// Sequencer runs a fixed list of tests once.
type Sequencer struct {
	suite   string
	tests   []string
	checker Checker
	out     io.Writer

	// OnResult, if set, is called with every result right after it has been
	// printed.
	OnResult func(golden.Result)

	state   State
	summary Summary
}

// New returns a sequencer for the given tests. Progress goes to out.
func New(suite string, tests []string, checker Checker, out io.Writer) *Sequencer {
	return &Sequencer{
		suite:   suite,
		tests:   tests,
		checker: checker,
		out:     out,
		summary: Summary{Suite: suite},
	}
}

// State returns the current state of the sequencer.
func (s *Sequencer) State() State {
	return s.state
}

// Run executes every test in order, prints the summary and returns it. The
// returned error wraps ErrTestsFailed if any test failed. A sequencer can only
// be run once.
func (s *Sequencer) Run(ctx context.Context) (Summary, error) {
	if s.state != Idle {
		return Summary{}, fmt.Errorf("sequencer is %v, not %v", s.state, Idle)
	}
	s.state = Running
	log.Debugf("Running %d tests of %q.", len(s.tests), s.suite)

	for _, name := range s.tests {
		if err := ctx.Err(); err != nil {
			s.state = Done
			return s.summary, fmt.Errorf("run interrupted before %s: %w", name, err)
		}
		fmt.Fprintf(s.out, "  checking for %s... ", name)
		s.record(s.checker.Check(ctx, name))
	}

	s.state = Draining
	s.printSummary()
	s.state = Done
	return s.summary, s.summary.Err()
}

func (s *Sequencer) record(res golden.Result) {
	switch {
	case !res.Failed:
		fmt.Fprintln(s.out, "[ok]")
	case res.Message != "":
		fmt.Fprintf(s.out, "[FAILED]: %s\n", res.Message)
	default:
		fmt.Fprintln(s.out, "[FAILED]")
	}
	s.summary.Results = append(s.summary.Results, res)
	if res.Failed {
		s.summary.Failed = append(s.summary.Failed, res.Name)
	}
	if s.OnResult != nil {
		s.OnResult(res)
	}
}

func (s *Sequencer) printSummary() {
	if len(s.summary.Failed) == 0 {
		fmt.Fprintf(s.out, "\n- all %d tests passed\n", s.summary.Total())
		return
	}
	fmt.Fprintln(s.out, "\n- test failed for the following files:")
	for _, name := range s.summary.Failed {
		fmt.Fprintf(s.out, "  %s\n", name)
	}
}
