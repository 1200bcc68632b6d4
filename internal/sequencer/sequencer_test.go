package sequencer

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/beluga-cc/tstrun/internal/golden"
)

// scriptedChecker returns canned results and records what it observed.
type scriptedChecker struct {
	results  map[string]golden.Result
	seq      *Sequencer
	order    []string
	states   []State
	inFlight int32
	overlap  bool
}

func (c *scriptedChecker) Check(_ context.Context, name string) golden.Result {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		c.overlap = true
	}
	defer atomic.AddInt32(&c.inFlight, -1)

	c.order = append(c.order, name)
	if c.seq != nil {
		c.states = append(c.states, c.seq.State())
	}
	if res, ok := c.results[name]; ok {
		res.Name = name
		return res
	}
	return golden.Result{Name: name}
}

func TestSequencerAllPass(t *testing.T) {
	var out bytes.Buffer
	checker := &scriptedChecker{}
	s := New("sea-canary", []string{"a.c", "b.c"}, checker, &out)
	checker.seq = s

	if s.State() != Idle {
		t.Fatalf("Got: initial state %v. Want: %v.", s.State(), Idle)
	}
	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	want := "  checking for a.c... [ok]\n" +
		"  checking for b.c... [ok]\n" +
		"\n- all 2 tests passed\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("Output differs (-want,+got):\n%s", diff)
	}
	if summary.Total() != 2 || len(summary.Failed) != 0 || summary.Suite != "sea-canary" {
		t.Errorf("Got: summary %+v. Want: 2 passing tests of sea-canary.", summary)
	}
	if s.State() != Done {
		t.Errorf("Got: final state %v. Want: %v.", s.State(), Done)
	}
	if diff := cmp.Diff([]State{Running, Running}, checker.states); diff != "" {
		t.Errorf("States seen by tests differ (-want,+got):\n%s", diff)
	}
}

func TestSequencerFailures(t *testing.T) {
	var out bytes.Buffer
	checker := &scriptedChecker{results: map[string]golden.Result{
		"b.c": {Failed: true, Message: golden.ReadFailure},
		"c.c": {Failed: true},
		"n.c": {Failed: true, Message: "x86-test, x86-linux"},
	}}
	var seen []golden.Result
	s := New("mcpp's testcases", []string{"a.c", "b.c", "c.c", "n.c", "z.c"}, checker, &out)
	s.OnResult = func(res golden.Result) { seen = append(seen, res) }

	summary, err := s.Run(context.Background())
	if !errors.Is(err, ErrTestsFailed) {
		t.Fatalf("Got: error %v. Want: %v.", err, ErrTestsFailed)
	}

	want := "  checking for a.c... [ok]\n" +
		"  checking for b.c... [FAILED]: cannot read test code\n" +
		"  checking for c.c... [FAILED]\n" +
		"  checking for n.c... [FAILED]: x86-test, x86-linux\n" +
		"  checking for z.c... [ok]\n" +
		"\n- test failed for the following files:\n" +
		"  b.c\n" +
		"  c.c\n" +
		"  n.c\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("Output differs (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b.c", "c.c", "n.c"}, summary.Failed); diff != "" {
		t.Errorf("Failed tests differ (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff(summary.Results, seen); diff != "" {
		t.Errorf("OnResult saw different results (-summary,+seen):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.c", "b.c", "c.c", "n.c", "z.c"}, checker.order); diff != "" {
		t.Errorf("Tests ran out of order (-want,+got):\n%s", diff)
	}
	if checker.overlap {
		t.Errorf("Got: tests ran concurrently. Want: one test at a time.")
	}
}

func TestSequencerNoTests(t *testing.T) {
	var out bytes.Buffer
	summary, err := New("sea-canary", nil, &scriptedChecker{}, &out).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if got, want := out.String(), "\n- all 0 tests passed\n"; got != want {
		t.Errorf("Got: %q. Want: %q.", got, want)
	}
	if summary.Total() != 0 {
		t.Errorf("Got: %d tests. Want: 0.", summary.Total())
	}
}

func TestSequencerRunsOnce(t *testing.T) {
	var out bytes.Buffer
	s := New("sea-canary", []string{"a.c"}, &scriptedChecker{}, &out)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if _, err := s.Run(context.Background()); err == nil {
		t.Errorf("Got: second Run() succeeded. Want: error.")
	}
	if out.Len() != 0 {
		t.Errorf("Got: second Run() printed %q. Want: nothing.", out.String())
	}
}

func TestSequencerInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checker := &scriptedChecker{}
	var out bytes.Buffer
	s := New("sea-canary", []string{"a.c", "b.c"}, checker, &out)
	s.OnResult = func(golden.Result) { cancel() }

	summary, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Got: error %v. Want: %v.", err, context.Canceled)
	}
	if diff := cmp.Diff([]string{"a.c"}, checker.order); diff != "" {
		t.Errorf("Tests run differ (-want,+got):\n%s", diff)
	}
	if summary.Total() != 1 {
		t.Errorf("Got: %d results. Want: 1.", summary.Total())
	}
	if s.State() != Done {
		t.Errorf("Got: state %v. Want: %v.", s.State(), Done)
	}
}

func TestSummaryErr(t *testing.T) {
	tests := []struct {
		descr   string
		summary Summary
		wantErr bool
	}{{
		descr:   "empty",
		summary: Summary{},
	}, {
		descr:   "all passed",
		summary: Summary{Results: []golden.Result{{Name: "a.c"}}},
	}, {
		descr: "one failed",
		summary: Summary{
			Results: []golden.Result{{Name: "a.c"}, {Name: "b.c", Failed: true}},
			Failed:  []string{"b.c"},
		},
		wantErr: true,
	}}

	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			err := test.summary.Err()
			if (err != nil) != test.wantErr {
				t.Errorf("Got: Err() = %v. Want error: %v.", err, test.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTestsFailed) {
				t.Errorf("Got: %v. Want: error wrapping %v.", err, ErrTestsFailed)
			}
		})
	}
}
