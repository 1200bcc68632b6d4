package sequencer

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/beluga-cc/tstrun/internal/golden"
	"github.com/beluga-cc/tstrun/internal/runner"
	"github.com/beluga-cc/tstrun/internal/suite"
)

// Config describes a run over one working directory.
type Config struct {
	Dir      string
	Registry *suite.Registry
	Runner   runner.Runner
	// Exec, if set, replaces the executable of the suite profile.
	Exec    string
	NoWrite bool
	Out     io.Writer
	// OnResult is passed on to the Sequencer.
	OnResult func(golden.Result)
}

// Run reads the working directory layout, prints the run header and runs
// every discovered test. Setup errors (no identification, unknown suite,
// unreadable directory) are returned before any test runs.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	id, err := ReadID(cfg.Dir)
	if err != nil {
		return Summary{}, err
	}
	profile, err := cfg.Registry.Lookup(id)
	if err != nil {
		return Summary{}, err
	}
	if cfg.Exec != "" {
		profile.Exec = cfg.Exec
	}
	log.Infof("Suite %q runs %s (%v).", id, profile.Exec, profile.Variant)

	fmt.Fprintf(cfg.Out, "Running tests for %s:\n", id)

	excl, err := ReadExclusions(cfg.Dir)
	if err != nil {
		log.Warningf("Ignoring exclusion list: %v", err)
	}
	if excl.Present {
		fmt.Fprintln(cfg.Out, "\n- following files will not be used:")
		for _, name := range excl.Names {
			fmt.Fprintf(cfg.Out, "  %s\n", name)
		}
	}

	tests, err := Discover(cfg.Dir, excl)
	if err != nil {
		return Summary{}, err
	}
	fmt.Fprintln(cfg.Out)

	checker := &golden.Checker{
		Profile: profile,
		Dir:     cfg.Dir,
		Runner:  cfg.Runner,
		NoWrite: cfg.NoWrite,
	}
	seq := New(id, tests, checker, cfg.Out)
	seq.OnResult = cfg.OnResult
	return seq.Run(ctx)
}
