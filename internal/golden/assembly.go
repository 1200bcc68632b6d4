package golden

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/beluga-cc/tstrun/internal/directive"
	"github.com/beluga-cc/tstrun/internal/errorList"
	"github.com/beluga-cc/tstrun/internal/runner"
)

var errWrite = errors.New(WriteFailure)

// TargetMismatch is the failure detail of a target whose output differed from
// its golden file.
type TargetMismatch string

func (t TargetMismatch) Error() string { return string(t) }

// checkAssembly compiles the test for every target at once and reports after
// the last compiler run has finished. Details are listed in target order.
func (c *Checker) checkAssembly(ctx context.Context, name string) Result {
	targets := c.Profile.Targets
	details := make([]error, len(targets))

	var g errgroup.Group
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			details[i] = c.checkTarget(ctx, name, target)
			return nil
		})
	}
	g.Wait() // Target failures are reported through details, never here.

	var errs errorList.ErrorList
	for _, err := range details {
		errs = errs.Append(err)
	}
	if err := errs.ErrOrNil(); err != nil {
		return fail(name, err.Error())
	}
	return pass(name)
}

func (c *Checker) checkTarget(ctx context.Context, name, target string) error {
	capture, err := c.Runner.Run(ctx, runner.Invocation{
		Exec: c.Profile.Exec,
		Args: []string{c.Profile.TargetArg(target), directive.RelPath(name)},
		Dir:  c.Dir,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}

	file := AssemblyFile(name, target)
	ok, err := c.compare(file, file+AssemblySuffix, capture.Stdout)
	switch {
	case ok:
		return nil
	case err != nil:
		return errWrite
	default:
		return TargetMismatch(target)
	}
}
