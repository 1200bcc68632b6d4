package golden

import (
	"context"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/beluga-cc/tstrun/internal/directive"
	"github.com/beluga-cc/tstrun/internal/runner"
	"github.com/beluga-cc/tstrun/internal/suite"
)

func (c *Checker) checkDiagnostics(ctx context.Context, name string) Result {
	src, err := os.ReadFile(filepath.Join(c.Dir, name))
	if err != nil {
		log.Infof("Failed to read test %q: %v", name, err)
		return fail(name, ReadFailure)
	}

	capture, err := c.Runner.Run(ctx, runner.Invocation{
		Exec: c.Profile.Exec,
		Args: directive.Resolve(src, c.Profile.ExtraOpts, c.Profile.CompileOpts, name),
		Dir:  c.Dir,
	})
	if err != nil {
		return fail(name, err.Error())
	}

	outputs := map[suite.Channel][]byte{
		suite.Stdout: capture.Stdout,
		suite.Stderr: capture.Stderr,
	}
	res := pass(name)
	for _, ch := range suite.Channels {
		if !c.Profile.Checked(ch) {
			continue
		}
		file := DiagnosticsFile(name, ch)
		ok, err := c.compare(file, file+DiagnosticsSuffix, outputs[ch])
		if ok {
			continue
		}
		res.Failed = true
		if err != nil {
			res.Message = WriteFailure
		}
	}
	return res
}
