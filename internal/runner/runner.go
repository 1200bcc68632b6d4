// Package runner executes the compiler under test and captures what it writes
// to stdout and stderr.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/execabs"
)

var (
	// ErrLaunch is returned when the executable could not be started at all,
	// e.g. it does not exist or is not executable.
	ErrLaunch = errors.New("cannot run")
	// ErrTimeout is returned when the process outlived Exec.Timeout and was
	// killed.
	ErrTimeout = errors.New("timed out")
)

// Invocation describes one compiler run.
type Invocation struct {
	Exec string
	Args []string
	// Dir is the working directory of the child. A relative Exec is resolved
	// against it.
	Dir string
}

func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Exec}, inv.Args...), " ")
}

// Capture holds everything a finished process wrote. The compiler's exit
// status is informational: diagnostic tests are expected to exit non-zero.
type Capture struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner runs an invocation to completion.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Capture, error)
}

// Exec runs invocations as child processes of the harness.
type Exec struct {
	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration
}

var _ Runner = Exec{}

// Run starts the invocation and waits for it to finish.
func (e Exec) Run(ctx context.Context, inv Invocation) (Capture, error) {
	p, err := e.start(ctx, inv)
	if err != nil {
		return Capture{}, err
	}
	return p.wait()
}

// start launches the invocation without waiting for it. Output is collected
// in the background until the process exits.
//
// The child leads its own process group. On timeout or cancellation the whole
// group is killed, so processes the compiler spawned can't keep the output
// pipes open.
func (e Exec) start(ctx context.Context, inv Invocation) (*process, error) {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
	}

	p := &process{
		inv:     inv,
		timeout: e.Timeout,
		parent:  ctx,
		runCtx:  runCtx,
		cancel:  cancel,
		exited:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	p.cmd = execabs.Command(inv.Exec, inv.Args...)
	p.cmd.Dir = inv.Dir
	p.cmd.Stdout = &p.stdout
	p.cmd.Stderr = &p.stderr
	setProcessGroup(p.cmd)

	log.Debugf("Starting %s in %q.", inv, inv.Dir)
	if err := p.cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w %s: %v", ErrLaunch, inv.Exec, err)
	}
	p.started = time.Now()
	go p.killOnCancel()
	go p.collect()
	return p, nil
}

// process is a running compiler invocation.
type process struct {
	inv     Invocation
	cmd     *exec.Cmd
	timeout time.Duration
	parent  context.Context
	runCtx  context.Context
	cancel  context.CancelFunc
	started time.Time

	// Written only by the exec package's copying goroutines until cmd.Wait
	// returns.
	stdout bytes.Buffer
	stderr bytes.Buffer

	exited  chan struct{}
	done    chan struct{}
	capture Capture
	err     error
}

// killOnCancel kills the process group once the run context ends, unless the
// process has exited by then.
func (p *process) killOnCancel() {
	select {
	case <-p.exited:
		return
	case <-p.runCtx.Done():
	}
	select {
	case <-p.exited:
		return
	default:
	}
	if err := killProcessGroup(p.cmd.Process); err != nil {
		log.Debugf("Failed to kill %s: %v", p.inv, err)
	}
}

func (p *process) collect() {
	defer close(p.done)
	defer p.cancel()

	err := p.cmd.Wait()
	close(p.exited)
	p.capture = Capture{
		Stdout:   p.stdout.Bytes(),
		Stderr:   p.stderr.Bytes(),
		ExitCode: p.cmd.ProcessState.ExitCode(),
	}

	var exitErr *exec.ExitError
	switch {
	case p.parent.Err() != nil:
		p.err = p.parent.Err()
	case p.timeout > 0 && errors.Is(p.runCtx.Err(), context.DeadlineExceeded):
		p.err = fmt.Errorf("%w after %v", ErrTimeout, p.timeout)
	case err == nil, errors.As(err, &exitErr):
		// A non-zero exit is a regular outcome for a compiler under test.
	default:
		p.err = fmt.Errorf("%s: %w", p.inv.Exec, err)
	}
	log.Debugf("Finished %s with exit code %d in %v.", p.inv, p.capture.ExitCode, time.Since(p.started).Round(time.Millisecond))
}

// wait blocks until the process exits and returns its captured output.
func (p *process) wait() (Capture, error) {
	<-p.done
	return p.capture, p.err
}
