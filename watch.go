package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/beluga-cc/tstrun/internal/golden"
	"github.com/beluga-cc/tstrun/internal/sequencer"
)

// settleTime is how long the working directory must stay quiet after a change
// before the tests run again.
const settleTime = 300 * time.Millisecond

// watchDir runs the tests, then runs them again after every burst of changes
// to the working directory until ctx is cancelled. Every pass is a separate,
// complete run.
func (o *options) watchDir(ctx context.Context, dir string, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		err := o.runOnce(ctx, dir, out)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil && !errors.Is(err, sequencer.ErrTestsFailed):
			// The directory may be incomplete, e.g. the ID file is still
			// missing. Keep watching.
			log.Errorf("Run failed: %v", err)
		}
		fmt.Fprintln(out, "\n- watching for changes...")

		if err := waitForChange(ctx, w, settleTime); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintln(out)
	}
}

// waitForChange blocks until a relevant file changed and no further change
// followed within quiet.
func waitForChange(ctx context.Context, w *fsnotify.Watcher, quiet time.Duration) error {
	var settled <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !relevant(ev.Name) {
				continue
			}
			log.Debugf("Change detected: %v", ev)
			settled = time.After(quiet)
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			log.Warningf("Watcher error: %v", err)
		case <-settled:
			return nil
		}
	}
}

// relevant reports whether a change to path can affect a run: the suite
// files, test sources and golden files. Candidate files written by the run
// itself are ignored.
func relevant(path string) bool {
	name := filepath.Base(path)
	switch {
	case name == sequencer.IDFile, name == sequencer.ExcludeFile:
		return true
	case strings.HasSuffix(name, golden.DiagnosticsSuffix), strings.HasSuffix(name, golden.AssemblySuffix):
		return false
	case sequencer.IsTestFile(name):
		return true
	}
	// Golden files are named <test>.<channel>.out or <test>.<target>.
	if i := strings.Index(strings.ToLower(name), ".c."); i > 0 {
		return sequencer.IsTestFile(name[:i+2])
	}
	return false
}
