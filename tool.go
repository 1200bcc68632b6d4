package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/beluga-cc/tstrun/internal/envconfig"
	"github.com/beluga-cc/tstrun/internal/golden"
	"github.com/beluga-cc/tstrun/internal/history"
	"github.com/beluga-cc/tstrun/internal/report"
	"github.com/beluga-cc/tstrun/internal/runner"
	"github.com/beluga-cc/tstrun/internal/sequencer"
	"github.com/beluga-cc/tstrun/internal/suite"
)

const prgname = "tstrun"

var errNoDir = errors.New("no working directory given")

type options struct {
	logLevel   string
	registry   string
	exec       string
	timeout    time.Duration
	noWrite    bool
	report     string
	historyDir string
	watch      bool
}

func main() {
	os.Exit(main1())
}

func main1() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	env, err := envconfig.FromEnv()
	if err != nil {
		return handleError(err, stderr)
	}

	o := &options{}
	flagRun := pflag.NewFlagSet("", 0)
	flagRun.StringVar(&o.registry, "registry", env.Registry, "YAML file adding or replacing suite profiles.")
	flagRun.StringVar(&o.exec, "exec", "", "Compiler to run instead of the one named by the suite profile. A relative path is relative to the current directory.")
	flagRun.DurationVar(&o.timeout, "timeout", env.Timeout, "Time limit for a single compiler run (0 means no limit).")
	flagRun.BoolVar(&o.noWrite, "no_write", env.NoWrite, "Don't write .new/.s candidate files on mismatch.")
	flagRun.StringVar(&o.report, "report", "", "Write a JSON report of the run to this file.")
	flagRun.StringVar(&o.historyDir, "history_dir", history.DefaultRoot(), "Directory remembering previous failures (empty disables).")
	flagRun.BoolVarP(&o.watch, "watch", "w", false, "Run again whenever tests or golden files change.")

	cmd := &cobra.Command{
		Use:   prgname + " <working directory>",
		Short: "golden-output regression tests for the compiler",
		Long: prgname + ` runs the compiler on every test source of a working directory and
compares its output byte for byte with the recorded golden files.

The working directory names its suite in the ID file and may list files to
skip in the EXCLUDE file. On mismatch the captured output is saved next to
the golden file as <test>.<n>.out.new or <test>.<target>.s.`,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return errNoDir
			case len(args) > 1:
				return fmt.Errorf("expected one working directory, got %d arguments", len(args))
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.Flags().AddFlagSet(flagRun)
	cmd.PersistentFlags().StringVar(&o.logLevel, "log_level", log.ErrorLevel.String(), "Log level (debug, info, warn, error, fatal, panic).")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := log.ParseLevel(o.logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log_level value %q: %w", o.logLevel, err)
		}
		log.SetLevel(lvl)
		return nil
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if o.watch {
			return o.watchDir(cmd.Context(), args[0], cmd.OutOrStdout())
		}
		return o.runOnce(cmd.Context(), args[0], cmd.OutOrStdout())
	}

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return handleError(cmd.ExecuteContext(ctx), stderr)
}

// handleError reports err and returns an appropriate exit code.
func handleError(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, sequencer.ErrTestsFailed):
		// The summary has already listed the failing tests.
		return 1
	default:
		fmt.Fprintf(stderr, "%s: %v\n", prgname, err)
		return 1
	}
}

// runOnce performs a single pass over the working directory.
func (o *options) runOnce(ctx context.Context, dir string, out io.Writer) error {
	reg := suite.Builtin()
	if o.registry != "" {
		var err error
		if reg, err = suite.LoadOverlay(reg, o.registry); err != nil {
			return err
		}
	}

	cc, err := resolveExec(o.exec)
	if err != nil {
		return err
	}

	summary, err := sequencer.Run(ctx, sequencer.Config{
		Dir:      dir,
		Registry: reg,
		Runner:   runner.Exec{Timeout: o.timeout},
		Exec:     cc,
		NoWrite:  o.noWrite,
		Out:      out,
		OnResult: logResult,
	})
	if err != nil && !errors.Is(err, sequencer.ErrTestsFailed) {
		return err
	}

	o.recordHistory(dir, summary)
	if o.report != "" {
		if err := report.WriteFile(o.report, report.FromSummary(summary)); err != nil {
			return err
		}
		log.Infof("Wrote report to %q.", o.report)
	}
	return err
}

// resolveExec makes a relative --exec path absolute. The compiler runs inside
// the test working directory, but the user wrote the path relative to their
// own. Bare names are looked up in PATH and are returned unchanged.
func resolveExec(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) || filepath.Base(path) == path {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve --exec %q: %w", path, err)
	}
	return abs, nil
}

func logResult(res golden.Result) {
	entry := log.WithFields(log.Fields{"test": res.Name, "failed": res.Failed})
	if res.Message != "" {
		entry = entry.WithField("message", res.Message)
	}
	entry.Debug("Checked test.")
}

// recordHistory logs how this run differs from the previous one and stores
// it for the next.
func (o *options) recordHistory(dir string, summary sequencer.Summary) {
	if o.historyDir == "" {
		return
	}
	store := &history.Store{Root: o.historyDir}
	cur := history.Record{
		Suite:  summary.Suite,
		Failed: summary.Failed,
		Time:   time.Now(),
	}
	for _, res := range summary.Results {
		cur.Tests = append(cur.Tests, res.Name)
	}
	if prev, ok := store.Load(dir); ok {
		changes := history.Compare(prev, cur)
		for _, name := range changes.Regressed {
			log.Warningf("%s fails now but passed in the run of %v.", name, prev.Time.Format(time.RFC3339))
		}
		for _, name := range changes.Fixed {
			log.Infof("%s passes now but failed in the run of %v.", name, prev.Time.Format(time.RFC3339))
		}
	}
	store.Save(dir, cur)
}
