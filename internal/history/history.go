// Package history remembers which tests failed in the previous run of a
// working directory, so that a run can tell new failures from known ones.
package history

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// Record is the stored outcome of one run.
type Record struct {
	Suite  string
	Tests  []string
	Failed []string
	Time   time.Time
}

func (r Record) failed() map[string]bool {
	m := make(map[string]bool, len(r.Failed))
	for _, name := range r.Failed {
		m[name] = true
	}
	return m
}

// DefaultRoot is the directory history records are kept in when no other
// location is configured.
func DefaultRoot() string {
	path, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tstrun_history")
	}
	return filepath.Join(path, "tstrun", "history")
}

// Store keeps one record per working directory.
//
// Store is non-durable: any save and load errors are logged and swallowed,
// a failed load is simply a missing record. Nil pointer to Store is valid and
// disables history.
type Store struct {
	Root string
}

// path returns the record location for a working directory.
func (s *Store) path(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	sum := fmt.Sprintf("%x", sha256.Sum256([]byte(dir)))
	return filepath.Join(s.Root, sum[0:2], sum)
}

// Save stores the record for the working directory, replacing any previous
// one.
func (s *Store) Save(dir string, r Record) bool {
	if s == nil {
		return false
	}
	path := s.path(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		log.Warningf("Failed to create history directory: %v", err)
		return false
	}
	// Write to a temporary file first so readers never see a partial record.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		log.Warningf("Failed to create temporary history file: %v", err)
		return false
	}
	defer f.Close()
	if err := serialize(r, f); err != nil {
		log.Warningf("Failed to write history of %q: %v", dir, err)
		os.Remove(f.Name())
		return false
	}
	f.Close()
	if err := os.Rename(f.Name(), path); err != nil {
		log.Warningf("Failed to rename history file %q to %q: %v", f.Name(), path, err)
		os.Remove(f.Name())
		return false
	}
	log.Infof("Stored history of %q as %q.", dir, path)
	return true
}

// Load returns the stored record of the working directory, if any.
func (s *Store) Load(dir string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	path := s.path(dir)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("No history for %q at %q.", dir, path)
		} else {
			log.Warningf("Failed to open history for %q at %q: %v", dir, path, err)
		}
		return Record{}, false
	}
	defer f.Close()
	r, err := deserialize(f)
	if err != nil {
		log.Warningf("Failed to read history for %q at %q: %v", dir, path, err)
		return Record{}, false
	}
	return r, true
}

func serialize(r Record, w io.Writer) (err error) {
	zw := gzip.NewWriter(w)
	defer func() {
		// This close flushes the gzip but does not close the given writer.
		if closeErr := zw.Close(); err == nil {
			err = closeErr
		}
	}()
	return gob.NewEncoder(zw).Encode(r)
}

func deserialize(rd io.Reader) (r Record, err error) {
	zr, err := gzip.NewReader(rd)
	if err != nil {
		return r, err
	}
	defer func() {
		// This close checks the gzip checksum but does not close the given reader.
		if closeErr := zr.Close(); err == nil {
			err = closeErr
		}
	}()
	err = gob.NewDecoder(zr).Decode(&r)
	return r, err
}

// Changes lists how the failures of cur differ from prev.
type Changes struct {
	// Regressed tests fail in cur but passed in prev.
	Regressed []string
	// Fixed tests pass in cur but failed in prev.
	Fixed []string
}

// Compare returns the tests whose outcome changed between two runs. Tests that
// are new in cur, or that cur did not run, are not considered. Runs of
// different suites are not comparable and yield no changes.
func Compare(prev, cur Record) Changes {
	var c Changes
	if prev.Suite != cur.Suite {
		return c
	}
	ran := make(map[string]bool, len(prev.Tests))
	for _, name := range prev.Tests {
		ran[name] = true
	}
	prevFailed, curFailed := prev.failed(), cur.failed()
	for _, name := range cur.Tests {
		if !ran[name] {
			continue
		}
		switch {
		case curFailed[name] && !prevFailed[name]:
			c.Regressed = append(c.Regressed, name)
		case !curFailed[name] && prevFailed[name]:
			c.Fixed = append(c.Fixed, name)
		}
	}
	sort.Strings(c.Regressed)
	sort.Strings(c.Fixed)
	return c
}
