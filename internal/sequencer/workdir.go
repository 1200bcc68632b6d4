package sequencer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Files the harness reads from the test working directory.
const (
	IDFile      = "ID"
	ExcludeFile = "EXCLUDE"
)

// ErrNoIdentification is returned when the working directory has no readable
// identification file.
var ErrNoIdentification = errors.New("no test identification set")

// testFileRe matches test sources by name.
var testFileRe = regexp.MustCompile(`(?i)[a-z0-9-]\.c$`)

// IsTestFile reports whether name looks like a test source file.
func IsTestFile(name string) bool {
	return testFileRe.MatchString(name)
}

// ReadID returns the suite identifier stored in the working directory.
func ReadID(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, IDFile))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoIdentification, err)
	}
	return strings.ReplaceAll(string(data), "\n", ""), nil
}

// Exclusions is the content of the exclusion manifest.
type Exclusions struct {
	// Present is false if the working directory has no manifest.
	Present bool
	// Names lists excluded file names in manifest order.
	Names []string
	set   map[string]bool
}

// Has reports whether name is excluded.
func (e Exclusions) Has(name string) bool {
	return e.set[name]
}

// ReadExclusions loads the exclusion manifest of the working directory. A
// missing manifest excludes nothing.
func ReadExclusions(dir string) (Exclusions, error) {
	data, err := os.ReadFile(filepath.Join(dir, ExcludeFile))
	if os.IsNotExist(err) {
		return Exclusions{}, nil
	}
	if err != nil {
		return Exclusions{}, fmt.Errorf("failed to read exclusion list: %w", err)
	}
	return ParseExclusions(data), nil
}

// ParseExclusions parses a newline-separated list of file names. Blank lines
// are ignored.
func ParseExclusions(data []byte) Exclusions {
	e := Exclusions{Present: true, set: map[string]bool{}}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || e.set[line] {
			continue
		}
		e.set[line] = true
		e.Names = append(e.Names, line)
	}
	return e
}

// Discover lists the test files of the working directory in name order,
// leaving out excluded ones.
func Discover(dir string, excl Exclusions) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	var tests []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsTestFile(name) || excl.Has(name) {
			continue
		}
		tests = append(tests, name)
	}
	return tests, nil
}
