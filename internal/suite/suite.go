// Package suite holds the fixed table of test suite profiles: which compiler
// executable a suite runs, with which flags, and which of its output channels
// are compared against golden files.
package suite

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownSuite is returned by Registry.Lookup for identifiers that have no
// profile.
var ErrUnknownSuite = errors.New("unknown test identification")

// Channel is an output stream index of a compiler invocation. The values match
// the file descriptor numbers and the `<test>.<channel>.out` golden file names.
type Channel int

const (
	Stdout Channel = 1
	Stderr Channel = 2
)

// Channels lists every channel a profile may check, in comparison order.
var Channels = []Channel{Stdout, Stderr}

func (c Channel) String() string {
	switch c {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Check tells whether a channel takes part in golden comparison.
type Check int

const (
	// Unused marks a channel slot that has no meaning for a profile.
	Unused Check = iota
	// NotChecked channels are captured but never compared.
	NotChecked
	// Checked channels are compared byte for byte with `<test>.<n>.out`.
	Checked
)

// Variant selects the comparison a suite performs.
type Variant int

const (
	// Diagnostics compares the compiler's stdout/stderr streams.
	Diagnostics Variant = iota
	// Assembly compares generated code, one compiler run per target.
	Assembly
)

func (v Variant) String() string {
	switch v {
	case Diagnostics:
		return "diagnostics"
	case Assembly:
		return "assembly"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Profile is the invocation profile of one suite. Profiles are values: the
// registry hands out copies, so callers can't alter the table.
type Profile struct {
	ID      string
	Variant Variant
	// Exec is the compiler path. Relative paths are resolved against the
	// test working directory.
	Exec string
	// CompileOpts always follow the per-test options.
	CompileOpts []string
	// ExtraOpts are used when a test has no directive comment.
	ExtraOpts []string
	// Checks is indexed by Channel; slot 0 is always Unused.
	Checks [3]Check
	// Targets and TargetFlag apply to the Assembly variant only.
	Targets    []string
	TargetFlag string
}

// Checked reports whether the channel output is compared for this profile.
func (p Profile) Checked(ch Channel) bool {
	if ch <= 0 || int(ch) >= len(p.Checks) {
		return false
	}
	return p.Checks[ch] == Checked
}

// TargetArg returns the target-selection flag for the target.
func (p Profile) TargetArg(target string) string {
	return p.TargetFlag + target
}

func (p Profile) clone() Profile {
	p.CompileOpts = append([]string(nil), p.CompileOpts...)
	p.ExtraOpts = append([]string(nil), p.ExtraOpts...)
	p.Targets = append([]string(nil), p.Targets...)
	return p
}

func (p Profile) validate() error {
	if p.ID == "" {
		return errors.New("profile has no identifier")
	}
	if p.Exec == "" {
		return fmt.Errorf("profile %q has no executable", p.ID)
	}
	switch p.Variant {
	case Diagnostics:
	case Assembly:
		if len(p.Targets) == 0 {
			return fmt.Errorf("assembly profile %q has no targets", p.ID)
		}
	default:
		return fmt.Errorf("profile %q has invalid variant %v", p.ID, p.Variant)
	}
	return nil
}

// Registry maps suite identifiers to profiles.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds a registry from the given profiles. A later profile with
// the same identifier replaces an earlier one.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		r.profiles[p.ID] = p.clone()
	}
	return r, nil
}

// Lookup returns the profile registered under id.
func (r *Registry) Lookup(id string) (Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownSuite, id, strings.Join(r.IDs(), ", "))
	}
	return p.clone(), nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// with returns a new registry holding r's profiles overridden by extra.
func (r *Registry) with(extra []Profile) (*Registry, error) {
	all := make([]Profile, 0, len(r.profiles)+len(extra))
	for _, id := range r.IDs() {
		all = append(all, r.profiles[id])
	}
	return NewRegistry(append(all, extra...)...)
}
