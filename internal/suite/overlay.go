package suite

import (
	"bytes"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// overlayFile is the YAML layout of a registry overlay:
//
//	suites:
//	  - id: local diagnostics
//	    variant: diagnostics
//	    exec: ../../build/sc
//	    compile_opts: [--errstop=0]
//	    extra_opts: [-Wv]
//	    check: [stderr]
type overlayFile struct {
	Suites []overlayProfile `yaml:"suites"`
}

type overlayProfile struct {
	ID          string   `yaml:"id"`
	Variant     string   `yaml:"variant"`
	Exec        string   `yaml:"exec"`
	CompileOpts []string `yaml:"compile_opts"`
	ExtraOpts   []string `yaml:"extra_opts"`
	Check       []string `yaml:"check"`
	Targets     []string `yaml:"targets"`
	TargetFlag  *string  `yaml:"target_flag"`
}

func (op overlayProfile) profile() (Profile, error) {
	p := Profile{
		ID:          op.ID,
		Exec:        op.Exec,
		CompileOpts: op.CompileOpts,
		ExtraOpts:   op.ExtraOpts,
		Targets:     op.Targets,
		TargetFlag:  "--target=",
	}
	if op.TargetFlag != nil {
		p.TargetFlag = *op.TargetFlag
	}
	switch op.Variant {
	case "", "diagnostics":
		p.Variant = Diagnostics
	case "assembly":
		p.Variant = Assembly
	default:
		return Profile{}, fmt.Errorf("suite %q: unknown variant %q", op.ID, op.Variant)
	}
	if p.Variant == Assembly {
		return p, nil
	}
	p.Checks = [3]Check{Unused, NotChecked, NotChecked}
	for _, name := range op.Check {
		switch name {
		case "stdout", "1":
			p.Checks[Stdout] = Checked
		case "stderr", "2":
			p.Checks[Stderr] = Checked
		default:
			return Profile{}, fmt.Errorf("suite %q: unknown channel %q", op.ID, name)
		}
	}
	return p, nil
}

// ParseOverlay decodes a YAML overlay and returns base extended with its
// profiles. Overlay profiles replace built-in ones with the same identifier.
func ParseOverlay(base *Registry, data []byte) (*Registry, error) {
	var f overlayFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode registry overlay: %w", err)
	}
	extra := make([]Profile, 0, len(f.Suites))
	for _, op := range f.Suites {
		p, err := op.profile()
		if err != nil {
			return nil, err
		}
		extra = append(extra, p)
	}
	return base.with(extra)
}

// LoadOverlay reads a YAML overlay file, see ParseOverlay.
func LoadOverlay(base *Registry, path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry overlay: %w", err)
	}
	r, err := ParseOverlay(base, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("Loaded registry overlay %q, suites: %v.", path, r.IDs())
	return r, nil
}
