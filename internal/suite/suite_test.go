package suite

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuiltinLookup(t *testing.T) {
	r := Builtin()

	tests := []struct {
		id     string
		stdout bool
		stderr bool
	}{
		{id: "beluga's diagnostics", stdout: false, stderr: true},
		{id: "sea-canary", stdout: false, stderr: true},
		{id: "mcpp's testcases", stdout: true, stderr: true},
		{id: "assembly output", stdout: false, stderr: false},
	}

	for _, test := range tests {
		t.Run(test.id, func(t *testing.T) {
			p, err := r.Lookup(test.id)
			if err != nil {
				t.Fatalf("Lookup(%q) returned error: %v", test.id, err)
			}
			if p.ID != test.id {
				t.Errorf("Got: profile ID %q. Want: %q.", p.ID, test.id)
			}
			if got := p.Checked(Stdout); got != test.stdout {
				t.Errorf("Got: Checked(stdout) = %v. Want: %v.", got, test.stdout)
			}
			if got := p.Checked(Stderr); got != test.stderr {
				t.Errorf("Got: Checked(stderr) = %v. Want: %v.", got, test.stderr)
			}
		})
	}
}

func TestAssemblyProfile(t *testing.T) {
	p, err := Builtin().Lookup("assembly output")
	if err != nil {
		t.Fatal(err)
	}
	if p.Variant != Assembly {
		t.Errorf("Got: variant %v. Want: %v.", p.Variant, Assembly)
	}
	if diff := cmp.Diff([]string{"x86-test", "x86-linux"}, p.Targets); diff != "" {
		t.Errorf("Targets differ (-want,+got):\n%s", diff)
	}
	if got, want := p.TargetArg("x86-linux"), "--target=x86-linux"; got != want {
		t.Errorf("Got: TargetArg() = %q. Want: %q.", got, want)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Builtin().Lookup("no such suite")
	if !errors.Is(err, ErrUnknownSuite) {
		t.Errorf("Got: error %v. Want: %v.", err, ErrUnknownSuite)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	r := Builtin()
	p, err := r.Lookup("sea-canary")
	if err != nil {
		t.Fatal(err)
	}
	p.ExtraOpts[0] = "-mutated"
	p.CompileOpts = append(p.CompileOpts[:0], "--mutated")

	again, err := r.Lookup("sea-canary")
	if err != nil {
		t.Fatal(err)
	}
	if again.ExtraOpts[0] != "-Wv" || again.CompileOpts[0] != "--errstop=0" {
		t.Errorf("Got: registry profile modified through a looked up copy: %+v.", again)
	}
}

func TestCheckedOutOfRange(t *testing.T) {
	p, err := Builtin().Lookup("mcpp's testcases")
	if err != nil {
		t.Fatal(err)
	}
	for _, ch := range []Channel{0, 3, -1} {
		if p.Checked(ch) {
			t.Errorf("Got: Checked(%v) = true. Want: false.", ch)
		}
	}
}

func TestParseOverlay(t *testing.T) {
	const data = `
suites:
  - id: sea-canary
    exec: ./fakecc
    compile_opts: [--errstop=0]
    extra_opts: [-Wv]
    check: [stdout, stderr]
  - id: local asm
    variant: assembly
    exec: ./fakecc
    targets: [a, b]
    target_flag: "-t"
`
	r, err := ParseOverlay(Builtin(), []byte(data))
	if err != nil {
		t.Fatalf("ParseOverlay() returned error: %v", err)
	}

	got, err := r.Lookup("sea-canary")
	if err != nil {
		t.Fatal(err)
	}
	want := Profile{
		ID:          "sea-canary",
		Variant:     Diagnostics,
		Exec:        "./fakecc",
		CompileOpts: []string{"--errstop=0"},
		ExtraOpts:   []string{"-Wv"},
		Checks:      [3]Check{Unused, Checked, Checked},
		TargetFlag:  "--target=",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Overlay profile differs (-want,+got):\n%s", diff)
	}

	asm, err := r.Lookup("local asm")
	if err != nil {
		t.Fatal(err)
	}
	if asm.Variant != Assembly || asm.TargetArg("a") != "-ta" {
		t.Errorf("Got: assembly overlay %+v. Want: variant assembly with target flag -t.", asm)
	}

	// Built-in suites not mentioned in the overlay survive.
	if _, err := r.Lookup("assembly output"); err != nil {
		t.Errorf("Got: %v. Want: built-in profile kept.", err)
	}
}

func TestParseOverlayErrors(t *testing.T) {
	tests := []struct {
		descr string
		data  string
	}{{
		descr: "unknown variant",
		data:  "suites:\n  - {id: x, exec: cc, variant: linker}\n",
	}, {
		descr: "unknown channel",
		data:  "suites:\n  - {id: x, exec: cc, check: [stdlog]}\n",
	}, {
		descr: "missing executable",
		data:  "suites:\n  - {id: x}\n",
	}, {
		descr: "assembly without targets",
		data:  "suites:\n  - {id: x, exec: cc, variant: assembly}\n",
	}, {
		descr: "unknown field",
		data:  "suites:\n  - {id: x, exec: cc, timeout: 3}\n",
	}}

	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			if _, err := ParseOverlay(Builtin(), []byte(test.data)); err == nil {
				t.Errorf("Got: no error. Want: error for %s.", test.descr)
			}
		})
	}
}
