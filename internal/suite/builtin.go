package suite

// Warning switches shared by the sea-canary based suites.
var seaCanaryOpts = []string{
	"--errstop=0", "--hexcode", "--no-warncode",
	"--won=5", "--won=6", "--won=27", "--won=32", "--won=58", "--won=59", "--won=86",
	"--won=99",
}

var builtinProfiles = []Profile{
	{
		ID:      "beluga's diagnostics",
		Variant: Diagnostics,
		Exec:    "../../build/beluga",
		CompileOpts: []string{
			"--errstop=0", "--hexcode", "--no-warncode",
			"--won=5", "--won=6", "--won=155", "--won=181", "--won=221", "--won=234",
			"--won=257",
		},
		ExtraOpts: []string{"-Wv", "--std=c90"},
		Checks:    [3]Check{Unused, NotChecked, Checked},
	},
	{
		ID:          "sea-canary",
		Variant:     Diagnostics,
		Exec:        "../../build/sc",
		CompileOpts: seaCanaryOpts,
		ExtraOpts:   []string{"-Wv", "--std=c90"},
		Checks:      [3]Check{Unused, NotChecked, Checked},
	},
	{
		ID:          "mcpp's testcases",
		Variant:     Diagnostics,
		Exec:        "../../build/sc",
		CompileOpts: seaCanaryOpts,
		ExtraOpts:   []string{"-Wv", "--std=c90"},
		Checks:      [3]Check{Unused, Checked, Checked},
	},
	{
		ID:         "assembly output",
		Variant:    Assembly,
		Exec:       "../../build/beluga",
		Targets:    []string{"x86-test", "x86-linux"},
		TargetFlag: "--target=",
	},
}

// Builtin returns the registry of suites shipped with the harness.
func Builtin() *Registry {
	r, err := NewRegistry(builtinProfiles...)
	if err != nil {
		panic(err) // The built-in table is static.
	}
	return r
}
