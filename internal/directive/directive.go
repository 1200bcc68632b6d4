// Package directive reads per-test compiler options from the first line of a
// test source file.
//
// A directive is a block comment that opens the file:
//
//	/* -Wv -std=c90 */
//
// The comment body (everything between "/*" and the last " */" on the line)
// is a list of options, each introduced by " -". The body is split on " -",
// empty pieces are dropped and every remaining piece gets a single leading
// dash back, so the directive above yields ["-Wv", "-std=c90"].
package directive

import (
	"bytes"
	"regexp"
	"strings"
)

// Opener is the prefix a first line must carry to be considered a directive.
const Opener = "/*"

const separator = " -"

var directiveRe = regexp.MustCompile(`/\*(.*) \*/`)

// Parse returns the options of the directive comment on the first line of
// src. ok is false if the first line carries no directive or the directive
// body is empty.
func Parse(src []byte) (opts []string, ok bool) {
	line, _, _ := bytes.Cut(src, []byte{'\n'})
	if !bytes.HasPrefix(line, []byte(Opener)) {
		return nil, false
	}
	m := directiveRe.FindSubmatch(line)
	if m == nil || len(m[1]) == 0 {
		return nil, false
	}
	return Tokenize(string(m[1])), true
}

// Tokenize splits a directive body into dash-prefixed options, preserving
// their order.
func Tokenize(body string) []string {
	var opts []string
	for _, tok := range strings.Split(body, separator) {
		if tok == "" {
			continue
		}
		opts = append(opts, "-"+tok)
	}
	return opts
}

// Resolve builds the full argument list for compiling the test file name:
// the directive options of src (or defaults when there is none), followed by
// compileOpts, followed by the test path relative to the working directory.
func Resolve(src []byte, defaults, compileOpts []string, name string) []string {
	opts, ok := Parse(src)
	if !ok {
		opts = defaults
	}
	args := make([]string, 0, len(opts)+len(compileOpts)+1)
	args = append(args, opts...)
	args = append(args, compileOpts...)
	return append(args, RelPath(name))
}

// RelPath marks a test file name as relative to the current directory.
func RelPath(name string) string {
	return "./" + name
}
