//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package runner

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func killProcessGroup(p *os.Process) error {
	return p.Kill()
}
