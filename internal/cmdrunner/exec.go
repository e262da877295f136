package cmdrunner

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// runCommand runs path with args under commandTimeout, capturing combined
// stdout/stderr. The child is started in its own process group so a timeout
// or cancellation kills the whole group, not just the direct child - a
// bare exec.CommandContext only signals the process it started, which
// leaves grandchildren (e.g. a shell wrapper some systemd/firewall tooling
// spawns) running past the deadline.
func runCommand(ctx context.Context, path string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}
