//go:build unix

package command

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the command in its own process group so that
// cancellation reaches every process a wrapper script spawned
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
