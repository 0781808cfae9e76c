//go:build !windows

package gateway

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// configureProcAttr starts the worker as the leader of a new process group,
// so the whole tree can be signalled at once.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the worker's process group, falling back
// to the worker alone.
func killProcessGroup(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		if err2 := p.Kill(); err2 != nil && !errors.Is(err2, os.ErrProcessDone) {
			return fmt.Errorf("failed to kill process group -%d: %v, also failed to kill process %d: %w", p.Pid, err, p.Pid, err2)
		}
	}
	return nil
}

// killGroupRemnants sends SIGKILL to every process left in the group led by
// pgid. A group with no members left is not an error.
func killGroupRemnants(pgid int) error {
	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("failed to kill process group -%d: %w", pgid, err)
	}
	return nil
}
