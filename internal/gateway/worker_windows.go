//go:build windows

package gateway

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killProcessGroup terminates the worker. Windows has no process groups to
// signal, so children are left to notice their closed pipes.
func killProcessGroup(p *os.Process) error {
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func killGroupRemnants(int) error { return nil }
