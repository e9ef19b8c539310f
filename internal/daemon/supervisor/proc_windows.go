//go:build windows

package supervisor

import (
	"errors"
	"os/exec"
	"strconv"
	"syscall"
)

const createNewProcessGroup = 0x00000200

func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}

// signalGraceful is unsupported for console-less children on Windows; the
// caller falls through to forceKill immediately.
func signalGraceful(cmd *exec.Cmd) error {
	return errors.New("graceful stop not supported on windows")
}

// forceKill terminates the service and its child tree.
func forceKill(cmd *exec.Cmd) error {
	pid := strconv.Itoa(cmd.Process.Pid)
	if err := exec.Command("taskkill", "/T", "/F", "/PID", pid).Run(); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}
