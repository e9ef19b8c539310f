//go:build !windows

package config

import "syscall"

// ProcessAlive reports whether a process with the given PID exists (kill -0).
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
