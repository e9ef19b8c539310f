//go:build windows

package config

import "os"

// ProcessAlive reports whether a process with the given PID exists.
// On Windows FindProcess opens a handle and fails for unknown PIDs.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}
