// Package config handles the files under the EasyCue directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the EasyCue directory, e.g. for a portable install.
const HomeEnv = "EASYCUE_HOME"

const (
	// GlobalDirName is the EasyCue directory under the user's home.
	GlobalDirName = ".easycue"

	// LogsDirName is the name of the logs directory.
	LogsDirName = "logs"
)

// File names
const (
	DaemonFileName     = "daemon.yaml"
	SettingsFileName   = "settings.yaml"
	DaemonLogFileName  = "easycued.log"
	ServiceLogFileName = "service.log"
)

// GlobalDir returns $EASYCUE_HOME when set, otherwise ~/.easycue.
func GlobalDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, GlobalDirName), nil
}

func globalPath(name string) (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GlobalDaemonFile returns the path of daemon.yaml.
func GlobalDaemonFile() (string, error) { return globalPath(DaemonFileName) }

// GlobalSettingsFile returns the path of settings.yaml.
func GlobalSettingsFile() (string, error) { return globalPath(SettingsFileName) }

// GlobalLogsDir returns the directory holding the rotated logs.
func GlobalLogsDir() (string, error) { return globalPath(LogsDirName) }

// EnsureGlobalDir creates the EasyCue directory if needed.
func EnsureGlobalDir() error { return ensureDir(GlobalDir) }

// EnsureGlobalLogsDir creates the logs directory if needed.
func EnsureGlobalLogsDir() error { return ensureDir(GlobalLogsDir) }

func ensureDir(resolve func() (string, error)) error {
	dir, err := resolve()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
