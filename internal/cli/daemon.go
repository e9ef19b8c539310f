package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/easycue/easycue/internal/config"
	"github.com/easycue/easycue/internal/control"
	"github.com/easycue/easycue/internal/models"
)

// daemonWait bounds how long start and stop wait for daemon.yaml to follow.
const daemonWait = 5 * time.Second

var errDaemonNotFound = errors.New("easycued not found; install it next to easycue or on PATH")

// EnsureDaemon starts the daemon unless one is already running.
func EnsureDaemon() error {
	running, _, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return nil
	}
	return startDaemon()
}

// startDaemon launches easycued detached and waits until it has registered.
func startDaemon() error {
	path, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = cmd.Process.Release()

	return waitForDaemon(true)
}

// stopDaemon asks the daemon to shut down. The daemon stops the service
// before it exits.
func stopDaemon(info *models.DaemonInfo) error {
	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal daemon: %w", err)
	}
	return waitForDaemon(false)
}

func waitForDaemon(running bool) error {
	deadline := time.Now().Add(daemonWait)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if got, _, err := config.IsDaemonRunning(); err == nil && got == running {
			return nil
		}
	}
	if running {
		return fmt.Errorf("daemon did not start within %s", daemonWait)
	}
	return fmt.Errorf("daemon did not stop within %s", daemonWait)
}

// cycleDaemon stops a running daemon, runs between, and starts the daemon
// again if it was running or always is set. A service that was running
// before is started again afterwards. If between fails the daemon is still
// restarted and the error is returned.
func cycleDaemon(between func() error, always bool) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	resume := false
	if running {
		resume = serviceRunning()
		fmt.Println(styleHint.Render("Stopping daemon..."))
		if err := stopDaemon(info); err != nil {
			return err
		}
	}

	var betweenErr error
	if between != nil {
		betweenErr = between()
	}

	if !running && !always {
		return betweenErr
	}

	fmt.Println(styleHint.Render("Starting daemon..."))
	if err := startDaemon(); err != nil {
		return errors.Join(betweenErr, err)
	}
	if resume {
		err := withClient(func(ctx context.Context, client *control.Client) error {
			_, err := client.StartService(ctx)
			return err
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styleWarning.Render("Service not resumed:"), err)
		} else {
			fmt.Println(styleSuccess.Render("Service resumed."))
		}
	}
	return betweenErr
}

// serviceRunning reports whether the daemon currently runs the service.
func serviceRunning() bool {
	running := false
	_ = withClient(func(ctx context.Context, client *control.Client) error {
		info, err := client.GetStatus(ctx)
		running = err == nil && info.Status.IsRunning()
		return err
	})
	return running
}

// findDaemonBinary looks for easycued on PATH, then next to this executable.
func findDaemonBinary() (string, error) {
	name := daemonBinaryName()
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errDaemonNotFound
}

func daemonBinaryName() string {
	if runtime.GOOS == "windows" {
		return "easycued.exe"
	}
	return "easycued"
}
