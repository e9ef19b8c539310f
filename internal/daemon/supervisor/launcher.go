package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/easycue/easycue/internal/models"
)

// Default termination timeouts, used when a CommandConfig leaves them unset.
const (
	DefaultStopTimeout = 5 * time.Second
	DefaultKillTimeout = 2 * time.Second
)

// Launcher spawns the service process.
type Launcher interface {
	Launch() (Handle, error)
}

// Handle is an owned, running service process.
type Handle interface {
	// PID returns the OS process ID.
	PID() int
	// Terminate stops the process and waits for it to exit. It returns an
	// error if the process could not be confirmed dead.
	Terminate() error
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
	// ExitErr returns the wait error; valid after Done is closed.
	ExitErr() error
}

// CommandConfig describes the service command line.
type CommandConfig struct {
	Command     []string
	Dir         string
	Env         []string
	StopTimeout time.Duration
	KillTimeout time.Duration
	Output      io.Writer // receives stdout and stderr; nil discards them
}

// CommandConfigFromSettings builds a CommandConfig from the service settings.
func CommandConfigFromSettings(cfg models.ServiceConfig, output io.Writer) CommandConfig {
	return CommandConfig{
		Command:     cfg.Command,
		Dir:         cfg.Dir,
		Env:         cfg.Env,
		StopTimeout: cfg.StopTimeout,
		KillTimeout: cfg.KillTimeout,
		Output:      output,
	}
}

// ExecLauncher launches the service with os/exec. Its configuration can be
// swapped at runtime; the change applies from the next launch.
type ExecLauncher struct {
	mu  sync.RWMutex
	cfg CommandConfig
}

// NewExecLauncher creates a launcher for cfg.
func NewExecLauncher(cfg CommandConfig) *ExecLauncher {
	return &ExecLauncher{cfg: cfg}
}

// Configure replaces the command configuration.
func (l *ExecLauncher) Configure(cfg CommandConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg = cfg
}

// Config returns the current command configuration.
func (l *ExecLauncher) Config() CommandConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Launch starts the configured command in its own process group.
func (l *ExecLauncher) Launch() (Handle, error) {
	cfg := l.Config()
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("no service command configured")
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	if cfg.Output != nil {
		cmd.Stdout = cfg.Output
		cmd.Stderr = cfg.Output
	}
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &execProcess{
		cmd:         cmd,
		done:        make(chan struct{}),
		stopTimeout: valOr(cfg.StopTimeout, DefaultStopTimeout),
		killTimeout: valOr(cfg.KillTimeout, DefaultKillTimeout),
	}
	go p.wait()

	return p, nil
}

// execProcess is the Handle returned by ExecLauncher.
type execProcess struct {
	cmd         *exec.Cmd
	done        chan struct{}
	exitErr     error
	stopTimeout time.Duration
	killTimeout time.Duration
}

func (p *execProcess) wait() {
	p.exitErr = p.cmd.Wait()
	close(p.done)
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

// Terminate asks the process group to exit, waits stopTimeout, then kills it
// and waits killTimeout more.
func (p *execProcess) Terminate() error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := signalGraceful(p.cmd); err == nil {
		select {
		case <-p.done:
			return nil
		case <-time.After(p.stopTimeout):
		}
	}

	killErr := forceKill(p.cmd)

	select {
	case <-p.done:
		return nil
	case <-time.After(p.killTimeout):
	}

	if killErr != nil {
		return fmt.Errorf("failed to kill process %d: %w", p.PID(), killErr)
	}
	return fmt.Errorf("process %d did not exit within %s", p.PID(), p.stopTimeout+p.killTimeout)
}

func valOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
