package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/easycue/easycue/internal/buildinfo"
	"github.com/easycue/easycue/internal/config"
	"github.com/easycue/easycue/internal/daemon/server"
	"github.com/easycue/easycue/internal/daemon/supervisor"
	"github.com/easycue/easycue/internal/daemon/tray"
	"github.com/easycue/easycue/internal/daemon/tray/presenter"
	"github.com/easycue/easycue/internal/daemon/watcher"
	"github.com/easycue/easycue/internal/metrics"
	"github.com/easycue/easycue/internal/models"
	"github.com/easycue/easycue/internal/updater"
)

func run(foreground bool, port int) error {
	log.SetPrefix("[easycued] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		settings = models.NewSettings()
	}

	logFile, err := config.SetupDaemonLog(settings.Logging)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
	} else {
		defer logFile.Close()
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Printf("Failed to register metrics: %v", err)
	}

	d := newDaemon(settings, port)

	if foreground {
		log.Println("Running in foreground mode (no system tray)")
		return d.runForeground()
	}
	log.Println("Running in background mode (with system tray)")
	d.runWithTray()
	return nil
}

// daemon wires the supervisor to its control server, settings watcher and tray.
type daemon struct {
	settings   *models.Settings
	port       int
	serviceLog io.WriteCloser
	launcher   *supervisor.ExecLauncher
	sup        *supervisor.Supervisor
	srv        *server.Server
	watcher    *watcher.Watcher
	notifier   presenter.Notifier
}

func newDaemon(settings *models.Settings, port int) *daemon {
	d := &daemon{settings: settings, port: port}

	serviceLog, err := config.ServiceLogWriter(settings)
	if err != nil {
		log.Printf("Failed to open service log, output discarded: %v", err)
	}
	d.serviceLog = serviceLog

	d.launcher = supervisor.NewExecLauncher(supervisor.CommandConfigFromSettings(settings.Service, d.serviceOutput()))
	d.sup = supervisor.New(d.launcher)

	if settings.Notifications.Enabled {
		d.notifier = tray.DesktopNotifier{}
	}
	return d
}

func (d *daemon) serviceOutput() io.Writer {
	if d.serviceLog == nil {
		return nil
	}
	return d.serviceLog
}

// start brings up the control server, the settings watcher and, if configured,
// the service itself.
func (d *daemon) start(onServeErr func(error)) error {
	srv, err := server.New(d.sup, server.Options{
		Port:           d.port,
		WebPort:        d.settings.Control.WebPort,
		AllowedOrigins: d.settings.Control.AllowedOrigins,
		MetricsListen:  d.settings.Metrics.Listen,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	d.srv = srv

	daemonInfo := models.NewDaemonInfo("127.0.0.1", srv.Port(), os.Getpid())
	daemonInfo.WebPort = srv.WebPort()
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		srv.Stop()
		return fmt.Errorf("failed to write daemon info: %w", err)
	}

	log.Printf("Daemon started on port %d (PID %d)", srv.Port(), os.Getpid())

	go func() {
		if err := srv.Serve(); err != nil {
			log.Printf("Server error: %v", err)
			onServeErr(err)
		}
	}()

	if w, err := watcher.New(""); err != nil {
		log.Printf("Failed to create settings watcher: %v", err)
	} else if err := w.Start(); err != nil {
		log.Printf("Failed to watch settings: %v", err)
		w.Stop()
	} else {
		d.watcher = w
		go d.handleWatcherEvents()
	}

	go d.checkForUpdate()

	if d.settings.Service.AutoStart {
		if msg, err := d.sup.Start(); err != nil {
			log.Printf("Autostart failed: %v", err)
		} else {
			log.Printf("Autostart: %s", msg)
		}
	}

	return nil
}

// checkForUpdate runs the startup update check the settings ask for and
// notifies when a newer release exists.
func (d *daemon) checkForUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := updater.NewClient().CheckIfDue(ctx, time.Now())
	if err != nil {
		log.Printf("[update] Check failed: %v", err)
		return
	}
	if res == nil {
		return
	}
	if !res.Available {
		log.Printf("[update] Up to date (%s)", res.Current)
		return
	}

	log.Printf("[update] Update available: %s -> %s (%s)", res.Current, res.Latest, res.Release.URL)
	if d.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Version %s is available. Run \"easycue update\" to install it.", res.Latest)
	if err := d.notifier.Notify(buildinfo.AppName+" update", msg); err != nil {
		log.Printf("[update] Notification failed: %v", err)
	}
}

// stop tears everything down. The service is stopped before the control
// server so no client can start it again in between.
func (d *daemon) stop() {
	if err := d.sup.Shutdown(); err != nil {
		log.Printf("Failed to stop service on shutdown: %v", err)
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.srv != nil {
		d.srv.Stop()
	}
	if d.serviceLog != nil {
		_ = d.serviceLog.Close()
	}
	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}
	fmt.Println("Daemon stopped")
}

// handleWatcherEvents reconfigures the launcher when settings.yaml changes.
// A running service keeps its old command until it is restarted.
func (d *daemon) handleWatcherEvents() {
	for ev := range d.watcher.Events() {
		switch ev.Type {
		case watcher.EventSettingsChanged:
			settings, err := config.LoadSettings()
			if err != nil {
				log.Printf("[watcher] Ignoring invalid settings: %v", err)
				continue
			}
			// The service log is opened once at startup; turning log_output
			// on later takes effect after a daemon restart.
			var out io.Writer
			if settings.Service.LogOutput {
				out = d.serviceOutput()
			}
			d.launcher.Configure(supervisor.CommandConfigFromSettings(settings.Service, out))
			log.Printf("[watcher] Service command reloaded: %v (applies from next start)", settings.Service.Command)
		case watcher.EventSettingsRemoved:
			log.Printf("[watcher] Settings file removed; keeping current configuration")
		}
	}
}

// runForeground runs the daemon without a system tray, blocking on signals.
func (d *daemon) runForeground() error {
	errCh := make(chan error, 1)
	if err := d.start(func(err error) { errCh <- err }); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	d.stop()
	return nil
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func (d *daemon) runWithTray() {
	deps := tray.Deps{
		Service:   d.sup,
		Events:    d.sup.Subscribe("tray"),
		Clipboard: tray.SystemClipboard{},
		Notifier:  d.notifier,
	}

	onStart := func() {
		if err := d.start(func(error) { tray.Quit() }); err != nil {
			log.Fatalf("Failed to start daemon: %v", err)
		}

		// Handle OS signals: quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			tray.Quit()
		}()
	}

	// This blocks the main goroutine until tray exits.
	tray.Run(deps, onStart, d.stop)
}
