package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"github.com/easycue/easycue/internal/models"
)

// RotatingWriter returns a size-rotated log file writer in the global logs directory.
func RotatingWriter(name string, cfg models.LoggingConfig) (io.WriteCloser, error) {
	if err := EnsureGlobalLogsDir(); err != nil {
		return nil, fmt.Errorf("failed to ensure logs dir: %w", err)
	}
	dir, err := GlobalLogsDir()
	if err != nil {
		return nil, err
	}

	return &lj.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}, nil
}

// SetupDaemonLog sends the standard logger to stderr and to easycued.log.
// The returned closer flushes the log file; call it on shutdown.
func SetupDaemonLog(cfg models.LoggingConfig) (io.Closer, error) {
	w, err := RotatingWriter(DaemonLogFileName, cfg)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stderr, w))
	return w, nil
}

// ServiceLogWriter returns the writer that receives the service's stdout and
// stderr, or nil when output capture is disabled.
func ServiceLogWriter(settings *models.Settings) (io.WriteCloser, error) {
	if !settings.Service.LogOutput {
		return nil, nil
	}
	return RotatingWriter(ServiceLogFileName, settings.Logging)
}
