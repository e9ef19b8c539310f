package models

import (
	"runtime"
	"time"
)

// ServiceConfig describes how the supervised service is launched and stopped.
type ServiceConfig struct {
	Command     []string      `yaml:"command"`       // argv; empty = platform default
	Dir         string        `yaml:"dir,omitempty"` // working directory
	Env         []string      `yaml:"env,omitempty"` // extra KEY=VALUE entries
	StopTimeout time.Duration `yaml:"stop_timeout"`  // graceful wait before force kill
	KillTimeout time.Duration `yaml:"kill_timeout"`  // wait after force kill
	AutoStart   bool          `yaml:"auto_start"`    // start when the tray launches
	LogOutput   bool          `yaml:"log_output"`    // capture stdout/stderr to service.log
}

// ControlConfig holds settings for the local control API.
type ControlConfig struct {
	WebPort        int      `yaml:"web_port"`                  // grpc-web listener; 0 disables it
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"` // browser origins allowed besides loopback
}

// MetricsConfig holds settings for the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. "127.0.0.1:9464"; empty disables it
}

// LoggingConfig holds log rotation settings (lumberjack semantics).
type LoggingConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// UpdatesConfig controls the startup update check.
type UpdatesConfig struct {
	CheckOnStartup bool       `yaml:"check_on_startup"`
	CheckFrequency string     `yaml:"check_frequency"` // "every_launch", "daily", "weekly"
	LastChecked    *time.Time `yaml:"last_checked,omitempty"`
}

// Settings represents global application settings.
// This corresponds to ~/.easycue/settings.yaml.
type Settings struct {
	Version       int                 `yaml:"version"`
	Service       ServiceConfig       `yaml:"service"`
	Control       ControlConfig       `yaml:"control"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Logging       LoggingConfig       `yaml:"logging"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Updates       UpdatesConfig       `yaml:"updates"`
}

// DefaultServiceCommand returns the placeholder service command for this platform.
func DefaultServiceCommand() []string {
	if runtime.GOOS == "windows" {
		return []string{"powershell", "-NoProfile", "-Command", "Start-Sleep -Seconds 3600"}
	}
	return []string{"sleep", "3600"}
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Service: ServiceConfig{
			Command:     DefaultServiceCommand(),
			StopTimeout: 5 * time.Second,
			KillTimeout: 2 * time.Second,
			AutoStart:   false,
			LogOutput:   true,
		},
		Control: ControlConfig{
			WebPort: 0,
		},
		Metrics: MetricsConfig{
			Listen: "",
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
		Updates: UpdatesConfig{
			CheckOnStartup: false,
			CheckFrequency: "daily",
		},
	}
}

// ApplyDefaults fills zero values left by a partial settings file.
func (s *Settings) ApplyDefaults() {
	def := NewSettings()
	if s.Version == 0 {
		s.Version = def.Version
	}
	if len(s.Service.Command) == 0 {
		s.Service.Command = def.Service.Command
	}
	if s.Service.StopTimeout <= 0 {
		s.Service.StopTimeout = def.Service.StopTimeout
	}
	if s.Service.KillTimeout <= 0 {
		s.Service.KillTimeout = def.Service.KillTimeout
	}
	if s.Logging.MaxSizeMB <= 0 {
		s.Logging.MaxSizeMB = def.Logging.MaxSizeMB
	}
	if s.Logging.MaxBackups <= 0 {
		s.Logging.MaxBackups = def.Logging.MaxBackups
	}
	if s.Logging.MaxAgeDays <= 0 {
		s.Logging.MaxAgeDays = def.Logging.MaxAgeDays
	}
	if s.Updates.CheckFrequency == "" {
		s.Updates.CheckFrequency = def.Updates.CheckFrequency
	}
}
