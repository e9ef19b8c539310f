package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/easycue/easycue/internal/models"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv(HomeEnv, "")
	return home
}

func TestGlobalDir(t *testing.T) {
	home := withHome(t)

	dir, err := GlobalDir()
	if err != nil {
		t.Fatalf("GlobalDir() error: %v", err)
	}
	if want := filepath.Join(home, GlobalDirName); dir != want {
		t.Errorf("GlobalDir() = %q, want %q", dir, want)
	}

	override := t.TempDir()
	t.Setenv(HomeEnv, override)
	if dir, _ := GlobalDir(); dir != override {
		t.Errorf("GlobalDir() with %s = %q, want %q", HomeEnv, dir, override)
	}
	path, _ := GlobalSettingsFile()
	if want := filepath.Join(override, SettingsFileName); path != want {
		t.Errorf("GlobalSettingsFile() = %q, want %q", path, want)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	withHome(t)

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}
	if s.Service.StopTimeout != 5*time.Second {
		t.Errorf("StopTimeout = %v, want default 5s", s.Service.StopTimeout)
	}
}

func TestSaveLoadSettings(t *testing.T) {
	home := withHome(t)

	s := models.NewSettings()
	s.Service.Command = []string{"node", "server.js"}
	s.Service.AutoStart = true
	if err := SaveSettings(s); err != nil {
		t.Fatalf("SaveSettings() error: %v", err)
	}

	path := filepath.Join(home, GlobalDirName, SettingsFileName)
	if !FileExists(path) {
		t.Fatalf("settings file not written at %s", path)
	}

	got, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}
	if len(got.Service.Command) != 2 || got.Service.Command[1] != "server.js" {
		t.Errorf("Command = %v", got.Service.Command)
	}
	if !got.Service.AutoStart {
		t.Error("AutoStart = false, want true")
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, GlobalDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	partial := "service:\n  command: [\"my-server\", \"--quiet\"]\n"
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(partial), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error: %v", err)
	}
	if s.Service.Command[0] != "my-server" {
		t.Errorf("Command = %v", s.Service.Command)
	}
	if s.Service.KillTimeout != 2*time.Second {
		t.Errorf("KillTimeout = %v, want default", s.Service.KillTimeout)
	}
	if !s.Notifications.Enabled {
		t.Error("Notifications.Enabled lost its default")
	}
}

func TestLoadSettingsInvalidYAML(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, GlobalDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("service: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSettings(); err == nil {
		t.Error("LoadSettings() should fail on invalid YAML")
	}
}

func TestDaemonInfoLifecycle(t *testing.T) {
	withHome(t)

	info, err := LoadDaemonInfo()
	if err != nil || info != nil {
		t.Fatalf("LoadDaemonInfo() = %v, %v; want nil, nil", info, err)
	}

	if err := SaveDaemonInfo(models.NewDaemonInfo("127.0.0.1", 4321, os.Getpid())); err != nil {
		t.Fatalf("SaveDaemonInfo() error: %v", err)
	}

	running, got, err := IsDaemonRunning()
	if err != nil {
		t.Fatalf("IsDaemonRunning() error: %v", err)
	}
	if !running || got.Port != 4321 {
		t.Errorf("IsDaemonRunning() = %v, %+v", running, got)
	}

	if err := RemoveDaemonInfo(); err != nil {
		t.Fatalf("RemoveDaemonInfo() error: %v", err)
	}
	if err := RemoveDaemonInfo(); err != nil {
		t.Errorf("second RemoveDaemonInfo() error: %v", err)
	}
}

func TestIsDaemonRunningRemovesStaleFile(t *testing.T) {
	withHome(t)

	// PIDs this large are not handed out on any supported platform.
	if err := SaveDaemonInfo(models.NewDaemonInfo("127.0.0.1", 1, 1<<30)); err != nil {
		t.Fatalf("SaveDaemonInfo() error: %v", err)
	}

	running, info, err := IsDaemonRunning()
	if err != nil {
		t.Fatalf("IsDaemonRunning() error: %v", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true for a dead PID")
	}
	if info == nil {
		t.Error("stale info should still be returned")
	}

	path, _ := GlobalDaemonFile()
	if FileExists(path) {
		t.Error("stale daemon.yaml was not removed")
	}
}

func TestServiceLogWriterDisabled(t *testing.T) {
	withHome(t)

	s := models.NewSettings()
	s.Service.LogOutput = false
	w, err := ServiceLogWriter(s)
	if err != nil || w != nil {
		t.Errorf("ServiceLogWriter() = %v, %v; want nil, nil", w, err)
	}
}

func TestRotatingWriter(t *testing.T) {
	home := withHome(t)

	w, err := RotatingWriter(ServiceLogFileName, models.NewSettings().Logging)
	if err != nil {
		t.Fatalf("RotatingWriter() error: %v", err)
	}
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, GlobalDirName, LogsDirName, ServiceLogFileName))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("log contents = %q", data)
	}
}
