package models

import (
	"testing"
	"time"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := NewSettings()

	if len(s.Service.Command) == 0 {
		t.Error("default service command is empty")
	}
	if s.Service.StopTimeout != 5*time.Second {
		t.Errorf("StopTimeout = %v, want 5s", s.Service.StopTimeout)
	}
	if s.Service.KillTimeout != 2*time.Second {
		t.Errorf("KillTimeout = %v, want 2s", s.Service.KillTimeout)
	}
	if s.Service.AutoStart {
		t.Error("AutoStart should default to false")
	}
}

func TestApplyDefaults(t *testing.T) {
	s := &Settings{
		Service: ServiceConfig{Command: []string{"my-server"}, StopTimeout: time.Second},
	}
	s.ApplyDefaults()

	if s.Version != 1 {
		t.Errorf("Version = %d, want 1", s.Version)
	}
	if len(s.Service.Command) != 1 || s.Service.Command[0] != "my-server" {
		t.Errorf("Command = %v, want it kept", s.Service.Command)
	}
	if s.Service.StopTimeout != time.Second {
		t.Errorf("StopTimeout = %v, want it kept", s.Service.StopTimeout)
	}
	if s.Service.KillTimeout != 2*time.Second {
		t.Errorf("KillTimeout = %v, want default", s.Service.KillTimeout)
	}
	if s.Logging.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want default", s.Logging.MaxSizeMB)
	}
	if s.Updates.CheckFrequency != "daily" {
		t.Errorf("CheckFrequency = %q, want daily", s.Updates.CheckFrequency)
	}
}

func TestDaemonInfoAddr(t *testing.T) {
	info := NewDaemonInfo("127.0.0.1", 50051, 99)
	if got := info.Addr(); got != "127.0.0.1:50051" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:50051")
	}
}
