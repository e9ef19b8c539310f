package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ServiceAddress is the address handed out by the "copy address" action.
const ServiceAddress = "http://localhost:8080"

// ServiceState identifies the lifecycle state of the supervised service.
type ServiceState int

// Service states. Exactly one is active at a time.
const (
	StateStopped ServiceState = iota
	StateStarting
	StateRunning
	StateStopping
	StateError
)

// String returns the wire name of the state.
func (s ServiceState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseServiceState parses a wire name produced by ServiceState.String.
func ParseServiceState(s string) (ServiceState, error) {
	switch s {
	case "stopped":
		return StateStopped, nil
	case "starting":
		return StateStarting, nil
	case "running":
		return StateRunning, nil
	case "stopping":
		return StateStopping, nil
	case "error":
		return StateError, nil
	default:
		return 0, fmt.Errorf("unknown service state %q", s)
	}
}

// ServiceStatus is the tagged status value of the service.
// Message is only meaningful when State is StateError.
type ServiceStatus struct {
	State   ServiceState
	Message string
}

// StatusStopped returns the Stopped status.
func StatusStopped() ServiceStatus { return ServiceStatus{State: StateStopped} }

// StatusStarting returns the Starting status.
func StatusStarting() ServiceStatus { return ServiceStatus{State: StateStarting} }

// StatusRunning returns the Running status.
func StatusRunning() ServiceStatus { return ServiceStatus{State: StateRunning} }

// StatusStopping returns the Stopping status.
func StatusStopping() ServiceStatus { return ServiceStatus{State: StateStopping} }

// StatusError returns an Error status carrying msg.
func StatusError(msg string) ServiceStatus {
	return ServiceStatus{State: StateError, Message: msg}
}

// IsRunning reports whether the status is Running.
func (s ServiceStatus) IsRunning() bool {
	return s.State == StateRunning
}

// IsTransitional reports whether a start or stop is in progress.
func (s ServiceStatus) IsTransitional() bool {
	return s.State == StateStarting || s.State == StateStopping
}

// String returns a human-readable form, e.g. "running" or "error: exit status 1".
func (s ServiceStatus) String() string {
	if s.State == StateError {
		return "error: " + s.Message
	}
	return s.State.String()
}

type statusWire struct {
	State   string `json:"state" yaml:"state"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

func (s ServiceStatus) wire() statusWire {
	w := statusWire{State: s.State.String()}
	if s.State == StateError {
		w.Message = s.Message
	}
	return w
}

func (s *ServiceStatus) fromWire(w statusWire) error {
	state, err := ParseServiceState(w.State)
	if err != nil {
		return err
	}
	*s = ServiceStatus{State: state}
	if state == StateError {
		s.Message = w.Message
	}
	return nil
}

// MarshalJSON encodes the status as {"state":"error","message":"..."}.
func (s ServiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// UnmarshalJSON decodes the tagged form written by MarshalJSON.
func (s *ServiceStatus) UnmarshalJSON(data []byte) error {
	var w statusWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return s.fromWire(w)
}

// MarshalYAML encodes the status in the same tagged form as JSON.
func (s ServiceStatus) MarshalYAML() (interface{}, error) {
	return s.wire(), nil
}

// UnmarshalYAML decodes the tagged YAML form.
func (s *ServiceStatus) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var w statusWire
	if err := unmarshal(&w); err != nil {
		return err
	}
	return s.fromWire(w)
}

// ServiceInfo is a point-in-time view of the supervisor.
// PID, RunID and StartedAt are zero unless the service is running.
type ServiceInfo struct {
	Status    ServiceStatus `json:"status" yaml:"status"`
	PID       int           `json:"pid,omitempty" yaml:"pid,omitempty"`
	RunID     string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Seq       uint64        `json:"seq" yaml:"seq"`
}
