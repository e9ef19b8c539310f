// Package supervisor owns the lifecycle of the single background service process.
package supervisor

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easycue/easycue/internal/metrics"
	"github.com/easycue/easycue/internal/models"
)

// Result messages returned by Start and Stop.
const (
	MsgStarted        = "Service started"
	MsgAlreadyRunning = "Already running"
	MsgStopped        = "Service stopped"
	MsgNotRunning     = "Service not running"
)

// Event is delivered to subscribers after every status transition.
type Event struct {
	Info models.ServiceInfo
}

// Supervisor starts, stops and reports on one service process.
//
// The status, the process handle and the run metadata are guarded by a
// single mutex. Start, Stop and Toggle perform their whole check-then-act
// under one hold of it.
type Supervisor struct {
	mu        sync.Mutex
	launcher  Launcher
	status    models.ServiceStatus
	handle    Handle
	runID     string
	startedAt time.Time
	seq       uint64
	closed    bool

	subMu      sync.RWMutex
	subs       map[string]chan Event
	subsClosed bool
}

// New creates a supervisor in the Stopped state.
func New(launcher Launcher) *Supervisor {
	return &Supervisor{
		launcher: launcher,
		status:   models.StatusStopped(),
		subs:     make(map[string]chan Event),
	}
}

// Start launches the service unless it is already running.
// A launch failure leaves the supervisor in the Error state with no handle.
func (s *Supervisor) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

// Stop terminates the service if a process is held.
// If termination fails the status returns to Running and the handle is kept,
// since the process was not confirmed dead.
func (s *Supervisor) Stop() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Toggle stops a running service and starts one otherwise.
func (s *Supervisor) Toggle() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.State == models.StateRunning {
		return s.stopLocked()
	}
	return s.startLocked()
}

// Status returns a copy of the current status.
func (s *Supervisor) Status() models.ServiceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns the current status together with run metadata.
func (s *Supervisor) Snapshot() models.ServiceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

// Shutdown stops the service and refuses further starts.
// Subscriber channels are closed once the final transition has been sent.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	_, err := s.stopLocked()
	if err == nil {
		s.closed = true
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.subMu.Lock()
	s.subsClosed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
	return nil
}

// SetLauncher replaces the launcher used by subsequent starts.
func (s *Supervisor) SetLauncher(l Launcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launcher = l
}

// Subscribe returns a channel receiving an Event after each transition.
// Sends never block; a subscriber that falls behind misses events and
// should re-read Snapshot. After Shutdown the returned channel is already closed.
func (s *Supervisor) Subscribe(id string) <-chan Event {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Event, 16)
	if s.subsClosed {
		close(ch)
		return ch
	}
	if old, ok := s.subs[id]; ok {
		close(old)
	}
	s.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Supervisor) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Supervisor) startLocked() (string, error) {
	if s.status.State == models.StateRunning {
		return MsgAlreadyRunning, nil
	}
	if s.closed {
		return "", ErrShutdown
	}

	s.setStatusLocked(models.StatusStarting())

	h, err := s.launcher.Launch()
	if err != nil {
		metrics.IncSpawnFailure()
		s.handle = nil
		s.runID = ""
		s.startedAt = time.Time{}
		s.setStatusLocked(models.StatusError(err.Error()))
		log.Printf("[supervisor] Failed to start service: %v", err)
		return "", &SpawnError{Err: err}
	}

	s.handle = h
	s.runID = uuid.New().String()
	s.startedAt = time.Now().UTC()
	s.setStatusLocked(models.StatusRunning())
	metrics.IncStart()
	log.Printf("[supervisor] Service started (PID %d, run %s)", h.PID(), s.runID)

	go s.monitor(h)

	return MsgStarted, nil
}

func (s *Supervisor) stopLocked() (string, error) {
	if s.handle == nil {
		return MsgNotRunning, nil
	}

	h := s.handle
	s.setStatusLocked(models.StatusStopping())

	if err := h.Terminate(); err != nil {
		metrics.IncTerminateFailure()
		s.setStatusLocked(models.StatusRunning())
		log.Printf("[supervisor] Failed to stop service (PID %d): %v", h.PID(), err)
		return "", &TerminateError{PID: h.PID(), Err: err}
	}

	s.handle = nil
	s.runID = ""
	s.startedAt = time.Time{}
	s.setStatusLocked(models.StatusStopped())
	metrics.IncStop()
	log.Printf("[supervisor] Service stopped (PID %d)", h.PID())

	return MsgStopped, nil
}

// monitor waits for h to exit and, if it is still the held handle, records
// the unexpected exit.
func (s *Supervisor) monitor(h Handle) {
	<-h.Done()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != h {
		return
	}

	s.handle = nil
	s.runID = ""
	s.startedAt = time.Time{}
	metrics.IncUnexpectedExit()

	if err := h.ExitErr(); err != nil {
		log.Printf("[supervisor] Service exited unexpectedly (PID %d): %v", h.PID(), err)
		s.setStatusLocked(models.StatusError("service exited: " + err.Error()))
		return
	}
	log.Printf("[supervisor] Service exited (PID %d)", h.PID())
	s.setStatusLocked(models.StatusStopped())
}

// setStatusLocked records a transition and notifies subscribers.
// Must be called while holding mu.
func (s *Supervisor) setStatusLocked(next models.ServiceStatus) {
	prev := s.status
	s.status = next
	s.seq++
	metrics.RecordStateTransition(prev.State.String(), next.State.String())
	s.broadcast(Event{Info: s.infoLocked()})
}

func (s *Supervisor) infoLocked() models.ServiceInfo {
	info := models.ServiceInfo{
		Status: s.status,
		Seq:    s.seq,
	}
	if s.handle != nil && s.status.State == models.StateRunning {
		info.PID = s.handle.PID()
		info.RunID = s.runID
		info.StartedAt = s.startedAt
	}
	return info
}

// broadcast sends ev to all subscribers. Non-blocking: drops if a channel is full.
func (s *Supervisor) broadcast(ev Event) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber can't keep up
		}
	}
}
