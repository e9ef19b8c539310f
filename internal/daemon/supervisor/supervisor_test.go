package supervisor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/easycue/easycue/internal/models"
)

// fakeHandle is a Handle whose lifetime is controlled by the test.
type fakeHandle struct {
	pid          int
	done         chan struct{}
	once         sync.Once
	exitErr      error
	terminateErr error
	terminated   atomic.Int32
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, done: make(chan struct{})}
}

func (h *fakeHandle) PID() int              { return h.pid }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) ExitErr() error        { return h.exitErr }

func (h *fakeHandle) Terminate() error {
	h.terminated.Add(1)
	if h.terminateErr != nil {
		return h.terminateErr
	}
	h.exit(nil)
	return nil
}

// exit simulates the process exiting on its own.
func (h *fakeHandle) exit(err error) {
	h.once.Do(func() {
		h.exitErr = err
		close(h.done)
	})
}

// fakeLauncher counts launches and hands out fakeHandles.
type fakeLauncher struct {
	mu       sync.Mutex
	launches int
	err      error
	delay    time.Duration
	handles  []*fakeHandle
}

func (l *fakeLauncher) Launch() (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	h := newFakeHandle(1000 + l.launches)
	l.handles = append(l.handles, h)
	return h, nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *fakeLauncher) last() *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.handles) == 0 {
		return nil
	}
	return l.handles[len(l.handles)-1]
}

func waitForState(t *testing.T, s *Supervisor, want models.ServiceState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Status().State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status = %v, want %v", s.Status(), want)
}

func TestNewSupervisorIsStopped(t *testing.T) {
	s := New(&fakeLauncher{})
	if got := s.Status(); got != models.StatusStopped() {
		t.Errorf("Status() = %v, want stopped", got)
	}
	info := s.Snapshot()
	if info.PID != 0 || info.RunID != "" {
		t.Errorf("Snapshot() = %+v, want no run metadata", info)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	l := &fakeLauncher{}
	s := New(l)

	msg, err := s.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if msg != MsgStarted {
		t.Errorf("Start() = %q, want %q", msg, MsgStarted)
	}

	msg, err = s.Start()
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if msg != MsgAlreadyRunning {
		t.Errorf("second Start() = %q, want %q", msg, MsgAlreadyRunning)
	}

	if got := l.count(); got != 1 {
		t.Errorf("launches = %d, want 1", got)
	}
	if got := s.Status(); got != models.StatusRunning() {
		t.Errorf("Status() = %v, want running", got)
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	s := New(&fakeLauncher{})

	msg, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if msg != MsgNotRunning {
		t.Errorf("Stop() = %q, want %q", msg, MsgNotRunning)
	}
	if got := s.Status(); got != models.StatusStopped() {
		t.Errorf("Status() = %v, want stopped", got)
	}
}

func TestStopWhenErrorLeavesStatus(t *testing.T) {
	s := New(&fakeLauncher{err: errors.New("exec: not found")})
	_, _ = s.Start()

	msg, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if msg != MsgNotRunning {
		t.Errorf("Stop() = %q, want %q", msg, MsgNotRunning)
	}
	if got := s.Status().State; got != models.StateError {
		t.Errorf("Status().State = %v, want error", got)
	}
}

func TestFailedStartLeavesNoHandle(t *testing.T) {
	l := &fakeLauncher{err: errors.New("exec: \"nope\": executable file not found")}
	s := New(l)

	_, err := s.Start()
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Start() error = %v, want *SpawnError", err)
	}

	st := s.Status()
	if st.State != models.StateError {
		t.Fatalf("Status().State = %v, want error", st.State)
	}
	if st.Message != l.err.Error() {
		t.Errorf("Status().Message = %q, want %q", st.Message, l.err.Error())
	}

	// A phantom handle would make the next Start report "Already running"
	// or Stop report "Service stopped".
	if msg, _ := s.Stop(); msg != MsgNotRunning {
		t.Errorf("Stop() after failed start = %q, want %q", msg, MsgNotRunning)
	}

	l.mu.Lock()
	l.err = nil
	l.mu.Unlock()

	msg, err := s.Start()
	if err != nil {
		t.Fatalf("Start() after failure error = %v", err)
	}
	if msg != MsgStarted {
		t.Errorf("Start() after failure = %q, want %q", msg, MsgStarted)
	}
	if got := s.Status(); got != models.StatusRunning() {
		t.Errorf("Status() = %v, want running", got)
	}
}

func TestConcurrentStartsSpawnOnce(t *testing.T) {
	l := &fakeLauncher{delay: 10 * time.Millisecond}
	s := New(l)

	const n = 32
	var wg sync.WaitGroup
	var started, already atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := s.Start()
			if err != nil {
				t.Errorf("Start() error = %v", err)
				return
			}
			switch msg {
			case MsgStarted:
				started.Add(1)
			case MsgAlreadyRunning:
				already.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := l.count(); got != 1 {
		t.Errorf("launches = %d, want 1", got)
	}
	if started.Load() != 1 || already.Load() != n-1 {
		t.Errorf("started = %d, already = %d, want 1 and %d", started.Load(), already.Load(), n-1)
	}
	if got := s.Status(); got != models.StatusRunning() {
		t.Errorf("Status() = %v, want running", got)
	}
}

func TestStartStopRoundTrip(t *testing.T) {
	l := &fakeLauncher{}
	s := New(l)

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	info := s.Snapshot()
	if info.Status != models.StatusRunning() {
		t.Fatalf("Status = %v, want running", info.Status)
	}
	if info.PID != l.last().PID() || info.RunID == "" || info.StartedAt.IsZero() {
		t.Errorf("Snapshot() = %+v, want run metadata", info)
	}

	msg, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if msg != MsgStopped {
		t.Errorf("Stop() = %q, want %q", msg, MsgStopped)
	}
	if got := s.Status(); got != models.StatusStopped() {
		t.Errorf("Status() = %v, want stopped", got)
	}
	if got := l.last().terminated.Load(); got != 1 {
		t.Errorf("Terminate calls = %d, want 1", got)
	}

	// The handle is gone, so a second stop is a no-op.
	if msg, _ := s.Stop(); msg != MsgNotRunning {
		t.Errorf("second Stop() = %q, want %q", msg, MsgNotRunning)
	}
}

func TestTerminateFailureRevertsToRunning(t *testing.T) {
	l := &fakeLauncher{}
	s := New(l)
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h := l.last()
	h.terminateErr = errors.New("operation not permitted")

	_, err := s.Stop()
	var termErr *TerminateError
	if !errors.As(err, &termErr) {
		t.Fatalf("Stop() error = %v, want *TerminateError", err)
	}
	if termErr.PID != h.PID() {
		t.Errorf("TerminateError.PID = %d, want %d", termErr.PID, h.PID())
	}
	if got := s.Status(); got != models.StatusRunning() {
		t.Errorf("Status() = %v, want running", got)
	}

	// The handle is still held, so a retry reaches it again.
	h.terminateErr = nil
	if msg, err := s.Stop(); err != nil || msg != MsgStopped {
		t.Errorf("retry Stop() = %q, %v; want %q", msg, err, MsgStopped)
	}
	if got := h.terminated.Load(); got != 2 {
		t.Errorf("Terminate calls = %d, want 2", got)
	}
}

func TestToggle(t *testing.T) {
	l := &fakeLauncher{}
	s := New(l)

	tests := []struct {
		wantMsg   string
		wantState models.ServiceState
	}{
		{MsgStarted, models.StateRunning},
		{MsgStopped, models.StateStopped},
		{MsgStarted, models.StateRunning},
	}

	for i, tt := range tests {
		msg, err := s.Toggle()
		if err != nil {
			t.Fatalf("Toggle() #%d error = %v", i, err)
		}
		if msg != tt.wantMsg {
			t.Errorf("Toggle() #%d = %q, want %q", i, msg, tt.wantMsg)
		}
		if got := s.Status().State; got != tt.wantState {
			t.Errorf("Status() after toggle #%d = %v, want %v", i, got, tt.wantState)
		}
	}
	if got := l.count(); got != 2 {
		t.Errorf("launches = %d, want 2", got)
	}
}

func TestConcurrentTogglesStaySerialized(t *testing.T) {
	l := &fakeLauncher{}
	s := New(l)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Toggle(); err != nil {
				t.Errorf("Toggle() error = %v", err)
			}
		}()
	}
	wg.Wait()

	// An even number of toggles always ends where it began.
	if got := s.Status(); got != models.StatusStopped() {
		t.Errorf("Status() = %v, want stopped", got)
	}
	if got := l.count(); got != n/2 {
		t.Errorf("launches = %d, want %d", got, n/2)
	}
}

func TestUnexpectedExit(t *testing.T) {
	tests := []struct {
		name    string
		exitErr error
		want    models.ServiceStatus
	}{
		{
			name:    "clean exit",
			exitErr: nil,
			want:    models.StatusStopped(),
		},
		{
			name:    "crash",
			exitErr: errors.New("exit status 2"),
			want:    models.StatusError("service exited: exit status 2"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLauncher{}
			s := New(l)
			if _, err := s.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			l.last().exit(tt.exitErr)
			waitForState(t, s, tt.want.State)

			if got := s.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
			if msg, _ := s.Stop(); msg != MsgNotRunning {
				t.Errorf("Stop() after exit = %q, want %q", msg, MsgNotRunning)
			}
		})
	}
}

func TestMonitorIgnoresReplacedHandle(t *testing.T) {
	l := &fakeLauncher{}
	s := New(l)

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Give the first handle's monitor time to run; it must not touch the new run.
	time.Sleep(20 * time.Millisecond)
	if got := s.Status(); got != models.StatusRunning() {
		t.Errorf("Status() = %v, want running", got)
	}
}

func TestShutdown(t *testing.T) {
	l := &fakeLauncher{}
	s := New(l)
	events := s.Subscribe("test")

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := s.Status(); got != models.StatusStopped() {
		t.Errorf("Status() = %v, want stopped", got)
	}
	if _, err := s.Start(); !errors.Is(err, ErrShutdown) {
		t.Errorf("Start() after Shutdown error = %v, want ErrShutdown", err)
	}
	if got := l.count(); got != 1 {
		t.Errorf("launches = %d, want 1", got)
	}

	// Drain; the channel must be closed.
	for range events {
	}
}

func TestSubscribeAfterShutdown(t *testing.T) {
	s := New(&fakeLauncher{})
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case _, ok := <-s.Subscribe("late"):
		if ok {
			t.Error("Subscribe() after Shutdown delivered an event, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscribe() after Shutdown returned an open channel")
	}
}

func TestSubscribeReceivesOrderedTransitions(t *testing.T) {
	s := New(&fakeLauncher{})
	events := s.Subscribe("test")
	defer s.Unsubscribe("test")

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	want := []models.ServiceState{
		models.StateStarting,
		models.StateRunning,
		models.StateStopping,
		models.StateStopped,
	}
	var lastSeq uint64
	for i, w := range want {
		select {
		case ev := <-events:
			if ev.Info.Status.State != w {
				t.Errorf("event %d state = %v, want %v", i, ev.Info.Status.State, w)
			}
			if ev.Info.Seq <= lastSeq {
				t.Errorf("event %d seq = %d, want > %d", i, ev.Info.Seq, lastSeq)
			}
			lastSeq = ev.Info.Seq
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	if got := s.Snapshot().Seq; got != lastSeq {
		t.Errorf("Snapshot().Seq = %d, want %d", got, lastSeq)
	}
}

func TestSetLauncher(t *testing.T) {
	first := &fakeLauncher{}
	second := &fakeLauncher{}
	s := New(first)
	s.SetLauncher(second)

	if _, err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if first.count() != 0 || second.count() != 1 {
		t.Errorf("launches = %d/%d, want 0/1", first.count(), second.count())
	}
}
