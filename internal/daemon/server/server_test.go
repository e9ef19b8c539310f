package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/easycue/easycue/internal/control"
	"github.com/easycue/easycue/internal/daemon/supervisor"
	"github.com/easycue/easycue/internal/metrics"
	"github.com/easycue/easycue/internal/models"
)

type testHandle struct {
	pid     int
	termErr error
	once    sync.Once
	done    chan struct{}
}

func (h *testHandle) PID() int              { return h.pid }
func (h *testHandle) Done() <-chan struct{} { return h.done }
func (h *testHandle) ExitErr() error        { return nil }

func (h *testHandle) Terminate() error {
	if h.termErr != nil {
		return h.termErr
	}
	h.once.Do(func() { close(h.done) })
	return nil
}

type testLauncher struct {
	err     error
	termErr error
	pid     int
}

func (l *testLauncher) Launch() (supervisor.Handle, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.pid++
	return &testHandle{pid: 1000 + l.pid, termErr: l.termErr, done: make(chan struct{})}, nil
}

func dialControl(t *testing.T, ctrl Controller) *control.Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	g := grpc.NewServer(grpc.UnaryInterceptor(logUnary))
	control.RegisterServiceControlServer(g, &controlService{ctrl: ctrl})
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return control.NewClient(conn)
}

func TestControlStartStopStatus(t *testing.T) {
	sup := supervisor.New(&testLauncher{})
	client := dialControl(t, sup)
	ctx := context.Background()

	msg, err := client.StartService(ctx)
	if err != nil || msg != supervisor.MsgStarted {
		t.Fatalf("StartService() = %q, %v", msg, err)
	}
	msg, err = client.StartService(ctx)
	if err != nil || msg != supervisor.MsgAlreadyRunning {
		t.Errorf("second StartService() = %q, %v", msg, err)
	}

	info, err := client.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if info.Status.State != models.StateRunning {
		t.Errorf("state = %v, want running", info.Status.State)
	}
	if info.PID == 0 || info.RunID == "" {
		t.Errorf("GetStatus() = %+v, want pid and run id", info)
	}

	msg, err = client.StopService(ctx)
	if err != nil || msg != supervisor.MsgStopped {
		t.Errorf("StopService() = %q, %v", msg, err)
	}
	msg, err = client.StopService(ctx)
	if err != nil || msg != supervisor.MsgNotRunning {
		t.Errorf("second StopService() = %q, %v", msg, err)
	}
}

func TestControlToggle(t *testing.T) {
	sup := supervisor.New(&testLauncher{})
	client := dialControl(t, sup)
	ctx := context.Background()

	if _, err := client.ToggleService(ctx); err != nil {
		t.Fatalf("ToggleService() error: %v", err)
	}
	if got := sup.Status().State; got != models.StateRunning {
		t.Errorf("after toggle state = %v, want running", got)
	}
	if _, err := client.ToggleService(ctx); err != nil {
		t.Fatalf("ToggleService() error: %v", err)
	}
	if got := sup.Status().State; got != models.StateStopped {
		t.Errorf("after second toggle state = %v, want stopped", got)
	}
}

func TestControlCopyAddress(t *testing.T) {
	sup := supervisor.New(&testLauncher{})
	client := dialControl(t, sup)

	addr, err := client.CopyAddress(context.Background())
	if err != nil {
		t.Fatalf("CopyAddress() error: %v", err)
	}
	if addr != "http://localhost:8080" {
		t.Errorf("CopyAddress() = %q, want %q", addr, "http://localhost:8080")
	}
}

func TestControlSpawnFailure(t *testing.T) {
	sup := supervisor.New(&testLauncher{err: errors.New("exec: \"nope\": executable file not found")})
	client := dialControl(t, sup)
	ctx := context.Background()

	_, err := client.StartService(ctx)
	var cerr *control.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("StartService() error = %v, want *control.Error", err)
	}
	if cerr.Code != codes.Unavailable.String() {
		t.Errorf("Code = %s, want %s", cerr.Code, codes.Unavailable)
	}
	if !strings.Contains(cerr.Message, "executable file not found") {
		t.Errorf("Message = %q", cerr.Message)
	}

	info, err := client.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if info.Status.State != models.StateError || info.Status.Message == "" {
		t.Errorf("status = %v, want error with message", info.Status)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"spawn", &supervisor.SpawnError{Err: errors.New("x")}, codes.Unavailable},
		{"terminate", &supervisor.TerminateError{PID: 1, Err: errors.New("x")}, codes.Internal},
		{"shutdown", supervisor.ErrShutdown, codes.FailedPrecondition},
		{"wrapped shutdown", fmt.Errorf("start: %w", supervisor.ErrShutdown), codes.FailedPrecondition},
		{"other", errors.New("x"), codes.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(toStatus(tt.err)); got != tt.want {
				t.Errorf("toStatus(%v) code = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestServerListeners(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	sup := supervisor.New(&testLauncher{})
	srv, err := New(sup, Options{MetricsListen: "127.0.0.1:0", Gatherer: reg})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if srv.Port() == 0 {
		t.Error("Port() = 0, want an allocated port")
	}
	if srv.WebPort() != 0 {
		t.Errorf("WebPort() = %d, want 0 when disabled", srv.WebPort())
	}

	go func() { _ = srv.Serve() }()
	defer srv.Stop()

	conn, err := control.Dial(fmt.Sprintf("127.0.0.1:%d", srv.Port()))
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := control.NewClient(conn).GetStatus(ctx); err != nil {
		t.Fatalf("GetStatus() over TCP error: %v", err)
	}

	var body string
	for i := 0; i < 50; i++ {
		resp, err := http.Get("http://" + srv.MetricsAddr() + "/metrics")
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(b)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(body, "easycue_service_current_state") {
		t.Errorf("/metrics output missing current_state gauge:\n%s", body)
	}
}

func TestWebHandlerRejectsPlainHTTP(t *testing.T) {
	h := webHandler(grpc.NewServer(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET / = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func newWebHandler(t *testing.T, sup *supervisor.Supervisor, allowed []string) http.Handler {
	t.Helper()
	g := grpc.NewServer()
	control.RegisterServiceControlServer(g, &controlService{ctrl: sup})
	return webHandler(g, allowed)
}

func TestWebHandlerRejectsForeignOrigin(t *testing.T) {
	sup := supervisor.New(&testLauncher{})
	h := newWebHandler(t, sup, nil)

	tests := []struct {
		name   string
		method string
		header map[string]string
	}{
		{
			name:   "grpc-web call",
			method: http.MethodPost,
			header: map[string]string{"Content-Type": "application/grpc-web+proto"},
		},
		{
			name:   "preflight",
			method: http.MethodOptions,
			header: map[string]string{
				"Access-Control-Request-Method":  "POST",
				"Access-Control-Request-Headers": "x-grpc-web,content-type",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, control.MethodStartService, strings.NewReader(""))
			req.Header.Set("Origin", "https://evil.example")
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
				t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
			}
		})
	}

	if got := sup.Status(); got != models.StatusStopped() {
		t.Errorf("Status() = %v, want stopped", got)
	}
}

func TestWebHandlerAllowsLocalOrigin(t *testing.T) {
	h := newWebHandler(t, supervisor.New(&testLauncher{}), []string{"https://ui.example"})

	for _, origin := range []string{"http://localhost:3000", "http://127.0.0.1:5173", "https://ui.example"} {
		t.Run(origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, control.MethodStartService, nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			req.Header.Set("Access-Control-Request-Headers", "x-grpc-web,content-type")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code == http.StatusForbidden {
				t.Fatalf("preflight from %s was refused", origin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, origin)
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"http://localhost", nil, true},
		{"http://localhost:8080", nil, true},
		{"https://127.0.0.1:9000", nil, true},
		{"http://[::1]:3000", nil, true},
		{"http://localhost.evil.example", nil, false},
		{"https://evil.example", nil, false},
		{"file://localhost", nil, false},
		{"null", nil, false},
		{"https://ui.example", []string{"https://ui.example"}, true},
		{"https://ui.example:444", []string{"https://ui.example"}, false},
	}

	for _, tt := range tests {
		if got := originAllowed(tt.origin, tt.allowed); got != tt.want {
			t.Errorf("originAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
		}
	}
}
