// Package server implements the gRPC control server for the daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"

	"github.com/easycue/easycue/internal/control"
	"github.com/easycue/easycue/internal/metrics"
	"github.com/easycue/easycue/internal/models"
)

// Controller is the supervisor surface exposed over the control API.
type Controller interface {
	Start() (string, error)
	Stop() (string, error)
	Toggle() (string, error)
	Snapshot() models.ServiceInfo
}

// Options configures the listeners started by New.
type Options struct {
	// Port is the gRPC port. Pass 0 for dynamic allocation.
	Port int
	// WebPort is the grpc-web port; 0 disables the grpc-web listener.
	WebPort int
	// AllowedOrigins are browser origins accepted on the web port in
	// addition to loopback ones.
	AllowedOrigins []string
	// MetricsListen is the /metrics address; empty disables it.
	MetricsListen string
	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server is the daemon's gRPC server plus its optional HTTP listeners.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	port       int

	web         *http.Server
	webListener net.Listener

	metrics         *http.Server
	metricsListener net.Listener
}

// New creates a server bound to loopback and registers the control service.
func New(ctrl Controller, opts Options) (*Server, error) {
	listener, err := listen(fmt.Sprintf("127.0.0.1:%d", opts.Port))
	if err != nil {
		return nil, err
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(logUnary))
	control.RegisterServiceControlServer(grpcServer, &controlService{ctrl: ctrl})

	srv := &Server{
		grpcServer: grpcServer,
		listener:   listener,
		port:       listener.Addr().(*net.TCPAddr).Port,
	}

	if opts.WebPort > 0 {
		webListener, err := listen(fmt.Sprintf("127.0.0.1:%d", opts.WebPort))
		if err != nil {
			_ = listener.Close()
			return nil, err
		}
		srv.web = &http.Server{Handler: webHandler(grpcServer, opts.AllowedOrigins), ReadHeaderTimeout: 10 * time.Second}
		srv.webListener = webListener
	}

	if opts.MetricsListen != "" {
		metricsListener, err := listen(opts.MetricsListen)
		if err != nil {
			_ = listener.Close()
			if srv.webListener != nil {
				_ = srv.webListener.Close()
			}
			return nil, err
		}
		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(gatherer))
		srv.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		srv.metricsListener = metricsListener
	}

	return srv, nil
}

// webHandler serves grpc-web for browser UIs and, over h2c, plain gRPC on
// the same port. Requests carrying an Origin outside loopback and allowed
// are refused before they reach the control service.
func webHandler(grpcServer *grpc.Server, allowed []string) http.Handler {
	allow := func(origin string) bool { return originAllowed(origin, allowed) }
	wrapped := grpcweb.WrapServer(grpcServer, grpcweb.WithOriginFunc(allow))

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && !allow(origin) {
			log.Printf("[server] Rejected request from origin %q", origin)
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		switch {
		case wrapped.IsGrpcWebRequest(r), wrapped.IsAcceptableGrpcCorsRequest(r):
			wrapped.ServeHTTP(w, r)
		case r.ProtoMajor == 2 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc"):
			grpcServer.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	return h2c.NewHandler(h, &http2.Server{})
}

// originAllowed accepts http(s) origins on a loopback host, plus exact
// matches from allowed.
func originAllowed(origin string, allowed []string) bool {
	if slices.Contains(allowed, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func listen(addr string) (net.Listener, error) {
	l, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return l, nil
}

// Port returns the port the gRPC server is listening on.
func (s *Server) Port() int {
	return s.port
}

// WebPort returns the grpc-web port, or 0 if it is disabled.
func (s *Server) WebPort() int {
	if s.webListener == nil {
		return 0
	}
	return s.webListener.Addr().(*net.TCPAddr).Port
}

// MetricsAddr returns the /metrics listen address, or "" if it is disabled.
func (s *Server) MetricsAddr() string {
	if s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// Serve starts serving requests. This blocks until Stop is called.
// The HTTP listeners run in the background; their failures are logged.
func (s *Server) Serve() error {
	if s.web != nil {
		go func() {
			if err := s.web.Serve(s.webListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[server] grpc-web listener failed: %v", err)
			}
		}()
		log.Printf("[server] grpc-web listening on %s", s.webListener.Addr())
	}
	if s.metrics != nil {
		go func() {
			if err := s.metrics.Serve(s.metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[server] Metrics listener failed: %v", err)
			}
		}()
		log.Printf("[server] Metrics listening on %s/metrics", s.metricsListener.Addr())
	}
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server and its HTTP listeners.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.web != nil {
		_ = s.web.Shutdown(ctx)
	}
	if s.metrics != nil {
		_ = s.metrics.Shutdown(ctx)
	}
	s.grpcServer.GracefulStop()
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		log.Printf("[server] %s failed: %v", info.FullMethod, err)
	}
	return resp, err
}
