// Package web serves a directory of dashboard assets over HTTP, forcing a
// fixed set of extra headers onto every response.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Options describes what a Server serves and which headers it forces onto
// every response.
type Options struct {
	Root      string      // directory mapped to "/"
	Headers   http.Header // attached to every response just before the status line
	Preflight bool        // answer OPTIONS with 204 instead of 501

	ShutdownTimeout time.Duration // default: DefaultShutdownTimeout
}

// DefaultShutdownTimeout bounds how long Stop waits for in-flight requests.
const DefaultShutdownTimeout = 5 * time.Second

// Server serves a directory tree over HTTP.
type Server struct {
	opts     Options
	listener net.Listener
	httpSrv  *http.Server
	port     int
	stopOnce sync.Once
	stopErr  error
}

// NewServer creates a static file server for opts.Root.
func NewServer(opts Options) *Server {
	return &Server{opts: opts}
}

// Start binds host:port and serves in the background. The listener is bound
// before Start returns, so callers may issue requests immediately. An empty
// host listens on all interfaces; port 0 picks a free port.
func (s *Server) Start(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port

	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	log.WithFields(log.Fields{"addr": ln.Addr().String(), "root": s.opts.Root}).Debug("http server listening")
	return nil
}

// Stop stops accepting connections and waits up to ShutdownTimeout for
// in-flight requests. Connections still open after that are closed and the
// deadline error is returned. Idempotent.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		if s.httpSrv == nil {
			return
		}
		timeout := s.opts.ShutdownTimeout
		if timeout <= 0 {
			timeout = DefaultShutdownTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.httpSrv.Close()
			s.stopErr = fmt.Errorf("shutdown: %w", err)
		}
	})
	return s.stopErr
}

// Port returns the bound port number.
func (s *Server) Port() int {
	return s.port
}

// URL returns the address a local browser should open.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler returns the full request pipeline: header injection and access
// logging wrapped around the file server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /", http.FileServer(http.Dir(s.opts.Root)))
	if s.opts.Preflight {
		mux.HandleFunc("OPTIONS /", handlePreflight)
	}
	mux.HandleFunc("/", handleUnsupported)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hw := &headerWriter{ResponseWriter: w, extra: s.opts.Headers}
		mux.ServeHTTP(hw, r)
		logRequest(r, hw, time.Since(start))
	})
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func handleUnsupported(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("Unsupported method (%s)", r.Method), http.StatusNotImplemented)
}
