package localserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// socketMode restricts the socket to its owner.
const socketMode = 0o600

// ErrInUse reports that another process is serving on the socket.
var ErrInUse = errors.New("localserver: socket already in use")

// Server represents the local management server.
type Server struct {
	path       string
	httpServer *http.Server
	running    atomic.Bool
}

// New creates a new local server serving handler on the socket at path.
func New(socketPath string, handler http.Handler) *Server {
	return &Server{
		path: socketPath,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Listen creates the socket. It is separate from Serve so callers can
// report a bind failure before serving in the background.
func (s *Server) Listen() (net.Listener, error) {
	if err := removeStale(s.path); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(s.path, socketMode); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown. It returns nil once
// Shutdown has been called.
func (s *Server) Serve(ln net.Listener) error {
	s.running.Store(true)
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) || !s.running.Load() {
		return nil
	}
	return err
}

// ListenAndServe creates the socket and serves on it.
func (s *Server) ListenAndServe() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown drains active connections and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)
	err := s.httpServer.Shutdown(ctx)
	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

// removeStale deletes a socket file nobody is listening on.
func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", path)
	}

	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		conn.Close()
		return ErrInUse
	}
	return os.Remove(path)
}
