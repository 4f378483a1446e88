package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
)

// Server runs the SSH and WebSocket transports side by side. Either one can
// be disabled by leaving its address empty.
type Server struct {
	ssh    *SSHServer
	ws     *WSServer
	logger *log.Logger
}

// New creates a server for the configured transports.
func New(sshCfg SSHConfig, wsCfg WSConfig, decider *Decider, viewer ViewerFunc, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "tetrisbot-serve",
		})
	}
	if sshCfg.Address == "" && wsCfg.Address == "" {
		return nil, errors.New("server: no transport configured")
	}

	s := &Server{logger: logger}
	if sshCfg.Address != "" {
		srv, err := NewSSHServer(sshCfg, decider, viewer, logger.WithPrefix("ssh"))
		if err != nil {
			return nil, err
		}
		s.ssh = srv
	}
	if wsCfg.Address != "" {
		s.ws = NewWSServer(wsCfg, decider, logger.WithPrefix("ws"))
	}
	return s, nil
}

// ListenAndServe starts every transport and blocks until an interrupt
// arrives or a transport fails.
func (s *Server) ListenAndServe() error {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	failed := make(chan error, 2)
	if s.ssh != nil {
		s.logger.Info("starting SSH server", "address", s.ssh.Addr())
		go func() {
			if err := s.ssh.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				failed <- err
			}
		}()
	}
	if s.ws != nil {
		s.logger.Info("starting WebSocket server", "address", s.ws.Addr(), "path", DecidePath)
		go func() {
			if err := s.ws.ListenAndServe(); err != nil {
				failed <- err
			}
		}()
	}

	var serveErr error
	select {
	case <-done:
	case serveErr = <-failed:
		s.logger.Error("server error", "error", serveErr)
	}

	s.logger.Info("shutting down...")
	if err := s.Shutdown(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// Shutdown gracefully stops all transports.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if s.ssh != nil {
		errs = append(errs, s.ssh.server.Shutdown(ctx))
	}
	if s.ws != nil {
		errs = append(errs, s.ws.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
