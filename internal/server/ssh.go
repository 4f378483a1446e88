package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
)

// ViewerFunc builds the Bubble Tea model shown to interactive sessions.
type ViewerFunc func(sess ssh.Session, width, height int) tea.Model

// SSHConfig holds configuration for the SSH transport.
type SSHConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.tetrisbot/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHConfig returns a config with sensible defaults.
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{
		Address:     ":23235",
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer serves decisions to non-interactive SSH sessions and a live
// bot viewer to sessions that request a PTY.
//
//	ssh -p 23235 localhost < request.txt
//	ssh -t -p 23235 localhost
type SSHServer struct {
	config  SSHConfig
	server  *ssh.Server
	decider *Decider
	viewer  ViewerFunc
	logger  *log.Logger
}

// NewSSHServer creates a new SSH server. viewer may be nil, in which case
// PTY sessions are refused.
func NewSSHServer(cfg SSHConfig, decider *Decider, viewer ViewerFunc, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "tetrisbot-ssh",
		})
	}

	srv := &SSHServer{
		config:  cfg,
		decider: decider,
		viewer:  viewer,
		logger:  logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("server: cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".tetrisbot", "host_key")
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("server: cannot create host key directory: %w", err)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			srv.protocolMiddleware,
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(cfg.IdleTimeout))
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("server: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler starts the viewer for PTY sessions. Other sessions fall
// through to the protocol handler.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok || s.viewer == nil {
		return nil, nil
	}

	return s.viewer(sess, pty.Window.Width, pty.Window.Height), []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// tallyKey stores a protocol session's Tally in its context.
type tallyKey struct{}

// protocolMiddleware answers decision requests on the session's stdin.
func (s *SSHServer) protocolMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		if _, _, isPty := sess.Pty(); isPty {
			if s.viewer == nil {
				wish.Fatalln(sess, "interactive sessions are not supported, pipe a request instead")
				return
			}
			next(sess)
			return
		}

		tally, err := s.decider.Serve(sess, sess)
		sess.Context().SetValue(tallyKey{}, tally)
		if err != nil {
			s.logger.Warn("protocol session failed", "user", sess.User(), "error", err)
			_ = sess.Exit(1)
			return
		}
		next(sess)
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		_, _, isPty := sess.Pty()
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"pty", isPty,
		)
		start := time.Now()
		next(sess)
		tally, _ := sess.Context().Value(tallyKey{}).(Tally)
		totalDecisions, totalRejected := s.decider.Stats()
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"duration", time.Since(start).Round(time.Millisecond),
			"decisions", tally.Decisions,
			"rejected", tally.Rejected,
			"total_decisions", totalDecisions,
			"total_rejected", totalRejected,
		)
	}
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
