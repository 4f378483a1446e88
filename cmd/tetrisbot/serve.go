package main

import (
	"fmt"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-evolve/internal/config"
	"github.com/vovakirdan/tetris-evolve/internal/platform/tui"
	"github.com/vovakirdan/tetris-evolve/internal/server"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
)

var (
	flagSSHAddr     string
	flagWSAddr      string
	flagHostKey     string
	flagIdleTimeout time.Duration
	flagServeBot    string
	flagNoViewer    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer placement requests over SSH and WebSocket",
	Long: `Start the decision server. A request is 20 board lines of 10 cells
('.' empty, 'x' filled), one line with the current and optional next piece
letter, and one line "level score lines". The answer is the number of
waypoints followed by one "x y rotations" line per waypoint, or a single
"error: ..." line for a malformed request.

SSH: pipe requests into a non-interactive session. Interactive sessions
(with a terminal) get the live viewer unless --no-viewer is set.
WebSocket: send one request per message to ` + server.DecidePath + `.

An empty address disables that transport.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.tetrisbot/host_key

Examples:
  tetrisbot serve
  tetrisbot serve --bot best --ssh :2222 --ws ""
  ssh -p 23235 localhost < request.txt
  ssh -t -p 23235 localhost`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH address (default from config)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws", "", "WebSocket address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout before disconnecting (default from config)")
	serveCmd.Flags().StringVar(&flagServeBot, "bot", defaultBot, "Bot that makes the decisions")
	serveCmd.Flags().BoolVar(&flagNoViewer, "no-viewer", false, "Refuse interactive SSH sessions")
}

func runServe(cmd *cobra.Command, _ []string) error {
	srvCfg := appConfig.Server
	flags := cmd.Flags()
	if flags.Changed("ssh") {
		srvCfg.SSHAddr = flagSSHAddr
	}
	if flags.Changed("ws") {
		srvCfg.WSAddr = flagWSAddr
	}
	if flags.Changed("host-key") {
		srvCfg.HostKey = flagHostKey
	}
	if flags.Changed("idle-timeout") {
		srvCfg.IdleTimeout = flagIdleTimeout
	}

	name, b, err := resolveBot(flagServeBot)
	if err != nil {
		return err
	}

	var viewer server.ViewerFunc
	if !flagNoViewer {
		viewer = watchViewer(name, b, simConfig(), config.NewPace(appConfig.Watch))
	}

	srvLogger := logger.WithPrefix("serve")
	decider := server.NewDecider(b, srvLogger)
	srv, err := server.New(
		server.SSHConfig{Address: srvCfg.SSHAddr, HostKeyPath: srvCfg.HostKey, IdleTimeout: srvCfg.IdleTimeout},
		server.WSConfig{Address: srvCfg.WSAddr, IdleTimeout: srvCfg.IdleTimeout},
		decider,
		viewer,
		srvLogger,
	)
	if err != nil {
		return err
	}

	srvLogger.Info("serving decisions", "bot", name)
	if srvCfg.SSHAddr != "" {
		fmt.Printf("Connect with: ssh -p %s localhost < request.txt\n", port(srvCfg.SSHAddr))
	}
	fmt.Println("Press Ctrl+C to stop")

	return srv.ListenAndServe()
}

// watchViewer gives every interactive SSH session its own live game.
func watchViewer(name string, b sim.Bot, cfg sim.Config, pace config.Pace) server.ViewerFunc {
	return func(_ ssh.Session, width, height int) tea.Model {
		feed := tui.NewLiveFeed(name, b, time.Now().UnixNano(), cfg)
		return tui.NewWatchModel(feed, pace, width, height)
	}
}

// port returns the port part of a listen address.
func port(addr string) string {
	if _, p, err := net.SplitHostPort(addr); err == nil {
		return p
	}
	return addr
}
