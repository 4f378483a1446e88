package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// DecidePath is the URL path of the WebSocket endpoint.
const DecidePath = "/decide"

// WSConfig holds configuration for the WebSocket transport.
type WSConfig struct {
	// Address is the host:port to listen on (e.g., ":8089").
	Address string

	// IdleTimeout closes a connection that sends nothing for this long.
	IdleTimeout time.Duration
}

// WSHandler upgrades HTTP requests and answers one request per text
// message with one response message.
type WSHandler struct {
	decider     *Decider
	upgrader    websocket.Upgrader
	idleTimeout time.Duration
	logger      *log.Logger
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(decider *Decider, idleTimeout time.Duration, logger *log.Logger) *WSHandler {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "tetrisbot-ws",
		})
	}
	return &WSHandler{
		decider:     decider,
		idleTimeout: idleTimeout,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("session started", "remote", r.RemoteAddr)
	served := 0
	defer func() {
		h.logger.Info("session ended", "remote", r.RemoteAddr, "requests", served)
	}()

	for {
		if h.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
		}

		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			h.logger.Debug("ignoring non-text message", "remote", r.RemoteAddr)
			continue
		}

		reply := h.decider.Respond(string(msg))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			h.logger.Debug("write failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		served++
	}
}

// WSServer is an HTTP server exposing a WSHandler at DecidePath.
type WSServer struct {
	config WSConfig
	server *http.Server
}

// NewWSServer creates the WebSocket server.
func NewWSServer(cfg WSConfig, decider *Decider, logger *log.Logger) *WSServer {
	mux := http.NewServeMux()
	mux.Handle(DecidePath, NewWSHandler(decider, cfg.IdleTimeout, logger))

	return &WSServer{
		config: cfg,
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe blocks until the server is shut down.
func (s *WSServer) ListenAndServe() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: websocket: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers to return.
func (s *WSServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *WSServer) Addr() string {
	return s.config.Address
}
