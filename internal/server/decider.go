// Package server answers decision requests over SSH and WebSocket.
//
// Both transports speak the text format of package protocol: a client sends
// a board, the piece to place and the counters, and gets back the waypoints
// that steer the piece into the spot the bot picked.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tetris-evolve/internal/protocol"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

// Decider turns requests into routes using a bot. It is safe for concurrent
// use as long as the bot is.
type Decider struct {
	bot    sim.Bot
	logger *log.Logger

	decisions atomic.Int64
	rejected  atomic.Int64
}

// NewDecider creates a decider backed by bot.
func NewDecider(bot sim.Bot, logger *log.Logger) *Decider {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Decider{bot: bot, logger: logger}
}

// Decide picks a placement for the current piece and returns the route to
// it. An empty route means the piece has nowhere to go.
func (d *Decider) Decide(req protocol.Request) []tetris.Waypoint {
	d.decisions.Add(1)

	best, ok := sim.Best(req.State, req.Current, d.bot)
	if !ok {
		return []tetris.Waypoint{}
	}
	route, ok := req.State.Route(best.Piece)
	if !ok {
		// Placements are found from the spawn point, so this is a bug.
		d.logger.Error("no route to chosen placement", "piece", best.Piece)
		return []tetris.Waypoint{}
	}
	return route
}

// Respond handles one encoded request and returns the encoded reply. Bad
// requests are answered with an error line.
func (d *Decider) Respond(msg string) string {
	req, err := protocol.ParseRequest(msg)
	if err != nil {
		d.rejected.Add(1)
		return protocol.FormatError(err)
	}
	return protocol.FormatResponse(d.Decide(req))
}

// Tally counts the requests of one stream.
type Tally struct {
	Decisions int64
	Rejected  int64
}

// Serve answers requests read from r until r is exhausted and returns the
// counts for this stream. Malformed requests get an error line and the
// stream continues.
func (d *Decider) Serve(r io.Reader, w io.Writer) (Tally, error) {
	var tally Tally
	br := bufio.NewReader(r)
	for {
		req, err := protocol.ReadRequest(br)
		var reply string
		switch {
		case errors.Is(err, io.EOF):
			return tally, nil
		case errors.Is(err, protocol.ErrMalformed):
			d.rejected.Add(1)
			tally.Rejected++
			reply = protocol.FormatError(err)
		case err != nil:
			return tally, fmt.Errorf("server: read request: %w", err)
		default:
			tally.Decisions++
			reply = protocol.FormatResponse(d.Decide(req))
		}
		if _, err := io.WriteString(w, reply); err != nil {
			return tally, fmt.Errorf("server: write response: %w", err)
		}
	}
}

// Stats returns the number of requests answered and rejected so far by
// every session.
func (d *Decider) Stats() (decisions, rejected int64) {
	return d.decisions.Load(), d.rejected.Load()
}
