// Package protocol implements the line based text format spoken by the
// decision server.
//
// A request is 22 lines:
//
//	20 lines of 10 cells, '.' for empty and 'x' for filled, top row first
//	the current piece letter, optionally followed by the next one: "Z I"
//	level, score and lines cleared: "18 22800 4"
//
// A response is a waypoint count followed by one "x y r" line per waypoint.
// The piece is moved to (x, y) and then rotated r times clockwise; negative r
// rotates counter-clockwise. A count of 0 means the piece cannot be placed.
//
// The server side uses ReadRequest and FormatResponse. ParseResponse and
// ReadResponse are the client half, for programs that talk to the server.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

// RequestLines is the number of lines in one request.
const RequestLines = tetris.Height + 2

// MaxWaypoints bounds the waypoint count of a response. A route never visits
// more states than the placement search can hold.
const MaxWaypoints = tetris.Width * tetris.Height * 4

// ErrMalformed is wrapped by every parse error.
var ErrMalformed = errors.New("malformed message")

// Request is a decoded decision request.
type Request struct {
	State   tetris.State
	Current tetris.Shape
	Next    tetris.Shape
	HasNext bool
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("protocol: %s: %w", fmt.Sprintf(format, args...), ErrMalformed)
}

// ParseRequest decodes a request. Trailing newlines are ignored.
func ParseRequest(s string) (Request, error) {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	if len(lines) != RequestLines {
		return Request{}, malformed("want %d lines, got %d", RequestLines, len(lines))
	}
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return parseLines(lines)
}

// ReadRequest reads one request from r. It always consumes RequestLines
// lines unless the stream ends first, so a malformed request does not
// desynchronise the stream. io.EOF is returned if r was already exhausted.
func ReadRequest(r *bufio.Reader) (Request, error) {
	lines, err := readLines(r, RequestLines)
	if err != nil {
		return Request{}, err
	}
	return parseLines(lines)
}

// readLines reads exactly n lines. A stream ending part way through is a
// malformed message; a stream that is already empty returns io.EOF.
func readLines(r *bufio.Reader, n int) ([]string, error) {
	var lines []string
	for len(lines) < n {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err == nil {
			continue
		}
		switch {
		case err != io.EOF:
			return nil, err
		case len(lines) == 0:
			return nil, io.EOF
		case len(lines) < n:
			return nil, malformed("message truncated after %d lines", len(lines))
		}
	}
	return lines, nil
}

func parseLines(lines []string) (Request, error) {
	var req Request

	for y := range tetris.Height {
		row := lines[y]
		if len(row) != tetris.Width {
			return Request{}, malformed("row %d has %d cells, want %d", y, len(row), tetris.Width)
		}
		for x, c := range []byte(row) {
			switch c {
			case '.':
			case 'x':
				req.State.Board[y][x] = true
			default:
				return Request{}, malformed("bad cell %q at (%d, %d)", c, x, y)
			}
		}
	}

	pieces := strings.Fields(lines[tetris.Height])
	if len(pieces) == 0 || len(pieces) > 2 {
		return Request{}, malformed("want 1 or 2 pieces, got %d", len(pieces))
	}
	shapes := make([]tetris.Shape, len(pieces))
	for i, p := range pieces {
		if len(p) != 1 {
			return Request{}, malformed("bad piece %q", p)
		}
		s, err := tetris.ParseShape(rune(p[0]))
		if err != nil {
			return Request{}, malformed("bad piece %q", p)
		}
		shapes[i] = s
	}
	req.Current = shapes[0]
	if len(shapes) == 2 {
		req.Next, req.HasNext = shapes[1], true
	}

	counters, err := parseInts(lines[tetris.Height+1], 3)
	if err != nil {
		return Request{}, err
	}
	for _, v := range counters {
		if v < 0 {
			return Request{}, malformed("negative counter %d", v)
		}
	}
	req.State.Level, req.State.Score, req.State.Lines = counters[0], counters[1], counters[2]

	return req, nil
}

func parseInts(line string, n int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != n {
		return nil, malformed("want %d integers in %q, got %d", n, line, len(fields))
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, malformed("bad integer %q", f)
		}
		out[i] = v
	}
	return out, nil
}

// String encodes the request. ParseRequest(r.String()) returns r.
func (r Request) String() string {
	var sb strings.Builder
	sb.WriteString(r.State.Board.String())
	sb.WriteString(r.Current.String())
	if r.HasNext {
		sb.WriteByte(' ')
		sb.WriteString(r.Next.String())
	}
	fmt.Fprintf(&sb, "\n%d %d %d\n", r.State.Level, r.State.Score, r.State.Lines)
	return sb.String()
}

// FormatResponse encodes a route.
func FormatResponse(route []tetris.Waypoint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n", len(route))
	for _, w := range route {
		fmt.Fprintf(&sb, "%d %d %d\n", w.X, w.Y, w.R)
	}
	return sb.String()
}

// ParseResponse decodes a response produced by FormatResponse.
func ParseResponse(s string) ([]tetris.Waypoint, error) {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	if strings.HasPrefix(lines[0], ErrorPrefix) {
		return nil, &RemoteError{Message: strings.TrimSpace(strings.TrimPrefix(lines[0], ErrorPrefix))}
	}

	count, err := parseInts(lines[0], 1)
	if err != nil {
		return nil, err
	}
	n := count[0]
	if n < 0 || n > MaxWaypoints {
		return nil, malformed("waypoint count %d out of range", n)
	}
	if len(lines) != n+1 {
		return nil, malformed("count %d does not match %d waypoint lines", n, len(lines)-1)
	}

	route := make([]tetris.Waypoint, n)
	for i := range route {
		v, err := parseInts(lines[i+1], 3)
		if err != nil {
			return nil, err
		}
		route[i] = tetris.Waypoint{X: v[0], Y: v[1], R: v[2]}
	}
	return route, nil
}

// ReadResponse reads one response from r.
func ReadResponse(r *bufio.Reader) ([]tetris.Waypoint, error) {
	head, err := readLines(r, 1)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(head[0], ErrorPrefix) {
		return ParseResponse(head[0])
	}
	count, err := parseInts(head[0], 1)
	if err != nil {
		return nil, err
	}
	if count[0] < 0 || count[0] > MaxWaypoints {
		return nil, malformed("waypoint count %d out of range", count[0])
	}
	body, err := readLines(r, count[0])
	if err != nil {
		return nil, err
	}
	return ParseResponse(strings.Join(append(head, body...), "\n"))
}

// ErrorPrefix starts the single line sent in place of a response when a
// request could not be handled.
const ErrorPrefix = "error:"

// FormatError encodes err as an error line.
func FormatError(err error) string {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	return ErrorPrefix + " " + msg + "\n"
}

// RemoteError is an error line received from a server.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "protocol: server error: " + e.Message
}
