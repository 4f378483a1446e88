package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tetris-evolve/internal/config"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

const statsWidth = 28

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	statusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(statsWidth).
			Padding(0, 1)
)

// WatchModel is the Bubble Tea model that shows a game move by move.
type WatchModel struct {
	feed   Feed
	pace   config.Pace
	keys   WatchKeyMap
	help   help.Model
	width  int
	height int

	state    tetris.State
	last     *sim.Move
	clearing []int // rows the last move cleared, shown for one tick
	games    int
	best     int
	paused   bool
	over     bool
	quitting bool
	shotPath string
}

// NewWatchModel creates a viewer for feed.
func NewWatchModel(feed Feed, pace config.Pace, width, height int) WatchModel {
	h := help.New()
	h.Width = width

	return WatchModel{
		feed:   feed,
		pace:   pace,
		keys:   DefaultWatchKeyMap(),
		help:   h,
		width:  width,
		height: height,
		state:  feed.Start(),
		games:  1,
	}
}

// Init starts the tick loop.
func (m WatchModel) Init() tea.Cmd {
	return tickCmd(m.pace.Tick(m.state.Level))
}

// Update handles messages and updates the model state.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if !m.paused {
			m.advance()
		}
		return m, tickCmd(m.pace.Tick(m.state.Level))
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused

	case key.Matches(msg, m.keys.Step):
		if m.paused {
			m.advance()
		}

	case key.Matches(msg, m.keys.Restart):
		m.restart()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case msg.String() == "ctrl+s":
		m.saveScreenshot()
	}

	return m, nil
}

// advance shows the next move. A move that clears rows is shown twice:
// first with the cleared rows marked, then settled.
func (m *WatchModel) advance() {
	if m.clearing != nil {
		m.clearing = nil
		return
	}
	if m.over {
		return
	}

	move, ok := m.feed.Next()
	if !ok {
		m.over = true
		return
	}

	m.last = &move
	m.state = move.After
	m.best = max(m.best, m.state.Score)
	if move.After.Lines > move.Before.Lines {
		m.clearing = clearedRows(move.Before.Board, move.Piece)
	}
}

func (m *WatchModel) restart() {
	m.state = m.feed.Restart()
	m.last = nil
	m.clearing = nil
	m.over = false
	m.games++
}

// clearedRows returns the rows that are full once p is added to board.
func clearedRows(board tetris.Board, p tetris.Piece) []int {
	for _, c := range p.Cells() {
		if c.Y >= 0 && c.Y < tetris.Height && c.X >= 0 && c.X < tetris.Width {
			board[c.Y][c.X] = true
		}
	}
	var rows []int
	for y := range tetris.Height {
		full := true
		for x := range tetris.Width {
			if !board[y][x] {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, y)
		}
	}
	return rows
}

// saveScreenshot writes the current board as text to ~/.tetrisbot/screenshots.
func (m *WatchModel) saveScreenshot() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	dir := filepath.Join(home, ".tetrisbot", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("board_%s.txt", timestamp))
	content := fmt.Sprintf("%s\nscore %d  level %d  lines %d\n",
		m.state.Board.String(), m.state.Score, m.state.Level, m.state.Lines)

	if err := os.WriteFile(path, []byte(content), 0o600); err == nil {
		m.shotPath = path
	}
}

// View renders the board and the status panel.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var board string
	if m.clearing != nil {
		withPiece := m.last.Before.Board
		for _, c := range m.last.Piece.Cells() {
			if c.Y >= 0 && c.Y < tetris.Height && c.X >= 0 && c.X < tetris.Width {
				withPiece[c.Y][c.X] = true
			}
		}
		board = RenderClears(withPiece, m.clearing)
	} else {
		var last *tetris.Piece
		if m.last != nil {
			last = &m.last.Piece
		}
		board = RenderBoard(m.state.Board, last)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", m.renderStats())

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m WatchModel) renderStats() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.feed.Title()))
	sb.WriteString("\n\n")

	line := func(label string, value any) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-8s", label)))
		sb.WriteString(fmt.Sprint(value))
		sb.WriteString("\n")
	}
	line("Score", m.state.Score)
	line("Level", m.state.Level)
	line("Lines", m.state.Lines)
	line("Filled", m.state.Board.Filled())
	if m.last != nil {
		line("Turn", m.last.Turn+1)
		line("Piece", m.last.Piece)
	}
	line("Game", m.games)
	line("Best", m.best)
	line("Pace", m.pace.Tick(m.state.Level))

	switch {
	case m.over:
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render("GAME OVER"))
		sb.WriteString("\n")
		sb.WriteString(labelStyle.Render("press r for the next game"))
	case m.paused:
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render("PAUSED"))
	}
	if m.shotPath != "" {
		sb.WriteString("\n\n")
		sb.WriteString(labelStyle.Render("saved " + filepath.Base(m.shotPath)))
	}

	return panelStyle.Render(sb.String())
}

// State returns the state currently on screen.
func (m WatchModel) State() tetris.State {
	return m.state
}

// Over reports whether the current game has ended.
func (m WatchModel) Over() bool {
	return m.over
}

// RunWatch starts the Bubble Tea program with a viewer for feed.
func RunWatch(feed Feed, pace config.Pace, width, height int) error {
	p := tea.NewProgram(
		NewWatchModel(feed, pace, width, height),
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	return err
}
