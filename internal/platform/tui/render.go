package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellFilled
	cellLast    // part of the piece placed this turn
	cellCleared // row the last move cleared
)

// cellStyles maps cell kinds to lipgloss styles.
var cellStyles = map[cellKind]lipgloss.Style{
	cellEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	cellFilled:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	cellLast:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	cellCleared: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
}

var cellText = map[cellKind]string{
	cellEmpty:   " .",
	cellFilled:  "[]",
	cellLast:    "[]",
	cellCleared: "==",
}

var boardFrame = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240"))

// cellKinds classifies every cell of board. last is highlighted when the
// move left it on the board.
func cellKinds(board tetris.Board, last *tetris.Piece) [tetris.Height][tetris.Width]cellKind {
	var kinds [tetris.Height][tetris.Width]cellKind
	for y := range tetris.Height {
		for x := range tetris.Width {
			if board[y][x] {
				kinds[y][x] = cellFilled
			}
		}
	}
	if last == nil {
		return kinds
	}
	for _, c := range last.Cells() {
		if c.Y >= 0 && c.Y < tetris.Height && c.X >= 0 && c.X < tetris.Width && board[c.Y][c.X] {
			kinds[c.Y][c.X] = cellLast
		}
	}
	return kinds
}

// RenderBoard draws board two characters per cell inside a frame.
// Groups adjacent cells of the same kind to minimize ANSI escape sequences.
func RenderBoard(board tetris.Board, last *tetris.Piece) string {
	kinds := cellKinds(board, last)

	var sb strings.Builder
	sb.Grow(tetris.Width*tetris.Height*4 + tetris.Height)

	for y := range tetris.Height {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < tetris.Width {
			start := kinds[y][x]
			var run strings.Builder
			for x < tetris.Width && kinds[y][x] == start {
				run.WriteString(cellText[start])
				x++
			}
			sb.WriteString(cellStyles[start].Render(run.String()))
		}
	}
	return boardFrame.Render(sb.String())
}

// RenderClears draws a board whose rows in cleared are marked as removed.
func RenderClears(board tetris.Board, cleared []int) string {
	marked := make(map[int]bool, len(cleared))
	for _, y := range cleared {
		marked[y] = true
	}

	rows := make([]string, tetris.Height)
	for y := range tetris.Height {
		if marked[y] {
			rows[y] = cellStyles[cellCleared].Render(strings.Repeat(cellText[cellCleared], tetris.Width))
			continue
		}
		var run strings.Builder
		for x := range tetris.Width {
			if board[y][x] {
				run.WriteString(cellStyles[cellFilled].Render(cellText[cellFilled]))
			} else {
				run.WriteString(cellStyles[cellEmpty].Render(cellText[cellEmpty]))
			}
		}
		rows[y] = run.String()
	}
	return boardFrame.Render(strings.Join(rows, "\n"))
}
