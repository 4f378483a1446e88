package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	_ "github.com/vovakirdan/tetris-evolve/internal/bot"
	"github.com/vovakirdan/tetris-evolve/internal/config"
	"github.com/vovakirdan/tetris-evolve/internal/genetic"
	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/storage"
	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

var lowStack = sim.BotFunc(func(s tetris.State) float64 {
	v := float64(s.Score)
	for x := range tetris.Width {
		v -= float64(s.Board.Holes(x))*20 + float64(s.Board.ColumnHeight(x))
	}
	return v
})

var testPace = config.NewPace(config.WatchConfig{TickMS: 100, MinTickMS: 20, MaxLevel: 10})

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next
}

func TestLiveFeedMatchesSimulator(t *testing.T) {
	cfg := sim.Config{KillLines: 4}

	var want []sim.Move
	sim.New(7, cfg).Play(lowStack, func(m sim.Move) { want = append(want, m) })

	feed := NewLiveFeed("low", lowStack, 7, cfg)
	for i, w := range want {
		got, ok := feed.Next()
		if !ok {
			t.Fatalf("feed ended after %d moves, want %d", i, len(want))
		}
		if got != w {
			t.Fatalf("move %d = %+v, want %+v", i, got.Piece, w.Piece)
		}
	}
	if _, ok := feed.Next(); ok {
		t.Error("feed should end at the kill line")
	}

	feed.Restart()
	if !strings.Contains(feed.Title(), "seed 8") {
		t.Errorf("Title() after restart = %q", feed.Title())
	}
}

func TestTraceFeedSplitsGames(t *testing.T) {
	var rows []storage.TraceRow
	for game := range 2 {
		sim.New(int64(game), sim.Config{KillLines: 1}).Play(lowStack, func(m sim.Move) {
			rows = append(rows, storage.NewTraceRow(game, m))
		})
	}

	feed := NewTraceFeed("t", rows)
	if len(feed.games) != 2 {
		t.Fatalf("got %d games, want 2", len(feed.games))
	}

	n := 0
	prev := feed.Start()
	for {
		m, ok := feed.Next()
		if !ok {
			break
		}
		if m.Before != prev {
			t.Fatalf("move %d does not continue from the previous state", n)
		}
		prev = m.After
		n++
	}
	if n != len(feed.games[0]) {
		t.Errorf("replayed %d moves of game 1, want %d", n, len(feed.games[0]))
	}

	feed.Restart()
	if !strings.Contains(feed.Title(), "game 2 of 2") {
		t.Errorf("Title() = %q", feed.Title())
	}
	feed.Restart()
	if !strings.Contains(feed.Title(), "game 1 of 2") {
		t.Errorf("Title() should wrap, got %q", feed.Title())
	}
}

func TestTraceFeedStopsAtCorruptRow(t *testing.T) {
	var rows []storage.TraceRow
	sim.New(2, sim.Config{KillLines: 1}).Play(lowStack, func(m sim.Move) {
		rows = append(rows, storage.NewTraceRow(0, m))
	})
	if len(rows) < 2 {
		t.Fatalf("game produced %d moves, need 2", len(rows))
	}
	rows[1].Shape, rows[1].Rotation = "O", 3

	var m tea.Model = NewWatchModel(NewTraceFeed("bad", rows), testPace, 80, 30)
	for range 3 {
		m = update(t, m, TickMsg(time.Now()))
		_ = m.View()
	}
	w := m.(WatchModel)
	if !w.Over() {
		t.Error("viewer should end the game at the corrupt row")
	}
	if w.State() != mustState(t, rows[0]) {
		t.Error("viewer should stop at the last good move")
	}
}

func mustState(t *testing.T, r storage.TraceRow) tetris.State {
	t.Helper()
	s, err := r.State()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWatchAdvancesOnTick(t *testing.T) {
	feed := NewLiveFeed("low", lowStack, 1, sim.Config{KillLines: 2})
	var m tea.Model = NewWatchModel(feed, testPace, 80, 30)

	m = update(t, m, TickMsg(time.Now()))
	w := m.(WatchModel)
	if w.State().Board.Filled() != 4 {
		t.Errorf("one tick should place one piece, filled = %d", w.State().Board.Filled())
	}

	m = update(t, m, keyMsg("p"))
	before := m.(WatchModel).State()
	m = update(t, m, TickMsg(time.Now()))
	if m.(WatchModel).State() != before {
		t.Error("paused viewer advanced on tick")
	}

	m = update(t, m, keyMsg("n"))
	if m.(WatchModel).State() == before {
		t.Error("step did not advance a paused viewer")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view does not show the pause")
	}
}

func TestWatchGameOverAndRestart(t *testing.T) {
	feed := NewLiveFeed("low", lowStack, 3, sim.Config{KillLines: 1})
	var m tea.Model = NewWatchModel(feed, testPace, 80, 30)

	for i := 0; i < 500 && !m.(WatchModel).Over(); i++ {
		m = update(t, m, TickMsg(time.Now()))
	}
	w := m.(WatchModel)
	if !w.Over() {
		t.Fatal("game did not end")
	}
	if !strings.Contains(m.View(), "GAME OVER") {
		t.Error("view does not show game over")
	}

	m = update(t, m, keyMsg("r"))
	w = m.(WatchModel)
	if w.Over() || w.State() != tetris.New() || w.games != 2 {
		t.Errorf("restart left over=%v games=%d", w.Over(), w.games)
	}
}

func TestWatchShowsClearedRows(t *testing.T) {
	before := tetris.New()
	for x := range tetris.Width - 2 {
		before.Board[19][x] = true
	}
	piece := tetris.Spawn(tetris.O).Translated(4, 18)
	after, ok := before.Place(piece)
	if !ok || after.Lines != 1 {
		t.Fatalf("fixture does not clear a row: ok=%v lines=%d", ok, after.Lines)
	}

	rows := clearedRows(before.Board, piece)
	if len(rows) != 1 || rows[0] != 19 {
		t.Errorf("clearedRows() = %v, want [19]", rows)
	}
}

func TestWatchQuit(t *testing.T) {
	m := NewWatchModel(NewLiveFeed("low", lowStack, 1, sim.DefaultConfig()), testPace, 80, 30)
	next, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit key returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key did not quit")
	}
	if next.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestRenderBoardHighlightsLastPiece(t *testing.T) {
	state := tetris.New()
	piece := tetris.Spawn(tetris.O).Translated(0, 18)
	state, ok := state.Place(piece)
	if !ok {
		t.Fatal("cannot place fixture piece")
	}

	kinds := cellKinds(state.Board, &piece)
	for _, c := range piece.Cells() {
		if kinds[c.Y][c.X] != cellLast {
			t.Errorf("cell %v not highlighted", c)
		}
	}
	if kinds[0][0] != cellEmpty {
		t.Error("empty cell misclassified")
	}

	out := RenderBoard(state.Board, &piece)
	if strings.Count(out, "\n") < tetris.Height-1 {
		t.Errorf("rendered board has too few lines:\n%s", out)
	}
}

type fakeRuns struct {
	runs []storage.Run
	gens map[int64][]storage.Generation
	err  error
}

func (f *fakeRuns) RecentRuns(int) ([]storage.Run, error) { return f.runs, f.err }

func (f *fakeRuns) Generations(id int64) ([]storage.Generation, error) {
	return f.gens[id], nil
}

func TestRunsModel(t *testing.T) {
	src := &fakeRuns{
		runs: []storage.Run{
			{ID: 2, Status: storage.StatusCompleted, Champion: "1,2,3,4", ChampionFitness: 5000},
			{ID: 1, Status: storage.StatusFailed, Error: "boom"},
		},
		gens: map[int64][]storage.Generation{
			2: {
				{RunID: 2, Index: 0, Summary: genetic.Summary{Max: 100, Median: 50}},
				{RunID: 2, Index: 1, Summary: genetic.Summary{Max: 400, Median: 90}},
			},
		},
	}

	var m tea.Model = NewRunsModel(src, 120, 40)
	r := m.(RunsModel)
	if r.Selected() == nil || r.Selected().ID != 2 {
		t.Fatalf("Selected() = %+v, want run 2", r.Selected())
	}
	if len(r.generations) != 2 {
		t.Errorf("loaded %d generations, want 2", len(r.generations))
	}

	m = update(t, m, keyMsg("enter"))
	view := m.View()
	if !strings.Contains(view, "champion 1,2,3,4") {
		t.Errorf("details missing champion:\n%s", view)
	}

	m = update(t, m, keyMsg("down"))
	r = m.(RunsModel)
	if r.Selected().ID != 1 || len(r.generations) != 0 {
		t.Errorf("after down: selected %d with %d generations", r.Selected().ID, len(r.generations))
	}
	if !strings.Contains(m.View(), "failed: boom") {
		t.Error("details missing failure")
	}
}

func TestRunsModelEmptyAndError(t *testing.T) {
	m := NewRunsModel(&fakeRuns{}, 80, 24)
	if !strings.Contains(m.View(), "No runs recorded yet") {
		t.Error("empty store not reported")
	}

	m = NewRunsModel(&fakeRuns{err: errors.New("disk on fire")}, 80, 24)
	if !strings.Contains(m.View(), "disk on fire") {
		t.Error("load error not reported")
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		v, top float64
		want   int
	}{
		{100, 100, 10},
		{50, 100, 5},
		{1, 100, 1},
		{0, 100, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := len(bar(tt.v, tt.top, 10)); got != tt.want {
			t.Errorf("bar(%v, %v) has %d cells, want %d", tt.v, tt.top, got, tt.want)
		}
	}
}

func TestMenuModel(t *testing.T) {
	extra := []MenuItem{{BotID: "best", Title: "Champion of the best run"}}
	var m tea.Model = NewMenuModel(extra, 80, 24)

	menu := m.(MenuModel)
	if len(menu.items) < 2 || menu.items[0].BotID != "best" {
		t.Fatalf("menu items = %+v", menu.items)
	}
	if !strings.Contains(m.View(), "> best") {
		t.Errorf("cursor not on the first item:\n%s", m.View())
	}

	m = update(t, m, keyMsg("up"))
	m = update(t, m, keyMsg("j"))
	next, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("select returned no command")
	}
	sel := next.(MenuModel).Selected()
	if sel == nil || sel.BotID != menu.items[1].BotID {
		t.Errorf("Selected() = %+v, want %s", sel, menu.items[1].BotID)
	}
}
