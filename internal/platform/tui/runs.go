package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tetris-evolve/internal/storage"
)

// Runs screen layout constants
const (
	minWidthForDetails = 90  // Minimum width to show generations beside the table
	detailsWidth       = 44  // Width of the generations panel
	maxRuns            = 100 // Max runs to load
)

// RunSource is the part of the run store the runs screen reads from.
type RunSource interface {
	RecentRuns(limit int) ([]storage.Run, error)
	Generations(runID int64) ([]storage.Generation, error)
}

// RunsModel is the Bubble Tea model for browsing evolution runs.
type RunsModel struct {
	source      RunSource
	runs        []storage.Run
	generations []storage.Generation
	loadErr     error
	table       table.Model
	help        help.Model
	keys        RunsKeyMap
	width       int
	height      int
	showDetails bool
	quitting    bool
}

// NewRunsModel creates a new runs model.
func NewRunsModel(source RunSource, width, height int) RunsModel {
	h := help.New()
	h.ShowAll = false
	h.Width = width

	m := RunsModel{
		source: source,
		keys:   DefaultRunsKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.loadRuns()

	return m
}

// createTable creates a new table with appropriate columns.
func (m *RunsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Run", Width: 5},
		{Title: "Status", Width: 10},
		{Title: "Fitness", Width: 10},
		{Title: "Pop", Width: 5},
		{Title: "Gens", Width: 5},
		{Title: "Started", Width: 14},
	}

	height := m.height - 8 // Leave room for header, help, and margins
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns reloads the run list from the source.
func (m *RunsModel) loadRuns() {
	m.runs, m.loadErr = nil, nil
	if m.source != nil {
		m.runs, m.loadErr = m.source.RecentRuns(maxRuns)
	}

	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		fitness := "-"
		if r.Status == storage.StatusCompleted {
			fitness = fmt.Sprintf("%.0f", r.ChampionFitness)
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", r.ID),
			r.Status,
			fitness,
			fmt.Sprintf("%d", r.Population),
			fmt.Sprintf("%d", r.Generations),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
	m.loadGenerations()
}

// loadGenerations loads the generations of the selected run.
func (m *RunsModel) loadGenerations() {
	m.generations = nil
	run := m.Selected()
	if run == nil || m.source == nil {
		return
	}
	gens, err := m.source.Generations(run.ID)
	if err == nil {
		m.generations = gens
	}
}

// Selected returns the run under the cursor, or nil if there are none.
func (m RunsModel) Selected() *storage.Run {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.runs) {
		return nil
	}
	return &m.runs[i]
}

// Init initializes the runs model.
func (m RunsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the runs screen.
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Details):
			m.showDetails = !m.showDetails
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			m.loadRuns()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			m.loadGenerations()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cursor := m.table.Cursor()
		rows := m.table.Rows()
		m.table = m.createTable()
		m.table.SetRows(rows)
		m.table.SetCursor(cursor)
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the runs screen.
func (m RunsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.MarginBottom(1).Render(centerText("EVOLUTION RUNS", m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	tableRendered := tableStyle.Render(m.renderTableContent())

	switch {
	case m.showDetails && m.width >= minWidthForDetails:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tableRendered, "  ", m.renderDetails()))
	case m.showDetails:
		b.WriteString(m.renderDetails())
	default:
		b.WriteString(tableRendered)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m RunsModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	if m.loadErr != nil {
		return emptyStyle.Render("Cannot load runs:\n" + m.loadErr.Error())
	}
	if len(m.runs) == 0 {
		return emptyStyle.Render("No runs recorded yet.\nStart one with tetrisbot evolve!")
	}

	return m.table.View()
}

// renderDetails renders the selected run's champion and generation summaries.
func (m RunsModel) renderDetails() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(detailsWidth).
		Padding(0, 1)

	run := m.Selected()
	if run == nil {
		return style.Render("No run selected")
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Run #%d", run.ID)))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("seed %d, %d games, kill at %d lines",
		run.Seed, run.Games, run.KillLines)))
	sb.WriteString("\n")
	switch run.Status {
	case storage.StatusCompleted:
		sb.WriteString("champion " + run.Champion + "\n")
	case storage.StatusFailed:
		sb.WriteString(statusStyle.Render("failed: "+run.Error) + "\n")
	}
	sb.WriteString("\n")

	if len(m.generations) == 0 {
		sb.WriteString(labelStyle.Render("no generations recorded"))
		return style.Render(sb.String())
	}

	top := 0.0
	for _, g := range m.generations {
		top = max(top, g.Max)
	}
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-4s %9s %9s  %s", "gen", "max", "median", "")))
	sb.WriteString("\n")
	for _, g := range m.generations {
		fmt.Fprintf(&sb, "%-4d %9.0f %9.0f  %s\n", g.Index, g.Max, g.Median, bar(g.Max, top, 14))
	}

	return style.Render(strings.TrimRight(sb.String(), "\n"))
}

// bar draws v as a horizontal bar scaled so that top fills width cells.
func bar(v, top float64, width int) string {
	if top <= 0 || v <= 0 {
		return ""
	}
	n := int(v / top * float64(width))
	return strings.Repeat("#", max(n, 1))
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text
}

// RunRuns runs the runs screen.
func RunRuns(source RunSource, width, height int) error {
	p := tea.NewProgram(
		NewRunsModel(source, width, height),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
