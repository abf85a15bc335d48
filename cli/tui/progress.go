package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dexfetch/dexfetch/runtime"
)

// DefaultTickInterval is the board polling interval for the live view.
const DefaultTickInterval = 200 * time.Millisecond

// tickMsg drives board polling.
type tickMsg time.Time

// ProgressModel is a Bubble Tea model rendering live batch progress
// from a runtime board. Quits automatically once every item is terminal,
// or earlier on q/Ctrl+C.
type ProgressModel struct {
	board    *runtime.Board
	interval time.Duration
	bar      progress.Model
	snap     runtime.BoardSnapshot
	items    []runtime.ItemState
	width    int
	quitting bool
}

// NewProgressModel creates a progress model polling the given board.
// A zero interval uses the default.
func NewProgressModel(board *runtime.Board, interval time.Duration) ProgressModel {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return ProgressModel{
		board:    board,
		interval: interval,
		bar:      progress.New(progress.WithDefaultGradient()),
		snap:     board.Snapshot(),
		items:    board.States(),
	}
}

func (m ProgressModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-8, 60)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.snap = m.board.Snapshot()
		m.items = m.board.States()
		if m.snap.Done() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.tick()
	}

	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("dexfetch batch progress"))
	b.WriteString("\n\n")

	ratio := 0.0
	if m.snap.Total > 0 {
		ratio = float64(m.snap.Completed()) / float64(m.snap.Total)
	}
	b.WriteString(m.bar.ViewAs(ratio))
	b.WriteString("\n\n")

	boxes := []string{
		m.renderStatBox("Pending", m.snap.Pending, mutedColor),
		m.renderStatBox("Running", m.snap.Running, warningColor),
		m.renderStatBox("Done", m.snap.Succeeded+m.snap.Skipped, successColor),
		m.renderStatBox("Failed", m.snap.Failed, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	for _, it := range m.items {
		style := StateStyle(string(it.State))
		b.WriteString(fmt.Sprintf("  %-16s %s\n", it.Item, style.Render(string(it.State))))
	}

	b.WriteString(HelpStyle.Render("Press q or Ctrl+C to detach"))
	return b.String()
}

func (m ProgressModel) renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)
	return boxStyle.Render(content)
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunProgressTUI runs the live progress view until the batch finishes
// or the user detaches. Detaching does not cancel the batch.
func RunProgressTUI(board *runtime.Board, interval time.Duration) error {
	p := tea.NewProgram(NewProgressModel(board, interval))
	_, err := p.Run()
	return err
}

// RenderProgressStatic renders one progress frame without a live TUI.
func RenderProgressStatic(board *runtime.Board) string {
	model := NewProgressModel(board, DefaultTickInterval)
	model.width = 80
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
