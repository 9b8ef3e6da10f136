package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"webpify/internal/convert"
)

// Model renders conversion progress from the core's update channel. It is
// the only consumer of the channel and never touches pipeline state.
type Model struct {
	updates <-chan convert.ProgressUpdate
	started time.Time
	width   int

	total     int
	processed int
	failed    int

	originalBytes int64
	outputBytes   int64

	lastLine string
	quitting bool
}

type doneMsg struct{}

type updateMsg convert.ProgressUpdate

func NewModel(total int, updates <-chan convert.ProgressUpdate) Model {
	return Model{total: total, updates: updates, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.processed += msg.ProcessedDelta
		m.failed += msg.FailedDelta
		m.originalBytes += msg.OriginalDelta
		m.outputBytes += msg.OutputDelta
		if msg.Line != "" {
			m.lastLine = msg.Line
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.processed) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	compression := 0.0
	if m.originalBytes > 0 {
		compression = float64(m.outputBytes) / float64(m.originalBytes) * 100
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("webpify"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) + dimStyle.Render(fmt.Sprintf("  failed:%d", m.failed)),
		labelStyle.Render(fmt.Sprintf("Original: %s  Output: %s (%.1f%%)",
			FormatBytes(m.originalBytes), FormatBytes(m.outputBytes), compression)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}
	if m.lastLine != "" {
		lines = append(lines, dimStyle.Render(m.lastLine))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan convert.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
