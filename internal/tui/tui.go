package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shelfex/internal/extractor"
)

// RowUpdateMsg carries one pipeline progress update into the UI.
type RowUpdateMsg struct {
	Update extractor.Update
}

// RunFinishedMsg signals that the pipeline goroutine has returned.
type RunFinishedMsg struct {
	Result extractor.Result
	Err    error
}

// --- Styles ---
var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	infoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	progressBarStyle = lipgloss.NewStyle().Padding(0, 1)
	rowStatusStyle   = map[string]lipgloss.Style{
		"Processing": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"Complete":   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		"Skipped":    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		"Error":      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Number of finished rows kept on screen.
const maxRowLines = 12

type rowLine struct {
	index  int
	url    string
	status string
	images int
	errMsg string
}

// Model renders extraction progress: a spinner, an overall row progress bar,
// and the most recent per-row outcomes.
type Model struct {
	spinner   spinner.Model
	bar       progress.Model
	totalRows int
	doneRows  int
	images    int
	current   string
	lines     []rowLine
	startTime time.Time

	finished bool
	finalErr error

	width int
}

// New builds a progress model for a run over totalRows manifest rows.
func New(totalRows int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	bar := progress.New(progress.WithDefaultGradient())

	return &Model{
		spinner:   s,
		bar:       bar,
		totalRows: totalRows,
		startTime: time.Now(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RowUpdateMsg:
		u := msg.Update
		if u.Status == "Processing" {
			m.current = fmt.Sprintf("row %d/%d", u.RowIndex+1, u.TotalRows)
			return m, nil
		}
		m.doneRows++
		m.images += u.ImagesSaved
		m.lines = append(m.lines, rowLine{
			index:  u.RowIndex,
			url:    u.ZipURL,
			status: u.Status,
			images: u.ImagesSaved,
			errMsg: u.ErrMsg,
		})
		if len(m.lines) > maxRowLines {
			m.lines = m.lines[len(m.lines)-maxRowLines:]
		}
		return m, nil

	case RunFinishedMsg:
		m.finished = true
		m.images = msg.Result.ImagesSaved
		m.finalErr = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("shelfex extract"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.totalRows > 0 {
		percent = float64(m.doneRows) / float64(m.totalRows)
	}
	b.WriteString(progressBarStyle.Render(m.bar.ViewAs(percent)))
	b.WriteString(fmt.Sprintf(" %d/%d rows\n\n", m.doneRows, m.totalRows))

	if m.finished && m.finalErr != nil {
		b.WriteString(errorStyle.Render("Finished with error."))
	} else if m.finished {
		b.WriteString(infoStyle.Render("Finished."))
	} else {
		b.WriteString(fmt.Sprintf("%s Processing %s", m.spinner.View(), m.current))
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("  images saved: %d  elapsed: %s",
		m.images, time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")

	for _, line := range m.lines {
		style, ok := rowStatusStyle[line.status]
		if !ok {
			style = infoStyle
		}
		label := fmt.Sprintf("%-8s", line.status)
		detail := fmt.Sprintf("row %d  images=%d  %s", line.index, line.images, truncate(line.url, 60))
		if line.errMsg != "" {
			detail += "  " + errorStyle.Render(truncate(line.errMsg, 50))
		}
		b.WriteString("  " + style.Render(label) + " " + detail + "\n")
	}

	b.WriteString("\n" + infoStyle.Render("press q to stop after the current row"))
	b.WriteString("\n")
	return b.String()
}

// truncate shortens s to at most n runes, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string([]rune(s)[:n-1]) + "…"
}
