package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// logLines is the number of recent log records shown under the stats.
const logLines = 5

// ProgressMsg carries an ingestion progress snapshot.
type ProgressMsg types.ImportProgress

// DoneMsg is sent when the import finished or was cancelled.
type DoneMsg struct {
	Stats *types.ImportStats
	Err   error
}

// ImportFunc runs an import, reporting snapshots through onProgress.
type ImportFunc func(ctx context.Context, onProgress func(types.ImportProgress)) (*types.ImportStats, error)

// ImportModel shows a running import.
type ImportModel struct {
	title     string
	root      string
	spinner   spinner.Model
	progress  types.ImportProgress
	startTime time.Time
	width     int
	height    int

	cancel   context.CancelFunc
	stopping bool
	done     bool
	err      error

	// logs returns the newest n log records.
	logs func(n int) []logging.Entry
}

// NewImportModel returns a model for an import of root. cancel is called
// when the user presses Ctrl+C; the model keeps running until DoneMsg.
func NewImportModel(title, root string, cancel context.CancelFunc) ImportModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return ImportModel{
		title:     title,
		root:      root,
		spinner:   s,
		startTime: time.Now(),
		width:     80,
		height:    24,
		cancel:    cancel,
		logs:      bufferedLogs,
	}
}

func bufferedLogs(n int) []logging.Entry {
	buf := logging.TUIBuffer()
	if buf == nil {
		return nil
	}
	return buf.Last(n)
}

// Init starts the spinner.
func (m ImportModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		}
		return m, nil

	case ProgressMsg:
		m.progress = types.ImportProgress(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the model.
func (m ImportModel) View() string {
	width := max(m.width-4, 40)

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n\n")

	switch {
	case m.done && m.err != nil:
		b.WriteString(errorTextStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	case m.done:
		b.WriteString(successTextStyle.Render("  Import complete"))
	case m.stopping:
		b.WriteString(warningTextStyle.Render(fmt.Sprintf("  %s Stopping after current file...", m.spinner.View())))
	default:
		current := m.progress.CurrentPath
		if current == "" {
			current = m.root
		}
		b.WriteString(fmt.Sprintf("  %s Importing: %s", m.spinner.View(), truncatePath(current, width-16)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderStats(width))
	b.WriteString("\n")

	if entries := m.logs(logLines); len(entries) > 0 {
		b.WriteString("\n")
		for _, e := range entries {
			b.WriteString(m.renderEntry(e, width))
			b.WriteString("\n")
		}
	}

	return outerBoxStyle.Width(max(m.width-2, 42)).Render(b.String())
}

func (m ImportModel) renderHeader(width int) string {
	title := titleStyle.Render("  " + m.title)
	hint := mutedTextStyle.Render("[Ctrl+C to stop]")
	spacing := max(width-lipgloss.Width(title)-lipgloss.Width(hint), 1)
	return title + strings.Repeat(" ", spacing) + hint
}

func (m ImportModel) renderStats(totalWidth int) string {
	boxWidth := max((totalWidth-10)/4, 10)

	files := fmt.Sprintf("%d/%d", m.progress.FilesDone, m.progress.FilesSeen)
	boxes := []string{
		renderStatBox("Files", files, boxWidth),
		renderStatBox("Lines", humanize.Comma(m.progress.LinesProcessed), boxWidth),
		renderStatBox("Values", humanize.Comma(m.progress.Values), boxWidth),
		renderStatBox("Time", formatDuration(time.Since(m.startTime)), boxWidth),
	}

	parts := []string{"  "}
	for i, box := range boxes {
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, box)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderStatBox(label, value string, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.PlaceHorizontal(width-4, lipgloss.Center, statsLabelStyle.Render(label)),
		lipgloss.PlaceHorizontal(width-4, lipgloss.Center, statsValueStyle.Render(value)))
	return statsBoxStyle.Width(width).Render(content)
}

func (m ImportModel) renderEntry(e logging.Entry, width int) string {
	level := e.Level.String()
	line := fmt.Sprintf("%s %-5s %s: %s", e.Time.Format("15:04:05"), level, e.Component, e.Message)
	if len(line) > width-2 {
		line = line[:max(width-5, 0)] + "..."
	}
	return "  " + levelStyle(level).Render(line)
}

// truncatePath shortens path to width, keeping its tail.
func truncatePath(path string, width int) string {
	if width < 4 || len(path) <= width {
		return path
	}
	return "..." + path[len(path)-width+3:]
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", d/time.Minute, (d%time.Minute)/time.Second)
}

// RunImport runs fn while showing the progress view on stderr. Ctrl+C
// cancels the context passed to fn; RunImport returns once fn returns.
func RunImport(ctx context.Context, title, root string, fn ImportFunc) (*types.ImportStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewImportModel(title, root, cancel), tea.WithOutput(os.Stderr))

	type outcome struct {
		stats *types.ImportStats
		err   error
	}
	results := make(chan outcome, 1)
	go func() {
		stats, err := fn(ctx, func(pr types.ImportProgress) { p.Send(ProgressMsg(pr)) })
		results <- outcome{stats, err}
		p.Send(DoneMsg{Stats: stats, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		res := <-results
		if res.err == nil {
			res.err = fmt.Errorf("progress view: %w", err)
		}
		return res.stats, res.err
	}
	res := <-results
	return res.stats, res.err
}
