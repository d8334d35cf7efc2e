package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrettyFormatter renders a styled summary box, table and warnings.
type PrettyFormatter struct {
	styles Styles
}

// NewPrettyFormatter returns a pretty formatter for theme.
func NewPrettyFormatter(theme Theme) *PrettyFormatter {
	return &PrettyFormatter{styles: NewStyles(theme)}
}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Title != "" || len(r.Fields) > 0 {
		w.WriteString(f.formatHeader(r))
		w.WriteString("\n")
	}

	if len(r.Columns) > 0 {
		w.WriteString(f.formatTable(r))
	}

	for _, line := range r.Lines {
		w.WriteString(line)
		w.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string
	if r.Title != "" {
		lines = append(lines, f.styles.Title.Render(r.Title))
	}

	width := 0
	for _, fld := range r.Fields {
		width = max(width, len(fld.Label))
	}
	for _, fld := range r.Fields {
		label := f.styles.Label.Render(padRight(fld.Label+":", width+1))
		lines = append(lines, fmt.Sprintf("%s %s", label, f.styles.Value.Render(fld.Value)))
	}
	return f.styles.HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Rows) == 0 {
		return f.styles.Muted.Render("  Nothing to show") + "\n"
	}

	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = len(c)
	}
	for _, row := range r.Rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var sb strings.Builder
	cells := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		cells[i] = f.styles.Header.Render(padRight(c, widths[i]))
	}
	sb.WriteString("  " + strings.Join(cells, "  ") + "\n")

	for _, row := range r.Rows {
		for i := range cells {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			cells[i] = f.styles.Cell.Render(padRight(v, widths[i]))
		}
		sb.WriteString("  " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(f.styles.Warning.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(f.styles.Warning.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func init() {
	Register("pretty", func(opts Options) Formatter {
		return NewPrettyFormatter(opts.Theme)
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
