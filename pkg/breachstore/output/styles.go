package output

import "github.com/charmbracelet/lipgloss"

// Theme is the palette used by the pretty formatter.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Danger  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
}

// Built-in themes using the ANSI 256-color palette.
var (
	DarkTheme = Theme{
		Name:    "dark",
		Primary: lipgloss.Color("39"),
		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("214"),
		Danger:  lipgloss.Color("196"),
		Muted:   lipgloss.Color("245"),
		Text:    lipgloss.Color("255"),
	}

	LightTheme = Theme{
		Name:    "light",
		Primary: lipgloss.Color("25"),
		Success: lipgloss.Color("28"),
		Warning: lipgloss.Color("130"),
		Danger:  lipgloss.Color("160"),
		Muted:   lipgloss.Color("241"),
		Text:    lipgloss.Color("232"),
	}
)

// ThemeByName returns the named theme, falling back to DarkTheme.
func ThemeByName(name string) Theme {
	if name == LightTheme.Name {
		return LightTheme
	}
	return DarkTheme
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	HeaderBox lipgloss.Style
	FooterBox lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
}

// NewStyles derives styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		HeaderBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1).
			MarginBottom(1),
		FooterBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1).
			MarginTop(1),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:   lipgloss.NewStyle().Foreground(t.Muted),
		Value:   lipgloss.NewStyle().Foreground(t.Text),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Foreground(t.Danger),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Muted),
		Cell: lipgloss.NewStyle().Foreground(t.Text),
	}
}
