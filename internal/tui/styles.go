package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	dark bool

	title    lipgloss.Style
	muted    lipgloss.Style
	err      lipgloss.Style
	status   lipgloss.Style
	selected lipgloss.Style
	current  lipgloss.Style
	sidebar  lipgloss.Style
	modal    lipgloss.Style
	page     lipgloss.Style
}

func newTheme(dark bool) theme {
	fg, muted, accent, border := lipgloss.Color("236"), lipgloss.Color("244"), lipgloss.Color("25"), lipgloss.Color("250")
	if dark {
		fg, muted, accent, border = lipgloss.Color("252"), lipgloss.Color("245"), lipgloss.Color("39"), lipgloss.Color("238")
	}

	return theme{
		dark: dark,
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		muted: lipgloss.NewStyle().
			Foreground(muted),
		err: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		status: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		selected: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		current: lipgloss.NewStyle().
			Foreground(fg).
			Underline(true),
		sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(border).
			PaddingRight(1),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		page: lipgloss.NewStyle().
			Foreground(fg),
	}
}

func (t theme) glamourStyle() string {
	if t.dark {
		return "dark"
	}
	return "light"
}
