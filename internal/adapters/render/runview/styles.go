package runview

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	house   lipgloss.Style
	room    lipgloss.Style
	detail  lipgloss.Style
	warning lipgloss.Style
	alert   lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
	meta    lipgloss.Style
	ok      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		house:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		room:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		alert:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
	}
}
