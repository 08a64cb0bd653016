package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent      = lipgloss.Color("#2196F3")
	success     = lipgloss.Color("#8BC34A")
	warning     = lipgloss.Color("#FFC107")
	destructive = lipgloss.Color("#e53935")
	muted       = lipgloss.Color("#6b7280")
)

// Styles holds the lipgloss styles used by the menu
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds styles bound to w, so colour is dropped when w is not a terminal
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(accent),
		Header:  r.NewStyle().Bold(true).Padding(0, 1),
		Cell:    r.NewStyle().Padding(0, 1),
		Muted:   r.NewStyle().Foreground(muted),
		Success: r.NewStyle().Foreground(success),
		Warning: r.NewStyle().Foreground(warning),
		Error:   r.NewStyle().Bold(true).Foreground(destructive),
	}
}
