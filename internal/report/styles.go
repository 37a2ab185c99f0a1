// Package report renders engine output for humans.
package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors.
var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
	Muted       = lipgloss.Color("#8a94a6")
)

// Styles holds every style the renderer uses.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Path    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

// NewStyles builds styles bound to r, so color is dropped when r's output is
// not a terminal.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true),
		Label:   r.NewStyle().Bold(true).Foreground(Info),
		Path:    r.NewStyle().Foreground(Muted),
		Muted:   r.NewStyle().Foreground(Muted),
		Success: r.NewStyle().Foreground(Success),
		Warning: r.NewStyle().Foreground(Warning),
		Error:   r.NewStyle().Bold(true).Foreground(Destructive),
		Info:    r.NewStyle().Foreground(Info),
	}
}

func defaultStyles(w io.Writer) Styles {
	return NewStyles(lipgloss.NewRenderer(w))
}
