package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// markdown renders assistant replies, which arrive as markdown. The style is
// fixed at construction; the renderer is rebuilt only when the wrap width
// changes.
type markdown struct {
	style string
	width int
	r     *glamour.TermRenderer
}

func newMarkdown() *markdown {
	style := "light"
	switch {
	case lipgloss.ColorProfile() == termenv.Ascii:
		style = "notty"
	case lipgloss.HasDarkBackground():
		style = "dark"
	}
	return &markdown{style: style}
}

func (m *markdown) render(text string, width int) string {
	width = max(20, width)
	plain := lipgloss.NewStyle().Width(width)
	if m == nil {
		return plain.Render(text)
	}
	if m.r == nil || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return plain.Render(text)
		}
		m.r, m.width = r, width
	}
	out, err := m.r.Render(text)
	if err != nil {
		return plain.Render(text)
	}
	return strings.Trim(out, "\n")
}
