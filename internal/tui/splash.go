package tui

import (
	"math/rand/v2"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var quotes = []string{
	"The secret of getting ahead is getting started.",
	"Success is not final, failure is not fatal: it is the courage to continue that counts.",
	"Believe you can and you're halfway there.",
	"The only way to do great work is to love what you do.",
	"Act as if what you do makes a difference. It does.",
	"The future belongs to those who believe in the beauty of their dreams.",
	"Don't watch the clock; do what it does. Keep going.",
	"Strive not to be a success, but rather to be of value.",
}

func randomQuote() string {
	return quotes[rand.IntN(len(quotes))]
}

type splashModel struct {
	width    int
	height   int
	quote    string
	duration time.Duration
}

func newSplashModel(d time.Duration) splashModel {
	return splashModel{quote: randomQuote(), duration: d}
}

func (s *splashModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

// Init schedules the end of the splash. A zero duration ends it at once.
func (s splashModel) Init() tea.Cmd {
	if s.duration <= 0 {
		return func() tea.Msg { return splashDoneMsg{} }
	}
	return tea.Tick(s.duration, func(time.Time) tea.Msg {
		return splashDoneMsg{}
	})
}

func (s splashModel) view() string {
	brand := lipgloss.JoinVertical(lipgloss.Center,
		brandStyle.Render("E A V"),
		subtitleStyle.Render("ESTO ARKIS VERSOVA"),
		"",
		quoteStyle.Width(min(60, max(20, s.width-8))).Align(lipgloss.Center).Render(`"`+s.quote+`"`),
		"",
		mutedStyle.Render("press any key"),
	)
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, brand)
}
