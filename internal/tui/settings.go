package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/eod/internal/dashboard"
	"github.com/sadopc/eod/internal/reporting"
)

type settingsModel struct {
	svc    *reporting.Service
	width  int
	height int

	weekStartVal time.Weekday
	windowVal    dashboard.Window

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	weekStart *string
	window    *string
}

func newSettingsModel(svc *reporting.Service) settingsModel {
	ws, win := "", ""
	return settingsModel{
		svc:       svc,
		weekStart: &ws,
		window:    &win,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	weekStart time.Weekday
	window    dashboard.Window
}

type settingsSavedMsg struct{}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return settingsDataMsg{weekStart: s.svc.WeekStart(), window: s.svc.DefaultWindow()}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.weekStartVal = msg.weekStart
		s.windowVal = msg.window
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.weekStart = strings.ToLower(s.weekStartVal.String())
	*s.window = string(s.windowVal)
	if *s.window == "" {
		*s.window = string(dashboard.All)
	}

	windowOpts := make([]huh.Option[string], len(dashboard.Windows))
	for i, w := range dashboard.Windows {
		windowOpts[i] = huh.NewOption(w.Label(), string(w))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Sunday", "sunday"),
					huh.NewOption("Monday", "monday"),
				).Value(s.weekStart),
			huh.NewSelect[string]().Title("Default dashboard window").
				Options(windowOpts...).Value(s.window),
		).Title("Dashboard"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, tea.Sequence(s.save(), s.refresh())
	}

	return s, cmd
}

func (s settingsModel) save() tea.Cmd {
	ws := dashboard.ParseWeekStart(*s.weekStart)
	win, err := dashboard.ParseWindow(*s.window)
	return func() tea.Msg {
		if err == nil {
			err = s.svc.UpdateSettings(ws, win)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		return settingsSavedMsg{}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	label := lipgloss.NewStyle().Width(24)
	rows := []string{
		title,
		"",
		fmt.Sprintf("  %s %s", label.Render("Week starts on"), highlightStyle.Render(s.weekStartVal.String())),
		fmt.Sprintf("  %s %s", label.Render("Default window"), highlightStyle.Render(s.windowVal.Label())),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
