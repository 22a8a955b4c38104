package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/eod/internal/reporting"
)

type loginModel struct {
	svc    *reporting.Service
	width  int
	height int

	form  *huh.Form
	email *string // survives value copies
	err   string
}

func newLoginModel(svc *reporting.Service) loginModel {
	email := ""
	return loginModel{svc: svc, email: &email}
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l loginModel) reset() (loginModel, tea.Cmd) {
	*l.email = ""
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email Address").
				Placeholder("you@estoarkis.com").
				Value(l.email).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("email is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)
	return l, l.form.Init()
}

func (l loginModel) attempt() tea.Cmd {
	email := *l.email
	return func() tea.Msg {
		u, err := l.svc.Login(email)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return loginMsg{user: u}
	}
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if msg, ok := msg.(loginFailedMsg); ok {
		l.err = reporting.UserMessage(msg.err)
		return l.reset()
	}
	if l.form == nil {
		return l.reset()
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}
	if l.form.State == huh.StateCompleted {
		return l, l.attempt()
	}
	return l, cmd
}

func (l loginModel) view() string {
	w := min(64, l.width-4)

	var rows []string
	rows = append(rows, titleStyle.Render("Welcome Back"))
	rows = append(rows, subtitleStyle.Render("Sign in to submit or review EOD reports."))
	rows = append(rows, "")
	if l.form != nil {
		rows = append(rows, l.form.View())
	}
	if l.err != "" {
		rows = append(rows, errorStyle.Render(l.err))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Demo accounts"))
	for _, u := range l.svc.Directory().Users() {
		rows = append(rows, fmt.Sprintf("  %s %s",
			highlightStyle.Render(lipgloss.NewStyle().Width(28).Render(u.Email)),
			mutedStyle.Render(string(u.Role))))
	}

	panel := activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, panel)
}
