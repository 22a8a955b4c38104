package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/eod/internal/assistant"
	"github.com/sadopc/eod/internal/export"
	"github.com/sadopc/eod/internal/reporting"
	"github.com/sadopc/eod/internal/store"
)

type Options struct {
	Service   *reporting.Service
	Assistant assistant.Assistant
	Logger    *zap.Logger
	Splash    time.Duration
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	svc       *reporting.Service
	ai        assistant.Assistant
	logger    *zap.Logger
	exportDir string
	width     int
	height    int

	activeView    viewState
	user          store.User
	signedIn      bool
	showHelp      bool
	exportPicking bool
	exportCursor  int

	splash    splashModel
	login     loginModel
	report    reportModel
	summary   summaryModel
	dashboard dashboardModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(opts Options) App {
	h := help.New()
	h.ShowAll = false

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return App{
		svc:        opts.Service,
		ai:         opts.Assistant,
		logger:     logger,
		exportDir:  opts.ExportDir,
		activeView: viewSplash,
		splash:     newSplashModel(opts.Splash),
		login:      newLoginModel(opts.Service),
		report:     newReportModel(opts.Service),
		summary:    newSummaryModel(opts.Assistant),
		dashboard:  newDashboardModel(opts.Service, opts.Assistant),
		settings:   newSettingsModel(opts.Service),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return a.splash.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.splash.setSize(a.width, a.height)
		a.login.setSize(a.width, contentHeight)
		a.report.setSize(a.width, contentHeight)
		a.summary.setSize(a.width, contentHeight)
		a.dashboard.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.activeView == viewSplash {
			return a.finishSplash()
		}
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		// Login and open forms capture every other key.
		if a.activeView == viewLogin || a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Logout):
			return a.logout()
		case key.Matches(msg, keys.Tab1):
			return a.switchTab(0)
		case key.Matches(msg, keys.Tab2):
			return a.switchTab(1)
		case key.Matches(msg, keys.Tab3):
			return a.switchTab(2)
		case key.Matches(msg, keys.Tab):
			return a.nextTab()
		case key.Matches(msg, keys.Export):
			if a.activeView == viewDashboard && a.user.IsManager() {
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		}

		if a.activeView == viewSummary {
			switch {
			case key.Matches(msg, keys.New):
				return a.switchTo(viewReport)
			case key.Matches(msg, keys.Enter):
				return a.switchTo(viewDashboard)
			}
		}

	case splashDoneMsg:
		if a.activeView == viewSplash {
			return a.finishSplash()
		}
		return a, nil

	case loginMsg:
		a.user = msg.user
		a.signedIn = true
		a.setStatus(fmt.Sprintf("Welcome, %s", msg.user.Name), false)
		return a.enterHome()

	case reportSubmittedMsg:
		a.report = newReportModel(a.svc)
		a.report.setSize(a.width, a.height-4)
		a.setStatus("Report submitted", false)
		var cmd tea.Cmd
		a.summary, cmd = a.summary.begin(msg.report)
		a.activeView = viewSummary
		return a, cmd

	case summaryMsg:
		var cmd tea.Cmd
		a.summary, cmd = a.summary.update(msg)
		return a, cmd

	case insightsMsg, dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case spinner.TickMsg:
		// Each spinner ignores ticks carrying another spinner's ID.
		var c1, c2 tea.Cmd
		a.summary, c1 = a.summary.update(msg)
		a.dashboard, c2 = a.dashboard.update(msg)
		return a, tea.Batch(c1, c2)

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case settingsSavedMsg:
		a.setStatus("Settings saved", false)
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
	if isErr {
		a.logger.Debug("status error", zap.String("text", text))
	}
}

func (a App) finishSplash() (tea.Model, tea.Cmd) {
	if u, ok := a.svc.CurrentUser(); ok {
		a.user = u
		a.signedIn = true
		return a.enterHome()
	}
	a.activeView = viewLogin
	var cmd tea.Cmd
	a.login, cmd = a.login.reset()
	return a, cmd
}

// enterHome opens the landing view for the signed-in role.
func (a App) enterHome() (tea.Model, tea.Cmd) {
	// The tracker outlives sessions so a late answer from before a logout
	// can never match a token issued after it.
	tracker := a.dashboard.tracker
	a.dashboard = newDashboardModel(a.svc, a.ai)
	if tracker != nil {
		a.dashboard.tracker = tracker
	}
	a.dashboard.setSize(a.width, a.height-4)
	if a.user.IsTelecaller() {
		return a.switchTo(viewReport)
	}
	return a.switchTo(viewDashboard)
}

func (a App) logout() (tea.Model, tea.Cmd) {
	a.svc.Logout()
	a.summary = a.summary.cancel()
	a.dashboard = a.dashboard.cancelQuestion()
	a.report = newReportModel(a.svc)
	a.report.setSize(a.width, a.height-4)
	a.user = store.User{}
	a.signedIn = false
	a.exportPicking = false
	a.setStatus("Logged out", false)

	a.activeView = viewLogin
	var cmd tea.Cmd
	a.login, cmd = a.login.reset()
	return a, cmd
}

func (a App) switchTab(i int) (tea.Model, tea.Cmd) {
	tabs := tabsFor(a.user)
	if i >= len(tabs) {
		return a, nil
	}
	return a.switchTo(tabs[i])
}

func (a App) nextTab() (tea.Model, tea.Cmd) {
	tabs := tabsFor(a.user)
	for i, v := range tabs {
		if v == a.activeView {
			return a.switchTo(tabs[(i+1)%len(tabs)])
		}
	}
	return a.switchTo(tabs[0])
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	if a.activeView == viewSummary && v != viewSummary {
		a.summary = a.summary.cancel()
	}
	a.activeView = v

	var cmd tea.Cmd
	switch v {
	case viewReport:
		a.report, cmd = a.report.start()
	case viewDashboard:
		cmd = a.dashboard.loadData()
	case viewSettings:
		cmd = a.settings.refresh()
	}
	return a, cmd
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewLogin:
		a.login, cmd = a.login.update(msg)
	case viewReport:
		a.report, cmd = a.report.update(msg)
	case viewSummary:
		a.summary, cmd = a.summary.update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewReport:
		return a.report.formActive
	case viewDashboard:
		return a.dashboard.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	if a.activeView == viewSplash {
		return a.splash.view()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewLogin:
		content = a.login.view()
	case viewReport:
		content = a.report.view()
	case viewSummary:
		content = a.summary.view()
	case viewDashboard:
		content = a.dashboard.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("EAV") +
		mutedStyle.Render(" EOD Reports")

	if !a.signedIn {
		return headerStyle.Render(title)
	}

	var tabs []string
	for i, v := range tabsFor(a.user) {
		name := fmt.Sprintf("%d %s", i+1, viewNames[v])
		if v == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	who := highlightStyle.Render(a.user.Name) + mutedStyle.Render(fmt.Sprintf(" (%s)  ctrl+o: logout", a.user.Role))

	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - lipgloss.Width(who) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap / 2).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow, spacer, who),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = successStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export Format"))
	rows = append(rows, "")
	for i, f := range export.Formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f.Label()))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(export.Formats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(export.Formats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	svc, dir := a.svc, a.exportDir
	return func() tea.Msg {
		path, err := svc.Export(f, dir)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %s", reporting.UserMessage(err)), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
