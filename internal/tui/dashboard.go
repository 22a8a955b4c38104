package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/eod/internal/assistant"
	"github.com/sadopc/eod/internal/dashboard"
	"github.com/sadopc/eod/internal/reporting"
)

const historyPageSize = 5

type dashboardModel struct {
	svc     *reporting.Service
	ai      assistant.Assistant
	tracker *assistant.Tracker
	width   int
	height  int

	window dashboard.Window
	data   dashboard.View
	loaded bool
	err    string
	offset int // first history row shown

	// AI analyst
	formActive bool
	form       *huh.Form
	question   *string
	asked      string
	answering  bool
	answer     string
	md         *markdown
	answerErr  string
	spinner    spinner.Model

	leaderChart barchart.Model
	seriesChart barchart.Model
}

func newDashboardModel(svc *reporting.Service, ai assistant.Assistant) dashboardModel {
	q := ""
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = highlightStyle
	return dashboardModel{
		svc:         svc,
		ai:          ai,
		tracker:     assistant.NewTracker(),
		md:          newMarkdown(),
		window:      svc.DefaultWindow(),
		question:    &q,
		spinner:     sp,
		leaderChart: barchart.New(60, 10),
		seriesChart: barchart.New(60, 10),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	if d.loaded {
		d.buildCharts()
	}
}

func (d dashboardModel) loadData() tea.Cmd {
	w := d.window
	return func() tea.Msg {
		v, err := d.svc.Dashboard(w)
		return dashboardDataMsg{view: v, err: err}
	}
}

// setWindow switches the filter. A pending answer belongs to the old
// window's reports, so it is abandoned.
func (d dashboardModel) setWindow(w dashboard.Window) (dashboardModel, tea.Cmd) {
	if w == d.window {
		return d, nil
	}
	d.window = w
	d.offset = 0
	d = d.cancelQuestion()
	return d, d.loadData()
}

func (d dashboardModel) cancelQuestion() dashboardModel {
	d.tracker.Cancel()
	d.answering = false
	d.answer, d.answerErr, d.asked = "", "", ""
	return d
}

func (d dashboardModel) ask(question string) (dashboardModel, tea.Cmd) {
	d.asked = question
	d.answer, d.answerErr = "", ""
	if d.ai == nil {
		d.answerErr = assistant.UserMessage(assistant.ErrNotConfigured)
		return d, nil
	}
	d.answering = true

	ctx, tok := d.tracker.Begin(context.Background())
	ai, reports := d.ai, d.data.Reports
	call := func() tea.Msg {
		text, err := ai.Answer(ctx, reports, question)
		return insightsMsg{tok: tok, text: text, err: err}
	}
	return d, tea.Batch(d.spinner.Tick, call)
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	// Results and ticks must land even while the question form is open.
	switch msg.(type) {
	case insightsMsg, spinner.TickMsg, dashboardDataMsg:
	default:
		if d.formActive && d.form != nil {
			return d.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.err != nil {
			d.err = reporting.UserMessage(msg.err)
			return d, nil
		}
		d.err = ""
		d.data = msg.view
		d.loaded = true
		if d.offset >= len(d.data.Reports) {
			d.offset = 0
		}
		d.buildCharts()
		return d, nil

	case insightsMsg:
		if !d.tracker.Finish(msg.tok) {
			return d, nil
		}
		d.answering = false
		if msg.err != nil {
			d.answerErr = assistant.UserMessage(msg.err)
		} else {
			d.answer = msg.text
		}
		return d, nil

	case spinner.TickMsg:
		if !d.answering {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Today):
			return d.setWindow(dashboard.Today)
		case key.Matches(msg, keys.ThisWeek):
			return d.setWindow(dashboard.Week)
		case key.Matches(msg, keys.ThisMonth):
			return d.setWindow(dashboard.Month)
		case key.Matches(msg, keys.AllTime):
			return d.setWindow(dashboard.All)
		case key.Matches(msg, keys.Up):
			if d.offset > 0 {
				d.offset--
			}
		case key.Matches(msg, keys.Down):
			if d.offset < len(d.data.Reports)-1 {
				d.offset++
			}
		case key.Matches(msg, keys.Ask):
			if d.data.Viewer.IsManager() {
				return d.showQuestionForm()
			}
		case key.Matches(msg, keys.Back):
			if d.answering {
				d = d.cancelQuestion()
				return d, func() tea.Msg { return statusMsg{text: assistant.UserMessage(context.Canceled)} }
			}
		}
	}
	return d, nil
}

func (d dashboardModel) showQuestionForm() (dashboardModel, tea.Cmd) {
	*d.question = ""
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ask the AI Analyst").
				Placeholder("e.g., Who had the best connection rate this week?").
				Value(d.question),
		),
	).WithShowHelp(true).WithShowErrors(true)
	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}
	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		return d.ask(*d.question)
	}
	return d, cmd
}

// stackedBar draws connected calls under the rest of the dialed calls so the
// full bar height is calls dialed.
func stackedBar(label string, dialed, connected int) barchart.BarData {
	rest := max(0, dialed-connected)
	values := []barchart.BarValue{
		{Name: "Connected", Value: float64(connected), Style: connectedBarStyle},
		{Name: "Dialed", Value: float64(rest), Style: dialedBarStyle},
	}
	if dialed == 0 && connected == 0 {
		values = []barchart.BarValue{{Name: "", Value: 0, Style: emptyBarStyle}}
	}
	return barchart.BarData{Label: label, Values: values}
}

func (d *dashboardModel) buildCharts() {
	chartWidth := max(20, d.width-10)
	chartHeight := 10
	if d.height > 40 {
		chartHeight = 14
	}

	var leaders []barchart.BarData
	for _, st := range d.data.Leaderboard {
		leaders = append(leaders, stackedBar(truncate(st.Name, 10), st.CallsDialed, st.CallsConnected))
	}
	d.leaderChart = barchart.New(chartWidth, chartHeight)
	d.leaderChart.PushAll(leaders)
	d.leaderChart.Draw()

	var days []barchart.BarData
	for _, p := range d.data.Series {
		days = append(days, stackedBar(p.Day.Format("1/2"), p.CallsDialed, p.CallsConnected))
	}
	d.seriesChart = barchart.New(chartWidth, chartHeight)
	d.seriesChart.PushAll(days)
	d.seriesChart.Draw()
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	if d.err != "" {
		return panelStyle.Width(w).Render(errorStyle.Render(d.err))
	}
	if !d.loaded {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading reports..."))
	}
	if d.data.Empty {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("No Reports Yet"),
			mutedStyle.Render("Submit your first EOD report to see it here."),
		))
	}

	manager := d.data.Viewer.IsManager()
	var sections []string
	sections = append(sections, d.renderHeader(manager))
	sections = append(sections, d.renderTotals(manager, w))
	if manager {
		sections = append(sections, d.renderAnalyst(w))
	}
	if d.data.ShowSeries() {
		sections = append(sections, d.renderSeries())
	}
	if manager {
		sections = append(sections, d.renderLeaderboard())
	}
	sections = append(sections, d.renderHistory(manager, w))

	return panelStyle.Width(w).Render(strings.Join(sections, "\n\n"))
}

func (d dashboardModel) renderHeader(manager bool) string {
	var tabs []string
	for _, win := range dashboard.Windows {
		if win == d.window {
			tabs = append(tabs, activeTabStyle.Render(win.Label()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(win.Label()))
		}
	}
	hint := "t/w/m/a: window"
	if manager {
		hint += "  i: ask AI  x: export"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Performance Dashboard"),
		lipgloss.JoinHorizontal(lipgloss.Bottom, append(tabs, "  ", mutedStyle.Render(hint))...),
	)
}

func (d dashboardModel) renderTotals(manager bool, w int) string {
	title := "Your Total Stats"
	if manager {
		title = "Total Team Stats"
	}
	t := d.data.Summary
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(title),
		renderCards([]card{
			{"Total Dials", t.CallsDialed},
			{"Total Connected", t.CallsConnected},
			{"Total Explained", t.ProjectsExplained},
			{"Visits Scheduled", t.ScheduledVisits},
			{"Visits Completed", t.CompletedVisits},
			{"New Leads", t.Leads},
		}, w-6),
	)
}

func (d dashboardModel) renderAnalyst(w int) string {
	rows := []string{sectionStyle.Render("AI Analyst")}
	if d.formActive && d.form != nil {
		rows = append(rows, d.form.View())
		return strings.Join(rows, "\n")
	}
	if d.asked != "" {
		rows = append(rows, mutedStyle.Render("Q: ")+d.asked)
	}
	textWidth := max(20, w-8)
	switch {
	case d.answering:
		rows = append(rows, d.spinner.View()+mutedStyle.Render(" Analyzing reports... (esc to cancel)"))
	case d.answerErr != "":
		rows = append(rows, errorStyle.Width(textWidth).Render(d.answerErr))
	case d.answer != "":
		rows = append(rows, d.md.render(d.answer, textWidth))
	default:
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("Press i to ask about %s.", formatCount(len(d.data.Reports), "report"))))
	}
	return strings.Join(rows, "\n")
}

func legend() string {
	return connectedBarStyle.Render("█") + mutedStyle.Render(" connected  ") +
		dialedBarStyle.Render("█") + mutedStyle.Render(" not connected")
}

func (d dashboardModel) renderSeries() string {
	var totals []string
	for _, p := range d.data.Series {
		totals = append(totals, fmt.Sprintf("  %-10s dialed %4d  connected %4d  visits %3d",
			p.Label, p.CallsDialed, p.CallsConnected, p.ScheduledVisits))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("Team Performance Over Time"),
		d.seriesChart.View(),
		legend(),
		mutedStyle.Render(strings.Join(totals, "\n")),
	)
}

func (d dashboardModel) renderLeaderboard() string {
	rows := []string{sectionStyle.Render("Telecaller Leaderboard")}
	if len(d.data.Leaderboard) == 0 {
		rows = append(rows, mutedStyle.Render("  No data for this period"))
		return strings.Join(rows, "\n")
	}
	rows = append(rows, d.leaderChart.View(), legend())
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-18s %7s %9s %9s %6s %7s",
		"#", "Telecaller", "Dialed", "Connected", "Explained", "Leads", "Reports")))
	for i, st := range d.data.Leaderboard {
		rows = append(rows, fmt.Sprintf("  %-3d %-18s %7d %9d %9d %6d %7d",
			i+1, truncate(st.Name, 18), st.CallsDialed, st.CallsConnected, st.ProjectsExplained, st.Leads, st.ReportCount))
	}
	return strings.Join(rows, "\n")
}

func (d dashboardModel) renderHistory(manager bool, w int) string {
	reports := d.data.Reports
	rows := []string{sectionStyle.Render(fmt.Sprintf("Report History (%d)", len(reports)))}
	if len(reports) == 0 {
		rows = append(rows, mutedStyle.Render("  No reports found for this period."))
		return strings.Join(rows, "\n")
	}

	end := min(len(reports), d.offset+historyPageSize)
	for _, r := range reports[d.offset:end] {
		head := titleStyle.Render(formatDay(r.Date))
		if manager {
			head += "  " + accentStyle.Render(r.TelecallerName)
		}
		rows = append(rows, head)
		rows = append(rows, mutedStyle.Render("  CP Firm: "+truncate(r.PartnerFirm, max(10, w-20))))
		rows = append(rows, fmt.Sprintf("  Dials: %d  Connected: %d  Scheduled: %d  Completed: %d  Leads: %d",
			r.CallsDialed, r.CallsConnected, len(r.ScheduledVisits), len(r.CompletedVisits), len(r.Leads)))
	}
	if len(reports) > historyPageSize {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d-%d of %d  ↑/↓: scroll", d.offset+1, end, len(reports))))
	}
	return strings.Join(rows, "\n")
}
