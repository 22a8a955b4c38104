package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/eod/internal/assistant"
	"github.com/sadopc/eod/internal/store"
)

// summaryModel shows a just-submitted report while the assistant writes
// its summary.
type summaryModel struct {
	ai      assistant.Assistant
	tracker *assistant.Tracker
	width   int
	height  int

	report  store.DailyReport
	md      *markdown
	spinner spinner.Model
	loading bool
	text    string
	err     string
}

func newSummaryModel(ai assistant.Assistant) summaryModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = highlightStyle
	return summaryModel{ai: ai, tracker: assistant.NewTracker(), md: newMarkdown(), spinner: sp}
}

func (s *summaryModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

// begin shows r and requests its summary, superseding any earlier request.
func (s summaryModel) begin(r store.DailyReport) (summaryModel, tea.Cmd) {
	s.report = r
	s.text, s.err = "", ""
	if s.ai == nil {
		s.loading = false
		s.err = assistant.UserMessage(assistant.ErrNotConfigured)
		return s, nil
	}
	s.loading = true

	ctx, tok := s.tracker.Begin(context.Background())
	ai := s.ai
	call := func() tea.Msg {
		text, err := ai.Summarize(ctx, r)
		return summaryMsg{tok: tok, text: text, err: err}
	}
	return s, tea.Batch(s.spinner.Tick, call)
}

// cancel abandons a pending summary; its late result will be ignored.
func (s summaryModel) cancel() summaryModel {
	s.tracker.Cancel()
	s.loading = false
	return s
}

func (s summaryModel) update(msg tea.Msg) (summaryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryMsg:
		if !s.tracker.Finish(msg.tok) {
			return s, nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = assistant.UserMessage(msg.err)
		} else {
			s.text = msg.text
		}
		return s, nil

	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s summaryModel) view() string {
	w := s.width - 4
	r := s.report

	var rows []string
	rows = append(rows, titleStyle.Render("EOD Report Summary"))
	rows = append(rows, subtitleStyle.Render(fmt.Sprintf("For CP Firm: %s on %s",
		highlightStyle.Render(r.PartnerFirm), r.Date.Local().Format("1/2/2006"))))
	rows = append(rows, "")

	rows = append(rows, sectionStyle.Render("AI-Generated Summary"))
	switch {
	case s.loading:
		rows = append(rows, s.spinner.View()+mutedStyle.Render(" Generating summary..."))
	case s.err != "":
		rows = append(rows, errorStyle.Render(s.err))
	default:
		rows = append(rows, s.md.render(s.text, w-6))
	}
	rows = append(rows, "")

	rows = append(rows, renderCards([]card{
		{"Calls Dialed", r.CallsDialed},
		{"Calls Connected", r.CallsConnected},
		{"Projects Explained", r.ProjectsExplained},
	}, w-6))

	rows = append(rows, "")
	rows = append(rows, sectionStyle.Render(fmt.Sprintf("Site Visits Scheduled (%d)", len(r.ScheduledVisits))))
	for _, v := range r.ScheduledVisits {
		rows = append(rows, fmt.Sprintf("  %s  CP Firm: %s  Contact: %s", orDash(v.ClientName), orDash(v.PartnerFirm), orDash(v.ClientContact)))
	}
	rows = append(rows, sectionStyle.Render(fmt.Sprintf("Site Visits Completed (%d)", len(r.CompletedVisits))))
	for _, v := range r.CompletedVisits {
		rows = append(rows, fmt.Sprintf("  %s  CP Firm: %s  %s", orDash(v.ClientName), orDash(v.PartnerFirm),
			accentStyle.Render("Status: "+string(v.Status))))
	}
	rows = append(rows, sectionStyle.Render(fmt.Sprintf("New Leads (%d)", len(r.Leads))))
	for _, l := range r.Leads {
		rows = append(rows, fmt.Sprintf("  %s  Contact: %s  Notes: %s", orDash(l.ClientName), orDash(l.ContactInfo), orDash(l.Notes)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: submit another report  enter: view dashboard"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

type card struct {
	label string
	value int
}

// renderCards lays stat cards out in rows that fit width.
func renderCards(cards []card, width int) string {
	const cardWidth = 20
	perRow := max(1, width/(cardWidth+2))

	var lines []string
	for i := 0; i < len(cards); i += perRow {
		var row []string
		for _, c := range cards[i:min(i+perRow, len(cards))] {
			row = append(row, cardStyle.Width(cardWidth).Render(
				lipgloss.JoinVertical(lipgloss.Center,
					mutedStyle.Render(c.label),
					cardValueStyle.Render(fmt.Sprint(c.value)),
				)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
