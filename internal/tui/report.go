package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/eod/internal/reporting"
	"github.com/sadopc/eod/internal/store"
)

type reportSection int

const (
	sectionScheduled reportSection = iota
	sectionCompleted
	sectionLeads
)

var sectionNames = []string{"Site Visits Scheduled", "Site Visits Completed Today", "New Leads / Notes"}

// reportModel edits one EOD report: the daily stats plus three item lists.
type reportModel struct {
	svc    *reporting.Service
	width  int
	height int

	scheduled []store.SiteVisit
	completed []store.CompletedSiteVisit
	leads     []store.Lead
	section   reportSection
	cursor    int

	formActive bool
	form       *huh.Form
	formType   string // "stats", "scheduled", "completed", "lead"

	// Form field pointers (survive value copies)
	firm      *string
	dialed    *string
	connected *string
	explained *string

	itemName    *string
	itemFirm    *string
	itemContact *string
	itemStatus  *string
	itemNotes   *string
}

func newReportModel(svc *reporting.Service) reportModel {
	firm, dialed, connected, explained := "", "0", "0", "0"
	name, itemFirm, contact, status, notes := "", "", "", string(store.StatusFollowUp), ""
	return reportModel{
		svc:         svc,
		firm:        &firm,
		dialed:      &dialed,
		connected:   &connected,
		explained:   &explained,
		itemName:    &name,
		itemFirm:    &itemFirm,
		itemContact: &contact,
		itemStatus:  &status,
		itemNotes:   &notes,
	}
}

func (r *reportModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// start opens the stats form when nothing has been entered yet.
func (r reportModel) start() (reportModel, tea.Cmd) {
	if strings.TrimSpace(*r.firm) == "" && !r.formActive {
		return r.showStatsForm()
	}
	return r, nil
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("enter a whole number")
	}
	if n < 0 {
		return 0, fmt.Errorf("cannot be negative")
	}
	return n, nil
}

func validateCount(s string) error {
	_, err := parseCount(s)
	return err
}

func (r reportModel) input() (reporting.ReportInput, error) {
	var in reporting.ReportInput
	var err error
	in.PartnerFirm = *r.firm
	if in.CallsDialed, err = parseCount(*r.dialed); err != nil {
		return in, fmt.Errorf("clients dialed: %w", err)
	}
	if in.CallsConnected, err = parseCount(*r.connected); err != nil {
		return in, fmt.Errorf("calls connected: %w", err)
	}
	if in.ProjectsExplained, err = parseCount(*r.explained); err != nil {
		return in, fmt.Errorf("projects explained: %w", err)
	}
	in.ScheduledVisits = r.scheduled
	in.CompletedVisits = r.completed
	in.Leads = r.leads
	return in, nil
}

func (r reportModel) submit() tea.Cmd {
	in, err := r.input()
	if err != nil {
		return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
	}
	return func() tea.Msg {
		rep, err := r.svc.Submit(in)
		if err != nil {
			return statusMsg{text: reporting.UserMessage(err), isError: true}
		}
		return reportSubmittedMsg{report: rep}
	}
}

func (r reportModel) sectionLen() int {
	switch r.section {
	case sectionScheduled:
		return len(r.scheduled)
	case sectionCompleted:
		return len(r.completed)
	}
	return len(r.leads)
}

func (r reportModel) update(msg tea.Msg) (reportModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.section = (r.section + 2) % 3
			r.cursor = 0
		case key.Matches(msg, keys.Right):
			r.section = (r.section + 1) % 3
			r.cursor = 0
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < r.sectionLen()-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.Edit):
			return r.showStatsForm()
		case key.Matches(msg, keys.New):
			return r.showItemForm()
		case key.Matches(msg, keys.Delete):
			r.removeSelected()
		case key.Matches(msg, keys.Submit):
			return r, r.submit()
		}
	}
	return r, nil
}

func (r *reportModel) removeSelected() {
	i := r.cursor
	if i >= r.sectionLen() {
		return
	}
	switch r.section {
	case sectionScheduled:
		r.scheduled = append(r.scheduled[:i:i], r.scheduled[i+1:]...)
	case sectionCompleted:
		r.completed = append(r.completed[:i:i], r.completed[i+1:]...)
	case sectionLeads:
		r.leads = append(r.leads[:i:i], r.leads[i+1:]...)
	}
	if r.cursor >= r.sectionLen() {
		r.cursor = max(0, r.sectionLen()-1)
	}
}

func (r reportModel) showStatsForm() (reportModel, tea.Cmd) {
	r.formType = "stats"
	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("CP Firm Name (Dialing For)").Placeholder("Enter CP Firm Name").
				Value(r.firm).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("CP firm is required")
					}
					return nil
				}),
			huh.NewInput().Title("Clients Dialed").Value(r.dialed).Validate(validateCount),
			huh.NewInput().Title("Calls Connected").Value(r.connected).Validate(validateCount),
			huh.NewInput().Title("Projects Explained").Value(r.explained).Validate(validateCount),
		).Title("Daily Stats"),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r reportModel) showItemForm() (reportModel, tea.Cmd) {
	*r.itemName, *r.itemFirm, *r.itemContact, *r.itemNotes = "", "", "", ""
	*r.itemStatus = string(store.StatusFollowUp)

	var fields []huh.Field
	switch r.section {
	case sectionScheduled, sectionCompleted:
		fields = append(fields,
			huh.NewInput().Title("Client Name").Value(r.itemName),
			huh.NewInput().Title("CP Firm").Value(r.itemFirm),
			huh.NewInput().Title("Client Contact").Placeholder("Contact No").Value(r.itemContact),
		)
		r.formType = "scheduled"
		if r.section == sectionCompleted {
			opts := make([]huh.Option[string], len(store.VisitStatuses))
			for i, st := range store.VisitStatuses {
				opts[i] = huh.NewOption(string(st), string(st))
			}
			fields = append(fields, huh.NewSelect[string]().Title("Status").Options(opts...).Value(r.itemStatus))
			r.formType = "completed"
		}
	case sectionLeads:
		fields = append(fields,
			huh.NewInput().Title("Client Name").Value(r.itemName),
			huh.NewInput().Title("Contact Info").Value(r.itemContact),
			huh.NewText().Title("Notes").Value(r.itemNotes),
		)
		r.formType = "lead"
	}

	r.form = huh.NewForm(huh.NewGroup(fields...).Title(sectionNames[r.section])).
		WithShowHelp(true).WithShowErrors(true)
	r.formActive = true
	return r, r.form.Init()
}

func (r reportModel) updateForm(msg tea.Msg) (reportModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		r.form = nil
		visit := store.SiteVisit{
			ClientName:    strings.TrimSpace(*r.itemName),
			PartnerFirm:   strings.TrimSpace(*r.itemFirm),
			ClientContact: strings.TrimSpace(*r.itemContact),
		}
		switch r.formType {
		case "scheduled":
			r.scheduled = append(r.scheduled, visit)
			r.cursor = len(r.scheduled) - 1
		case "completed":
			r.completed = append(r.completed, store.CompletedSiteVisit{SiteVisit: visit, Status: store.VisitStatus(*r.itemStatus)})
			r.cursor = len(r.completed) - 1
		case "lead":
			r.leads = append(r.leads, store.Lead{
				ClientName:  strings.TrimSpace(*r.itemName),
				ContactInfo: strings.TrimSpace(*r.itemContact),
				Notes:       strings.TrimSpace(*r.itemNotes),
			})
			r.cursor = len(r.leads) - 1
		}
		return r, nil
	}

	return r, cmd
}

func (r reportModel) view() string {
	w := r.width - 4

	if r.formActive && r.form != nil {
		title := titleStyle.Render("New EOD Report")
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", r.form.View()))
	}

	var rows []string
	rows = append(rows, titleStyle.Render("New EOD Report"))
	rows = append(rows, "")
	rows = append(rows, sectionStyle.Render("Daily Stats"))
	rows = append(rows, fmt.Sprintf("  CP Firm: %s", highlightStyle.Render(orDash(*r.firm))))
	rows = append(rows, fmt.Sprintf("  Dialed: %s  Connected: %s  Explained: %s",
		highlightStyle.Render(orDash(*r.dialed)),
		highlightStyle.Render(orDash(*r.connected)),
		highlightStyle.Render(orDash(*r.explained))))

	for s := sectionScheduled; s <= sectionLeads; s++ {
		rows = append(rows, "")
		rows = append(rows, r.renderSection(s, w))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  e: edit stats  ←/→: section  n: add  d: remove  ctrl+s: submit EOD report"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (r reportModel) renderSection(s reportSection, w int) string {
	var lines []string
	var items []string
	switch s {
	case sectionScheduled:
		for _, v := range r.scheduled {
			items = append(items, fmt.Sprintf("%s (%s) - %s", orDash(v.ClientName), orDash(v.PartnerFirm), orDash(v.ClientContact)))
		}
	case sectionCompleted:
		for _, v := range r.completed {
			items = append(items, fmt.Sprintf("%s (%s) - %s  [%s]", orDash(v.ClientName), orDash(v.PartnerFirm), orDash(v.ClientContact), v.Status))
		}
	case sectionLeads:
		for _, l := range r.leads {
			items = append(items, fmt.Sprintf("%s - %s: %s", orDash(l.ClientName), orDash(l.ContactInfo), orDash(l.Notes)))
		}
	}

	title := fmt.Sprintf("%s (%d)", sectionNames[s], len(items))
	if s == r.section {
		lines = append(lines, selectedItemStyle.Render("▸ "+title))
	} else {
		lines = append(lines, sectionStyle.Render("  "+title))
	}
	if len(items) == 0 {
		lines = append(lines, mutedStyle.Render("    none"))
	}
	for i, it := range items {
		cursor := "    "
		style := normalItemStyle
		if s == r.section && i == r.cursor {
			cursor = "  > "
			style = selectedItemStyle
		}
		lines = append(lines, style.Render(cursor+truncate(it, max(10, w-12))))
	}
	return strings.Join(lines, "\n")
}
