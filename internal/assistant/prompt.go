package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/sadopc/eod/internal/store"
)

var funcs = template.FuncMap{
	"day": func(r store.DailyReport) string { return r.Date.Local().Format("1/2/2006") },
}

var summaryTmpl = template.Must(template.New("summary").Funcs(funcs).Parse(`
Generate a concise and professional end-of-day (EOD) summary for a telecaller based on the following data.
The summary should highlight key metrics and outcomes.

**Daily Report Data for {{day .}}:**
- Telecaller Name: {{.TelecallerName}}
- CP Firm (Dialing For): {{.PartnerFirm}}
- Total Calls Dialed: {{.CallsDialed}}
- Calls Connected: {{.CallsConnected}}
- Projects Explained: {{.ProjectsExplained}}

**Site Visits Scheduled ({{len .ScheduledVisits}}):**
{{range .ScheduledVisits}}- {{.ClientName}} ({{.PartnerFirm}}) - Contact: {{.ClientContact}}
{{else}}None
{{end}}
**Site Visits Completed Today ({{len .CompletedVisits}}):**
{{range .CompletedVisits}}- {{.ClientName}} ({{.PartnerFirm}}) - Status: {{.Status}}
{{else}}None
{{end}}
**New Leads / Notes ({{len .Leads}}):**
{{range .Leads}}- {{.ClientName}} ({{.ContactInfo}}): {{.Notes}}
{{else}}No new leads.
{{end}}
**Instructions:**
- Start with a brief opening statement mentioning the telecaller's name and the date.
- Summarize the key statistics (dials, connections, explanations).
- List the scheduled and completed site visits clearly.
- Include the leads/notes section.
- Maintain a professional and data-driven tone.
- Do not add any preamble like "Here is the summary...". Just start the summary.
`))

var insightsTmpl = template.Must(template.New("insights").Parse(`
You are an expert data analyst for a sales team. Your task is to answer questions based on the provided End-of-Day (EOD) report data.
The data is provided as a JSON array. Each object in the array represents one daily report from a telecaller.

**EOD Report Data:**
` + "```json" + `
{{.Data}}
` + "```" + `

**User's Question:**
"{{.Question}}"

**Instructions:**
- Analyze the provided JSON data to answer the user's question.
- Provide a clear, concise, and data-driven answer.
- If the data is insufficient to answer the question accurately, state that clearly.
- Base your answer *only* on the information present in the JSON data. Do not invent information.
- Present the answer in a professional and easy-to-understand format.
`))

func summaryPrompt(r store.DailyReport) (string, error) {
	var b strings.Builder
	if err := summaryTmpl.Execute(&b, r); err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}
	return b.String(), nil
}

func insightsPrompt(reports []store.DailyReport, question string) (string, error) {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal reports: %w", err)
	}
	var b strings.Builder
	err = insightsTmpl.Execute(&b, struct {
		Data     string
		Question string
	}{string(data), question})
	if err != nil {
		return "", fmt.Errorf("render insights prompt: %w", err)
	}
	return b.String(), nil
}
