package reminder

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/jwalitptl/lawdesk/internal/model"
)

const genericSubject = "Upcoming hearing reminders"

// FormatDate renders the long form used in every message, e.g. "5 March 2025".
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return "upcoming date"
	}
	return fmt.Sprintf("%d %s %d", d.Day, d.Month, d.Year)
}

// CaseLabel falls back from case number to client name to the tail of the id.
func CaseLabel(caseNumber, clientName, caseID string) string {
	if caseNumber != "" {
		return caseNumber
	}
	if clientName != "" {
		return clientName
	}
	if len(caseID) > 6 {
		return "Case " + caseID[len(caseID)-6:]
	}
	return "Case " + caseID
}

// Item is one due hearing joined with its case.
type Item struct {
	Hearing *model.Hearing
	Case    *model.Case
}

func (i Item) label() string {
	return CaseLabel(i.Case.CaseNumber, i.Case.ClientName, i.Case.ID.String())
}

// Stage prefers the hearing's next stage over the case's.
func (i Item) Stage() string {
	if i.Hearing.NextStage != "" {
		return i.Hearing.NextStage
	}
	return i.Case.NextStage
}

func (i Item) parties() string {
	switch {
	case i.Case.FirstParty != "" && i.Case.SecondParty != "":
		return i.Case.FirstParty + " vs " + i.Case.SecondParty
	case i.Case.ClientName != "":
		return i.Case.ClientName
	default:
		return "Case"
	}
}

// Composer renders reminder content. It holds no provider state.
type Composer struct {
	BrandName  string
	AppBaseURL string
}

// SMSBody renders the single-line text for one hearing.
func (c Composer) SMSBody(item Item) string {
	parts := []string{
		"Reminder: Hearing on " + FormatDate(item.Hearing.HearingDate),
		"Case: " + item.label(),
	}
	if stage := item.Stage(); stage != "" {
		parts = append(parts, "Stage: "+stage)
	}
	return strings.Join(parts, " | ")
}

// HearingView is the per-hearing block of an email. Its JSON form is the
// dynamic template payload.
type HearingView struct {
	Date       string `json:"date"`
	ISODate    string `json:"iso_date"`
	CaseLabel  string `json:"case_label"`
	CaseNumber string `json:"case_number,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	Parties    string `json:"parties"`
	Court      string `json:"court"`
	Stage      string `json:"stage,omitempty"`
	Notes      string `json:"notes,omitempty"`
	URL        string `json:"url,omitempty"`
}

type emailView struct {
	Name     string
	Brand    string
	Hearings []HearingView
}

// EmailContent is a rendered email for one recipient.
type EmailContent struct {
	Subject      string
	HTML         string
	Text         string
	TemplateData map[string]interface{}
}

var emailTemplate = template.Must(template.New("reminder").Parse(`<div style="font-family:Arial,Helvetica,sans-serif;color:#1f2933;line-height:1.5">
  <p>Hello{{if .Name}} {{.Name}}{{end}},</p>
  <p>You have the following upcoming hearing(s):</p>
  <ul>
  {{- range .Hearings}}
    <li style="margin-bottom:12px">
      <strong>{{.Date}}</strong> &middot; {{.Parties}} ({{.CaseLabel}}) at {{.Court}}
      {{- if .Stage}}<br>Next stage: {{.Stage}}{{end}}
      {{- if .Notes}}<br>Notes: {{.Notes}}{{end}}
      {{- if .URL}}<br><a href="{{.URL}}">View case</a>{{end}}
    </li>
  {{- end}}
  </ul>
  <p style="color:#7b8794;font-size:12px">{{.Brand}}</p>
</div>`))

// Email renders one consolidated message for all items of a recipient.
func (c Composer) Email(name string, items []Item) (*EmailContent, error) {
	view := emailView{Name: name, Brand: c.BrandName}
	for _, it := range items {
		view.Hearings = append(view.Hearings, c.hearingView(it))
	}

	var html bytes.Buffer
	if err := emailTemplate.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}

	subject := c.subject(items)
	return &EmailContent{
		Subject: subject,
		HTML:    html.String(),
		Text:    c.plainText(view),
		TemplateData: map[string]interface{}{
			"subject":  subject,
			"name":     name,
			"brand":    c.BrandName,
			"count":    len(view.Hearings),
			"hearings": view.Hearings,
		},
	}, nil
}

func (c Composer) subject(items []Item) string {
	if len(items) == 0 {
		return genericSubject
	}
	first := items[0].Hearing.HearingDate
	for _, it := range items[1:] {
		if it.Hearing.HearingDate != first {
			return genericSubject
		}
	}
	return "Hearing reminder: " + FormatDate(first)
}

func (c Composer) hearingView(it Item) HearingView {
	court := it.Case.CourtName
	if court == "" {
		court = "court"
	}
	v := HearingView{
		Date:       FormatDate(it.Hearing.HearingDate),
		ISODate:    it.Hearing.HearingDate.String(),
		CaseLabel:  it.label(),
		CaseNumber: it.Case.CaseNumber,
		ClientName: it.Case.ClientName,
		Parties:    it.parties(),
		Court:      court,
		Stage:      it.Stage(),
		Notes:      it.Hearing.Notes,
	}
	if c.AppBaseURL != "" {
		v.URL = strings.TrimRight(c.AppBaseURL, "/") + "/case/" + it.Case.ID.String()
	}
	return v
}

func (c Composer) plainText(view emailView) string {
	var b strings.Builder
	if view.Name != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", view.Name)
	} else {
		b.WriteString("Hello,\n\n")
	}
	b.WriteString("You have the following upcoming hearing(s):\n")
	for _, h := range view.Hearings {
		fmt.Fprintf(&b, "\n- %s: %s (%s) at %s", h.Date, h.Parties, h.CaseLabel, h.Court)
		if h.Stage != "" {
			fmt.Fprintf(&b, "\n  Next stage: %s", h.Stage)
		}
		if h.Notes != "" {
			fmt.Fprintf(&b, "\n  Notes: %s", h.Notes)
		}
		if h.URL != "" {
			fmt.Fprintf(&b, "\n  View case: %s", h.URL)
		}
	}
	if view.Brand != "" {
		fmt.Fprintf(&b, "\n\n%s\n", view.Brand)
	}
	return b.String()
}
