package store

import (
	"strings"
	"time"
)

type Role string

const (
	RoleTelecaller Role = "telecaller"
	RoleManager    Role = "manager"
)

type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// ID is the stable identity key reports are attributed to.
func (u User) ID() string {
	return strings.ToLower(strings.TrimSpace(u.Email))
}

func (u User) IsManager() bool    { return u.Role == RoleManager }
func (u User) IsTelecaller() bool { return u.Role == RoleTelecaller }

type VisitStatus string

const (
	StatusSelected      VisitStatus = "Selected"
	StatusNotInterested VisitStatus = "Not Interested"
	StatusFollowUp      VisitStatus = "Follow-up"
)

var VisitStatuses = []VisitStatus{StatusSelected, StatusNotInterested, StatusFollowUp}

type SiteVisit struct {
	ID            string `json:"id"`
	ClientName    string `json:"clientName"`
	PartnerFirm   string `json:"cpFirm"`
	ClientContact string `json:"clientContact"`
}

type CompletedSiteVisit struct {
	SiteVisit
	Status VisitStatus `json:"status"`
}

type Lead struct {
	ID          string `json:"id"`
	ClientName  string `json:"clientName"`
	ContactInfo string `json:"contactInfo"`
	Notes       string `json:"notes"`
}

// DailyReport is one submitted end-of-day report. Date doubles as its key.
type DailyReport struct {
	Date              time.Time            `json:"date"`
	TelecallerID      string               `json:"telecallerId,omitempty"`
	TelecallerName    string               `json:"telecallerName"`
	PartnerFirm       string               `json:"cpFirmDialingFor"`
	CallsDialed       int                  `json:"callsDialed"`
	CallsConnected    int                  `json:"callsConnected"`
	ProjectsExplained int                  `json:"projectsExplained"`
	ScheduledVisits   []SiteVisit          `json:"scheduledVisits"`
	CompletedVisits   []CompletedSiteVisit `json:"completedVisits"`
	Leads             []Lead               `json:"leads"`
}

// State is everything persisted between runs.
type State struct {
	Reports      []DailyReport
	SessionEmail string
}

type Setting struct {
	Key   string
	Value string
}
