package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/eod/internal/assistant"
	"github.com/sadopc/eod/internal/dashboard"
	"github.com/sadopc/eod/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewSplash viewState = iota
	viewLogin
	viewReport
	viewSummary
	viewDashboard
	viewSettings
)

var viewNames = map[viewState]string{
	viewSplash:    "Welcome",
	viewLogin:     "Login",
	viewReport:    "New Report",
	viewSummary:   "Summary",
	viewDashboard: "Dashboard",
	viewSettings:  "Settings",
}

// tabsFor lists the views reachable from the header for a signed-in user.
func tabsFor(u store.User) []viewState {
	if u.IsTelecaller() {
		return []viewState{viewReport, viewDashboard, viewSettings}
	}
	return []viewState{viewDashboard, viewSettings}
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type splashDoneMsg struct{}

type loginMsg struct {
	user store.User
}

type loginFailedMsg struct {
	err error
}

type reportSubmittedMsg struct {
	report store.DailyReport
}

type summaryMsg struct {
	tok  assistant.Token
	text string
	err  error
}

type insightsMsg struct {
	tok  assistant.Token
	text string
	err  error
}

type dashboardDataMsg struct {
	view dashboard.View
	err  error
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDay(t time.Time) string {
	return t.Local().Format("Monday, January 2, 2006")
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// orDash keeps empty free-text fields visible in lists.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
