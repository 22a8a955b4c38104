// Package dashboard derives the dashboard's figures from the report store:
// role visibility, time-window filtering, summary totals, the per-telecaller
// leaderboard and the day-by-day series. Everything here is read-only.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/eod/internal/store"
)

// Window selects how far back the dashboard looks.
type Window string

const (
	Today Window = "today"
	Week  Window = "week"
	Month Window = "month"
	All   Window = "all"
)

var Windows = []Window{Today, Week, Month, All}

var windowLabels = map[Window]string{
	Today: "Today",
	Week:  "This Week",
	Month: "This Month",
	All:   "All Time",
}

func (w Window) Label() string {
	if l, ok := windowLabels[w]; ok {
		return l
	}
	return string(w)
}

func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case Today, Week, Month, All:
		return w, nil
	case "this-week":
		return Week, nil
	case "this-month":
		return Month, nil
	case "all-time", "":
		return All, nil
	}
	return "", fmt.Errorf("unknown window %q (want today, week, month or all)", s)
}

// ParseWeekStart accepts "sunday" or "monday"; anything else means Sunday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "monday") {
		return time.Monday
	}
	return time.Sunday
}

// Start returns the inclusive lower bound of the window in now's location.
// ok is false for All.
func (w Window) Start(now time.Time, weekStart time.Weekday) (start time.Time, ok bool) {
	y, m, d := now.Date()
	loc := now.Location()
	switch w {
	case Today:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	case Week:
		back := (int(now.Weekday()) - int(weekStart) + 7) % 7
		return time.Date(y, m, d-back, 0, 0, 0, 0, loc), true
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// Visible returns the reports the viewer may see. Managers see everything;
// telecallers see reports attributed to their own ID.
func Visible(reports []store.DailyReport, viewer store.User) []store.DailyReport {
	if viewer.IsManager() {
		out := make([]store.DailyReport, len(reports))
		copy(out, reports)
		return out
	}
	id := viewer.ID()
	var out []store.DailyReport
	for _, r := range reports {
		if id != "" && strings.EqualFold(r.TelecallerID, id) {
			out = append(out, r)
		}
	}
	return out
}

// Filter keeps reports inside the window and sorts them newest first.
func Filter(reports []store.DailyReport, w Window, now time.Time, weekStart time.Weekday) []store.DailyReport {
	start, bounded := w.Start(now, weekStart)
	out := make([]store.DailyReport, 0, len(reports))
	for _, r := range reports {
		if bounded && r.Date.Before(start) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

type Totals struct {
	CallsDialed       int
	CallsConnected    int
	ProjectsExplained int
	ScheduledVisits   int
	CompletedVisits   int
	Leads             int
}

func (t *Totals) add(r store.DailyReport) {
	t.CallsDialed += r.CallsDialed
	t.CallsConnected += r.CallsConnected
	t.ProjectsExplained += r.ProjectsExplained
	t.ScheduledVisits += len(r.ScheduledVisits)
	t.CompletedVisits += len(r.CompletedVisits)
	t.Leads += len(r.Leads)
}

func Summarize(reports []store.DailyReport) Totals {
	var t Totals
	for _, r := range reports {
		t.add(r)
	}
	return t
}

// TelecallerStat is one leaderboard row.
type TelecallerStat struct {
	Key  string
	Name string
	Totals
	ReportCount int
}

// Leaderboard groups reports per telecaller, most calls dialed first.
func Leaderboard(reports []store.DailyReport) []TelecallerStat {
	idx := make(map[string]int)
	var stats []TelecallerStat
	for _, r := range reports {
		key := telecallerKey(r)
		i, ok := idx[key]
		if !ok {
			i = len(stats)
			idx[key] = i
			stats = append(stats, TelecallerStat{Key: key, Name: r.TelecallerName})
		}
		stats[i].add(r)
		stats[i].ReportCount++
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].CallsDialed != stats[j].CallsDialed {
			return stats[i].CallsDialed > stats[j].CallsDialed
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// Reports saved before telecaller IDs existed are grouped by name.
func telecallerKey(r store.DailyReport) string {
	if r.TelecallerID != "" {
		return strings.ToLower(r.TelecallerID)
	}
	return "name:" + r.TelecallerName
}

// Point is one day of the activity series.
type Point struct {
	Day             time.Time
	Label           string
	CallsDialed     int
	CallsConnected  int
	ScheduledVisits int
}

// Series buckets reports by calendar day in loc. Days without reports are
// omitted rather than zero-filled.
func Series(reports []store.DailyReport, loc *time.Location) []Point {
	if loc == nil {
		loc = time.Local
	}
	idx := make(map[string]int)
	var points []Point
	for _, r := range reports {
		local := r.Date.In(loc)
		key := local.Format("2006-01-02")
		i, ok := idx[key]
		if !ok {
			y, m, d := local.Date()
			i = len(points)
			idx[key] = i
			points = append(points, Point{
				Day:   time.Date(y, m, d, 0, 0, 0, 0, loc),
				Label: local.Format("1/2/2006"),
			})
		}
		points[i].CallsDialed += r.CallsDialed
		points[i].CallsConnected += r.CallsConnected
		points[i].ScheduledVisits += len(r.ScheduledVisits)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Day.Before(points[j].Day)
	})
	return points
}

type Options struct {
	Viewer    store.User
	Window    Window
	Now       time.Time
	WeekStart time.Weekday
}

// View is everything one dashboard render needs.
type View struct {
	Viewer      store.User
	Window      Window
	Empty       bool // nothing visible at all, regardless of window
	Reports     []store.DailyReport
	Summary     Totals
	Leaderboard []TelecallerStat
	Series      []Point
}

// ShowSeries reports whether the series is worth charting.
func (v View) ShowSeries() bool {
	return v.Viewer.IsManager() && len(v.Series) > 1
}

func Build(all []store.DailyReport, opts Options) View {
	if opts.Window == "" {
		opts.Window = All
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	visible := Visible(all, opts.Viewer)
	filtered := Filter(visible, opts.Window, opts.Now, opts.WeekStart)

	v := View{
		Viewer:  opts.Viewer,
		Window:  opts.Window,
		Empty:   len(visible) == 0,
		Reports: filtered,
		Summary: Summarize(filtered),
	}
	if opts.Viewer.IsManager() {
		v.Leaderboard = Leaderboard(filtered)
		v.Series = Series(filtered, opts.Now.Location())
	}
	return v
}
