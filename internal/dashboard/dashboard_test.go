package dashboard

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sadopc/eod/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ist = time.FixedZone("IST", 5*3600+1800)
	// Wednesday afternoon.
	now = time.Date(2026, 10, 14, 15, 0, 0, 0, ist)

	manager = store.User{Email: "manager@estoarkis.com", Name: "Admin Manager", Role: store.RoleManager}
	john    = store.User{Email: "john.doe@estoarkis.com", Name: "John Doe", Role: store.RoleTelecaller}
	jane    = store.User{Email: "jane.smith@estoarkis.com", Name: "Jane Smith", Role: store.RoleTelecaller}
)

func report(u store.User, at time.Time, dialed, connected int) store.DailyReport {
	return store.DailyReport{
		Date:           at,
		TelecallerID:   u.ID(),
		TelecallerName: u.Name,
		PartnerFirm:    "Skyline",
		CallsDialed:    dialed,
		CallsConnected: connected,
	}
}

func withVisits(r store.DailyReport, scheduled, completed, leads int) store.DailyReport {
	for i := 0; i < scheduled; i++ {
		r.ScheduledVisits = append(r.ScheduledVisits, store.SiteVisit{ID: "s"})
	}
	for i := 0; i < completed; i++ {
		r.CompletedVisits = append(r.CompletedVisits, store.CompletedSiteVisit{Status: store.StatusFollowUp})
	}
	for i := 0; i < leads; i++ {
		r.Leads = append(r.Leads, store.Lead{ID: "l"})
	}
	return r
}

func TestParseWindow(t *testing.T) {
	tests := map[string]Window{
		"today": Today, "WEEK": Week, "this-week": Week, "month": Month,
		"this-month": Month, "all": All, "all-time": All, "": All,
	}
	for in, want := range tests {
		got, err := ParseWindow(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseWindow("fortnight")
	assert.Error(t, err)
}

func TestWindowLabels(t *testing.T) {
	for _, w := range Windows {
		assert.NotEqual(t, string(w), w.Label(), "window %q should have a label", w)
	}
}

func TestParseWeekStart(t *testing.T) {
	assert.Equal(t, time.Monday, ParseWeekStart("Monday"))
	assert.Equal(t, time.Sunday, ParseWeekStart("sunday"))
	assert.Equal(t, time.Sunday, ParseWeekStart(""))
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		w         Window
		weekStart time.Weekday
		want      time.Time
	}{
		{Today, time.Sunday, time.Date(2026, 10, 14, 0, 0, 0, 0, ist)},
		{Week, time.Sunday, time.Date(2026, 10, 11, 0, 0, 0, 0, ist)},
		{Week, time.Monday, time.Date(2026, 10, 12, 0, 0, 0, 0, ist)},
		{Month, time.Sunday, time.Date(2026, 10, 1, 0, 0, 0, 0, ist)},
	}
	for _, tt := range tests {
		got, ok := tt.w.Start(now, tt.weekStart)
		require.True(t, ok)
		assert.True(t, tt.want.Equal(got), "%s/%s: got %v want %v", tt.w, tt.weekStart, got, tt.want)
	}

	_, ok := All.Start(now, time.Sunday)
	assert.False(t, ok)
}

func TestWeekStartOnWeekStartDay(t *testing.T) {
	sunday := time.Date(2026, 10, 11, 9, 0, 0, 0, ist)
	got, _ := Week.Start(sunday, time.Sunday)
	assert.True(t, got.Equal(time.Date(2026, 10, 11, 0, 0, 0, 0, ist)))

	got, _ = Week.Start(sunday, time.Monday)
	assert.True(t, got.Equal(time.Date(2026, 10, 5, 0, 0, 0, 0, ist)))
}

func TestFilterWindows(t *testing.T) {
	reports := []store.DailyReport{
		report(john, time.Date(2026, 9, 30, 18, 0, 0, 0, ist), 1, 0),  // last month
		report(john, time.Date(2026, 10, 5, 18, 0, 0, 0, ist), 2, 0),  // this month, last week
		report(john, time.Date(2026, 10, 12, 18, 0, 0, 0, ist), 3, 0), // this week
		report(john, time.Date(2026, 10, 14, 9, 0, 0, 0, ist), 4, 0),  // today
		report(john, time.Date(2026, 10, 13, 23, 59, 0, 0, ist), 5, 0),
	}

	dialed := func(rs []store.DailyReport) []int {
		var out []int
		for _, r := range rs {
			out = append(out, r.CallsDialed)
		}
		return out
	}

	assert.Equal(t, []int{4}, dialed(Filter(reports, Today, now, time.Sunday)))
	assert.Equal(t, []int{4, 5, 3}, dialed(Filter(reports, Week, now, time.Sunday)))
	assert.Equal(t, []int{4, 5, 3, 2}, dialed(Filter(reports, Month, now, time.Sunday)))
	assert.Equal(t, []int{4, 5, 3, 2, 1}, dialed(Filter(reports, All, now, time.Sunday)))
}

func TestFilterIsSubsetSatisfyingWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var reports []store.DailyReport
	for i := 0; i < 200; i++ {
		at := now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour)
		reports = append(reports, report(john, at, rng.Intn(50), rng.Intn(20)))
	}
	inStore := make(map[time.Time]bool)
	for _, r := range reports {
		inStore[r.Date] = true
	}

	for _, w := range Windows {
		for _, ws := range []time.Weekday{time.Sunday, time.Monday} {
			got := Filter(reports, w, now, ws)
			require.LessOrEqual(t, len(got), len(reports))
			start, bounded := w.Start(now, ws)
			for i, r := range got {
				assert.True(t, inStore[r.Date], "filtered report not from store")
				if bounded {
					assert.False(t, r.Date.Before(start), "%s: %v before %v", w, r.Date, start)
				}
				if i > 0 {
					assert.False(t, r.Date.After(got[i-1].Date), "not sorted newest first")
				}
			}
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	reports := []store.DailyReport{
		report(john, now.Add(-2*time.Hour), 1, 0),
		report(john, now.Add(-time.Hour), 2, 0),
	}
	Filter(reports, All, now, time.Sunday)
	assert.Equal(t, 1, reports[0].CallsDialed)
}

func TestVisibility(t *testing.T) {
	reports := []store.DailyReport{
		report(john, now.Add(-3*time.Hour), 1, 0),
		report(jane, now.Add(-2*time.Hour), 2, 0),
		report(john, now.Add(-time.Hour), 3, 0),
	}

	assert.Len(t, Visible(reports, manager), 3)

	mine := Visible(reports, john)
	require.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, "John Doe", r.TelecallerName)
	}
}

func TestVisibilityUsesIdentityNotName(t *testing.T) {
	otherJohn := store.User{Email: "john.d@estoarkis.com", Name: "John Doe", Role: store.RoleTelecaller}
	reports := []store.DailyReport{
		report(john, now, 1, 0),
		report(otherJohn, now, 2, 0),
	}
	mine := Visible(reports, otherJohn)
	require.Len(t, mine, 1)
	assert.Equal(t, 2, mine[0].CallsDialed)
}

func TestLegacyReportsOnlyVisibleToManagers(t *testing.T) {
	legacy := report(john, now, 9, 0)
	legacy.TelecallerID = ""
	reports := []store.DailyReport{legacy}

	assert.Empty(t, Visible(reports, john))
	assert.Len(t, Visible(reports, manager), 1)
}

func TestSummarizeEqualsElementwiseSum(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var reports []store.DailyReport
	var want Totals
	for i := 0; i < 50; i++ {
		r := withVisits(report(jane, now, rng.Intn(40), rng.Intn(15)), rng.Intn(3), rng.Intn(3), rng.Intn(4))
		r.ProjectsExplained = rng.Intn(6)
		reports = append(reports, r)

		want.CallsDialed += r.CallsDialed
		want.CallsConnected += r.CallsConnected
		want.ProjectsExplained += r.ProjectsExplained
		want.ScheduledVisits += len(r.ScheduledVisits)
		want.CompletedVisits += len(r.CompletedVisits)
		want.Leads += len(r.Leads)
	}
	if diff := cmp.Diff(want, Summarize(reports)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Totals{}, Summarize(nil))
}

func TestLeaderboardPartitionsReports(t *testing.T) {
	reports := []store.DailyReport{
		report(jane, now.Add(-3*time.Hour), 10, 4),
		report(john, now.Add(-2*time.Hour), 30, 9),
		report(jane, now.Add(-time.Hour), 5, 1),
	}
	board := Leaderboard(reports)
	require.Len(t, board, 2)

	assert.Equal(t, "John Doe", board[0].Name)
	assert.Equal(t, 30, board[0].CallsDialed)
	assert.Equal(t, 1, board[0].ReportCount)

	assert.Equal(t, "Jane Smith", board[1].Name)
	assert.Equal(t, 15, board[1].CallsDialed)
	assert.Equal(t, 5, board[1].CallsConnected)
	assert.Equal(t, 2, board[1].ReportCount)

	var dialed, count int
	for _, s := range board {
		dialed += s.CallsDialed
		count += s.ReportCount
	}
	assert.Equal(t, Summarize(reports).CallsDialed, dialed)
	assert.Equal(t, len(reports), count)
}

func TestLeaderboardTieBreaksByName(t *testing.T) {
	board := Leaderboard([]store.DailyReport{
		report(john, now, 10, 0),
		report(jane, now, 10, 0),
	})
	require.Len(t, board, 2)
	assert.Equal(t, "Jane Smith", board[0].Name)
}

func TestLeaderboardGroupsLegacyByName(t *testing.T) {
	a := report(john, now, 1, 0)
	a.TelecallerID = ""
	b := report(john, now, 2, 0)
	b.TelecallerID = ""
	board := Leaderboard([]store.DailyReport{a, b})
	require.Len(t, board, 1)
	assert.Equal(t, 2, board[0].ReportCount)
}

func TestSeriesGroupsByLocalDay(t *testing.T) {
	reports := []store.DailyReport{
		withVisits(report(john, time.Date(2026, 10, 14, 9, 0, 0, 0, ist), 10, 3), 2, 0, 0),
		withVisits(report(jane, time.Date(2026, 10, 12, 11, 0, 0, 0, ist), 4, 1), 1, 0, 0),
		withVisits(report(jane, time.Date(2026, 10, 14, 12, 0, 0, 0, ist), 6, 2), 0, 0, 0),
		// 2026-10-11 20:00 UTC is already the 12th in IST.
		report(john, time.Date(2026, 10, 11, 20, 0, 0, 0, time.UTC), 1, 1),
	}
	points := Series(reports, ist)
	require.Len(t, points, 2, "gaps must be omitted, days merged")

	assert.Equal(t, "10/12/2026", points[0].Label)
	assert.Equal(t, 5, points[0].CallsDialed)
	assert.Equal(t, 2, points[0].CallsConnected)
	assert.Equal(t, 1, points[0].ScheduledVisits)

	assert.Equal(t, "10/14/2026", points[1].Label)
	assert.Equal(t, 16, points[1].CallsDialed)
	assert.Equal(t, 5, points[1].CallsConnected)
	assert.Equal(t, 2, points[1].ScheduledVisits)
}

func TestBuildEmptyStore(t *testing.T) {
	v := Build(nil, Options{Viewer: manager, Window: All, Now: now})
	assert.True(t, v.Empty)
	assert.Empty(t, v.Reports)
	assert.Equal(t, Totals{}, v.Summary)
	assert.False(t, v.ShowSeries())
}

func TestBuildSingleReport(t *testing.T) {
	v := Build([]store.DailyReport{report(john, now, 10, 4)}, Options{Viewer: manager, Window: All, Now: now})
	assert.False(t, v.Empty)
	assert.Equal(t, 10, v.Summary.CallsDialed)
	assert.Equal(t, 4, v.Summary.CallsConnected)
	assert.False(t, v.ShowSeries(), "a single point is not charted")
}

func TestBuildManagerLeaderboardScenario(t *testing.T) {
	reports := []store.DailyReport{
		report(jane, now.Add(-48*time.Hour), 10, 2),
		report(john, now.Add(-24*time.Hour), 5, 1),
		report(jane, now, 7, 3),
	}
	v := Build(reports, Options{Viewer: manager, Window: All, Now: now})
	require.Len(t, v.Leaderboard, 2)
	assert.Equal(t, "Jane Smith", v.Leaderboard[0].Name)
	assert.Equal(t, 2, v.Leaderboard[0].ReportCount)
	assert.Len(t, v.Series, 3)
	assert.True(t, v.ShowSeries())
}

func TestBuildTelecallerScenario(t *testing.T) {
	reports := []store.DailyReport{
		report(john, now.Add(-time.Hour), 5, 1),
		report(jane, now, 7, 3),
	}
	v := Build(reports, Options{Viewer: john, Window: All, Now: now})
	require.Len(t, v.Reports, 1)
	assert.Equal(t, "John Doe", v.Reports[0].TelecallerName)
	assert.Nil(t, v.Leaderboard)
	assert.Nil(t, v.Series)
	assert.Equal(t, 5, v.Summary.CallsDialed)
}

func TestBuildWindowWithNoMatchesIsNotEmpty(t *testing.T) {
	reports := []store.DailyReport{report(john, now.AddDate(0, -2, 0), 5, 1)}
	v := Build(reports, Options{Viewer: john, Window: Today, Now: now})
	assert.False(t, v.Empty)
	assert.Empty(t, v.Reports)
}
