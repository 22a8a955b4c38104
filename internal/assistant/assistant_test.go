package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/eod/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	block   bool
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func sampleReport() store.DailyReport {
	return store.DailyReport{
		Date:              time.Date(2026, 10, 14, 18, 0, 0, 0, time.Local),
		TelecallerID:      "john.doe@estoarkis.com",
		TelecallerName:    "John Doe",
		PartnerFirm:       "Skyline Realty",
		CallsDialed:       42,
		CallsConnected:    17,
		ProjectsExplained: 6,
		ScheduledVisits: []store.SiteVisit{
			{ID: "1", ClientName: "Asha Rao", PartnerFirm: "Skyline", ClientContact: "98200 11111"},
		},
		CompletedVisits: []store.CompletedSiteVisit{
			{SiteVisit: store.SiteVisit{ID: "2", ClientName: "Ravi", PartnerFirm: "Urban"}, Status: store.StatusSelected},
		},
	}
}

func TestAnswerEmptySetShortCircuits(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	a := NewWithGenerator(gen, 0, nil)

	got, err := a.Answer(context.Background(), nil, "any question")
	require.NoError(t, err)
	assert.Equal(t, NoDataAnswer, got)
	assert.Zero(t, gen.calls())
}

func TestAnswerEmptySetWithoutCredentials(t *testing.T) {
	a := NewGemini(context.Background(), Config{}, nil)
	got, err := a.Answer(context.Background(), []store.DailyReport{}, "who made the most calls?")
	require.NoError(t, err)
	assert.Equal(t, NoDataAnswer, got)
}

func TestMissingCredentialSurfacesOnCall(t *testing.T) {
	a := NewGemini(context.Background(), Config{Model: DefaultModel}, nil)
	_, err := a.Summarize(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "API_KEY environment variable is not set.", UserMessage(err))
}

func TestAnswerRejectsBlankQuestion(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	a := NewWithGenerator(gen, 0, nil)
	_, err := a.Answer(context.Background(), []store.DailyReport{sampleReport()}, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Zero(t, gen.calls())
}

func TestSummarizePrompt(t *testing.T) {
	gen := &fakeGenerator{reply: "John had a strong day."}
	a := NewWithGenerator(gen, time.Second, nil)

	got, err := a.Summarize(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "John had a strong day.", got)

	require.Equal(t, 1, gen.calls())
	p := gen.prompts[0]
	assert.Contains(t, p, "Daily Report Data for 10/14/2026")
	assert.Contains(t, p, "- Telecaller Name: John Doe")
	assert.Contains(t, p, "- Total Calls Dialed: 42")
	assert.Contains(t, p, "Site Visits Scheduled (1)")
	assert.Contains(t, p, "- Asha Rao (Skyline) - Contact: 98200 11111")
	assert.Contains(t, p, "- Ravi (Urban) - Status: Selected")
	assert.Contains(t, p, "New Leads / Notes (0)")
	assert.Contains(t, p, "No new leads.")
}

func TestAnswerPromptEmbedsJSON(t *testing.T) {
	gen := &fakeGenerator{reply: "John Doe made the most calls."}
	a := NewWithGenerator(gen, 0, nil)

	got, err := a.Answer(context.Background(), []store.DailyReport{sampleReport()}, "Who made the most calls?")
	require.NoError(t, err)
	assert.Equal(t, "John Doe made the most calls.", got)

	p := gen.prompts[0]
	assert.Contains(t, p, `"Who made the most calls?"`)
	assert.Contains(t, p, `"telecallerName": "John Doe"`)
	assert.Contains(t, p, `"callsDialed": 42`)
	assert.True(t, strings.Contains(p, "```json"))
}

func TestRemoteFailureIsUnavailable(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503 overloaded")}
	a := NewWithGenerator(gen, 0, nil)

	_, err := a.Answer(context.Background(), []store.DailyReport{sampleReport()}, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Failed to get AI insights. The model may be unavailable or the request may have failed.", UserMessage(err))

	_, err = a.Summarize(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Failed to generate report summary. Please try again.", UserMessage(err))

	assert.Equal(t, 2, gen.calls(), "failures must not be retried")
}

func TestTimeoutIsUnavailable(t *testing.T) {
	gen := &fakeGenerator{block: true}
	a := NewWithGenerator(gen, 10*time.Millisecond, nil)

	_, err := a.Summarize(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallerCancellationIsNotUnavailable(t *testing.T) {
	gen := &fakeGenerator{block: true}
	a := NewWithGenerator(gen, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Summarize(ctx, sampleReport())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Request cancelled.", UserMessage(err))
}

func TestUserMessagePassthrough(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}

// ============================================================
// Tracker
// ============================================================

func TestTrackerSupersedesPreviousRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := NewTracker()
	ctx1, tok1 := tr.Begin(context.Background())
	ctx2, tok2 := tr.Begin(context.Background())

	assert.ErrorIs(t, ctx1.Err(), context.Canceled, "first request should be cancelled")
	assert.NoError(t, ctx2.Err())
	assert.False(t, tr.Current(tok1))
	assert.True(t, tr.Current(tok2))
	assert.True(t, tr.Pending())

	assert.False(t, tr.Finish(tok1), "stale result must be discarded")
	assert.True(t, tr.Pending())
	assert.True(t, tr.Finish(tok2))
	assert.False(t, tr.Pending())
}

func TestTrackerCancel(t *testing.T) {
	tr := NewTracker()
	ctx, tok := tr.Begin(context.Background())
	tr.Cancel()
	assert.Error(t, ctx.Err())
	assert.False(t, tr.Current(tok))
	assert.False(t, tr.Finish(tok))
	assert.False(t, tr.Pending())
}

func TestTrackerLateResultDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &fakeGenerator{block: true}
	a := NewWithGenerator(gen, 0, nil)
	tr := NewTracker()

	type result struct {
		tok Token
		err error
	}
	results := make(chan result, 1)

	ctx, first := tr.Begin(context.Background())
	go func() {
		_, err := a.Summarize(ctx, sampleReport())
		results <- result{first, err}
	}()

	_, second := tr.Begin(context.Background())
	r := <-results
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.False(t, tr.Finish(r.tok))
	assert.True(t, tr.Current(second))
	tr.Cancel()
}
