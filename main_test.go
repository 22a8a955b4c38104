package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sadopc/eod/internal/assistant"
	"github.com/sadopc/eod/internal/config"
	"github.com/sadopc/eod/internal/dashboard"
	"github.com/sadopc/eod/internal/reporting"
	"github.com/sadopc/eod/internal/store"
)

type stubAssistant struct {
	text     string
	err      error
	question string
	reports  int
}

func (s *stubAssistant) Summarize(context.Context, store.DailyReport) (string, error) {
	return s.text, s.err
}

func (s *stubAssistant) Answer(_ context.Context, reports []store.DailyReport, q string) (string, error) {
	s.question = q
	s.reports = len(reports)
	return s.text, s.err
}

// harness reopens the same database file for every command, the way
// separate invocations of the binary do.
type harness struct {
	dbPath string
	ai     *stubAssistant
	cfg    *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		dbPath: filepath.Join(t.TempDir(), "eod.db"),
		ai:     &stubAssistant{text: "Looks good."},
		cfg:    &config.Config{ExportDir: t.TempDir()},
	}
}

func (h *harness) open(context.Context, string) (*env, error) {
	s, err := store.New(h.dbPath)
	if err != nil {
		return nil, err
	}
	svc := reporting.New(reporting.Options{Backend: s, Settings: s})
	return &env{cfg: h.cfg, logger: zap.NewNop(), store: s, svc: svc, ai: h.ai}, nil
}

func (h *harness) run(args ...string) (string, error) {
	c := &cli{open: h.open}
	cmd := newRootCmd(c)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	c.close()
	return out.String(), err
}

func (h *harness) submit(t *testing.T, email, firm string, dialed, connected int) {
	t.Helper()
	e, err := h.open(context.Background(), "")
	require.NoError(t, err)
	defer e.Close()

	_, err = e.svc.Login(email)
	require.NoError(t, err)
	_, err = e.svc.Submit(reporting.ReportInput{
		PartnerFirm:    firm,
		CallsDialed:    dialed,
		CallsConnected: connected,
	})
	require.NoError(t, err)
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)

	out, err = h.run("login", "JOHN.DOE@estoarkis.com")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as John Doe (telecaller)\n", out)

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "John Doe <john.doe@estoarkis.com> (telecaller)\n", out)

	_, err = h.run("logout")
	require.NoError(t, err)
	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", out)
}

func TestLoginUnknownEmail(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "nobody@example.com")
	require.Error(t, err)
	assert.Equal(t, "Access Denied. Please check your email or contact an administrator.", err.Error())
}

func TestLoginRequiresEmail(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login")
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("users")
	require.NoError(t, err)
	assert.Contains(t, out, "manager@estoarkis.com")
	assert.Contains(t, out, "jane.smith@estoarkis.com")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestStats(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("stats")
	assert.EqualError(t, err, "Please log in first.")

	h.submit(t, "john.doe@estoarkis.com", "Acme", 40, 12)
	h.submit(t, "jane.smith@estoarkis.com", "Globex", 25, 5)

	t.Run("telecaller sees own totals", func(t *testing.T) {
		out, err := h.run("stats", "--window", "all")
		require.NoError(t, err)
		assert.Contains(t, out, "All Time: 1 reports")
		assert.Contains(t, out, "Total Dials           25")
		assert.NotContains(t, out, "Leaderboard")
	})

	t.Run("manager sees leaderboard", func(t *testing.T) {
		_, err := h.run("login", "manager@estoarkis.com")
		require.NoError(t, err)
		out, err := h.run("stats")
		require.NoError(t, err)
		assert.Contains(t, out, "Total Dials           65")
		assert.Contains(t, out, "Leaderboard")
		assert.Less(t, strings.Index(out, "John Doe"), strings.Index(out, "Jane Smith"))
	})

	t.Run("bad window", func(t *testing.T) {
		_, err := h.run("stats", "-w", "fortnight")
		assert.ErrorContains(t, err, "unknown window")
	})
}

func TestStatsNoReports(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "manager@estoarkis.com")
	require.NoError(t, err)
	out, err := h.run("stats")
	require.NoError(t, err)
	assert.Equal(t, "No Reports Yet\n", out)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "john.doe@estoarkis.com", "Acme", 40, 12)

	_, err := h.run("export")
	assert.EqualError(t, err, "Only managers can export reports.")

	_, err = h.run("login", "manager@estoarkis.com")
	require.NoError(t, err)

	out, err := h.run("export", "--format", "json")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Exported to "))
	path := strings.TrimSpace(strings.TrimPrefix(out, "Exported to "))
	assert.Equal(t, h.cfg.ExportDir, filepath.Dir(path))
	assert.Equal(t, ".json", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cpFirmDialingFor": "Acme"`)

	dir := t.TempDir()
	out, err = h.run("export", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, dir)
	assert.Contains(t, out, ".csv")

	_, err = h.run("export", "--format", "xml")
	assert.Error(t, err)
}

func TestAsk(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "john.doe@estoarkis.com", "Acme", 40, 12)

	_, err := h.run("ask", "who", "is", "best?")
	assert.ErrorIs(t, err, errManagerOnly)

	_, err = h.run("login", "manager@estoarkis.com")
	require.NoError(t, err)

	out, err := h.run("ask", "who", "is", "best?")
	require.NoError(t, err)
	assert.Equal(t, "Looks good.\n", out)
	assert.Equal(t, "who is best?", h.ai.question)
	assert.Equal(t, 1, h.ai.reports)

	h.ai.err = &assistant.RequestError{Op: assistant.OpAnswer, Err: errors.New("boom")}
	_, err = h.run("ask", "again")
	assert.EqualError(t, err, "Failed to get AI insights. The model may be unavailable or the request may have failed.")
}

func TestSummarize(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "john.doe@estoarkis.com")
	require.NoError(t, err)
	_, err = h.run("summarize")
	assert.ErrorContains(t, err, "no report at index 0")

	h.submit(t, "john.doe@estoarkis.com", "Acme", 40, 12)
	out, err := h.run("summarize")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "John Doe, Acme, "))
	assert.Contains(t, out, "Looks good.")

	_, err = h.run("summarize", "--index", "1")
	assert.Error(t, err)

	h.ai.err = assistant.ErrNotConfigured
	_, err = h.run("summarize")
	assert.EqualError(t, err, "API_KEY environment variable is not set.")
}

func TestOpenFailure(t *testing.T) {
	c := &cli{open: func(context.Context, string) (*env, error) {
		return nil, errors.New("no config")
	}}
	cmd := newRootCmd(c)
	cmd.SetArgs([]string{"whoami"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	assert.EqualError(t, err, "no config")
}

func TestConfigFlagPassedToOpen(t *testing.T) {
	h := newHarness(t)
	var got string
	c := &cli{open: func(ctx context.Context, file string) (*env, error) {
		got = file
		return h.open(ctx, file)
	}}
	cmd := newRootCmd(c)
	cmd.SetArgs([]string{"--config", "/tmp/eod.yaml", "users"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "/tmp/eod.yaml", got)
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("settings")
	require.NoError(t, err)
	assert.Equal(t, "default_window   all\nweek_start       sunday\n", out)

	e, err := h.open(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, e.svc.UpdateSettings(time.Monday, dashboard.Week))
	e.Close()

	out, err = h.run("settings")
	require.NoError(t, err)
	assert.Contains(t, out, "default_window   week")
	assert.Contains(t, out, "week_start       monday")
}
