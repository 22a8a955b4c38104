// Package reporting owns the session and the report collection. It is the
// single place that mutates state; views and commands go through it.
package reporting

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadopc/eod/internal/dashboard"
	"github.com/sadopc/eod/internal/directory"
	"github.com/sadopc/eod/internal/export"
	"github.com/sadopc/eod/internal/store"
)

// Settings is the subset of the settings store the service reads and edits.
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

type Options struct {
	Backend   store.Backend
	Settings  Settings // optional
	Directory directory.Resolver
	Logger    *zap.Logger
	Clock     func() time.Time
}

// ReportInput is what a telecaller fills in. Identity and date are stamped
// by Submit.
type ReportInput struct {
	PartnerFirm       string
	CallsDialed       int
	CallsConnected    int
	ProjectsExplained int
	ScheduledVisits   []store.SiteVisit
	CompletedVisits   []store.CompletedSiteVisit
	Leads             []store.Lead
}

type Service struct {
	mu       sync.RWMutex
	backend  store.Backend
	settings Settings
	dir      directory.Resolver
	logger   *zap.Logger
	clock    func() time.Time

	reports []store.DailyReport
	user    *store.User
}

// New loads persisted state. Corrupt state is wiped and the service starts
// empty; any other load failure is logged and treated as no saved state.
func New(opts Options) *Service {
	s := &Service{
		backend:  opts.Backend,
		settings: opts.Settings,
		dir:      opts.Directory,
		logger:   opts.Logger,
		clock:    opts.Clock,
	}
	if s.dir == nil {
		s.dir = directory.Default()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	s.load()
	return s
}

func (s *Service) load() {
	if s.backend == nil {
		return
	}
	st, err := s.backend.Load()
	switch {
	case errors.Is(err, store.ErrCorrupt):
		s.logger.Warn("discarding corrupt stored state", zap.Error(err))
		if werr := s.backend.Wipe(); werr != nil {
			s.logger.Error("wipe stored state", zap.Error(werr))
		}
		return
	case err != nil:
		s.logger.Error("load stored state", zap.Error(err))
		return
	}

	s.reports = st.Reports
	if st.SessionEmail == "" {
		return
	}
	if u, ok := s.dir.Resolve(st.SessionEmail); ok {
		s.user = &u
		s.logger.Debug("session restored", zap.String("user", u.ID()))
	} else {
		s.logger.Info("stored session no longer resolves", zap.String("email", st.SessionEmail))
	}
}

// persist is best effort: a failed save is logged and in-memory state stands.
// Callers hold s.mu.
func (s *Service) persist() {
	if s.backend == nil {
		return
	}
	st := store.State{Reports: s.reports}
	if s.user != nil {
		st.SessionEmail = s.user.Email
	}
	if err := s.backend.Save(st); err != nil {
		s.logger.Error("save state", zap.Error(err))
	}
}

func (s *Service) Directory() directory.Resolver { return s.dir }

func (s *Service) Login(email string) (store.User, error) {
	u, ok := s.dir.Resolve(email)
	if !ok {
		s.logger.Info("login rejected", zap.String("email", strings.TrimSpace(email)))
		return store.User{}, ErrAccessDenied
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	s.persist()
	s.logger.Info("login", zap.String("user", u.ID()), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.logger.Info("logout", zap.String("user", s.user.ID()))
	}
	s.user = nil
	s.persist()
}

// CurrentUser returns the signed-in user. ok is false when nobody is.
func (s *Service) CurrentUser() (store.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return store.User{}, false
	}
	return *s.user, true
}

// Submit stamps and appends a report for the signed-in telecaller.
func (s *Service) Submit(in ReportInput) (store.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil || !s.user.IsTelecaller() {
		return store.DailyReport{}, ErrNotTelecaller
	}
	if err := validate(in); err != nil {
		return store.DailyReport{}, err
	}

	r := store.DailyReport{
		Date:              s.clock(),
		TelecallerID:      s.user.ID(),
		TelecallerName:    s.user.Name,
		PartnerFirm:       strings.TrimSpace(in.PartnerFirm),
		CallsDialed:       in.CallsDialed,
		CallsConnected:    in.CallsConnected,
		ProjectsExplained: in.ProjectsExplained,
		ScheduledVisits:   append([]store.SiteVisit{}, in.ScheduledVisits...),
		CompletedVisits:   append([]store.CompletedSiteVisit{}, in.CompletedVisits...),
		Leads:             append([]store.Lead{}, in.Leads...),
	}
	for i := range r.ScheduledVisits {
		if r.ScheduledVisits[i].ID == "" {
			r.ScheduledVisits[i].ID = uuid.NewString()
		}
	}
	for i := range r.CompletedVisits {
		if r.CompletedVisits[i].ID == "" {
			r.CompletedVisits[i].ID = uuid.NewString()
		}
	}
	for i := range r.Leads {
		if r.Leads[i].ID == "" {
			r.Leads[i].ID = uuid.NewString()
		}
	}

	next := make([]store.DailyReport, len(s.reports), len(s.reports)+1)
	copy(next, s.reports)
	s.reports = append(next, r)
	s.persist()

	s.logger.Info("report submitted",
		zap.String("user", r.TelecallerID),
		zap.String("firm", r.PartnerFirm),
		zap.Int("calls_dialed", r.CallsDialed),
	)
	return r, nil
}

func validate(in ReportInput) error {
	if strings.TrimSpace(in.PartnerFirm) == "" {
		return invalid("CP firm is required")
	}
	if in.CallsDialed < 0 || in.CallsConnected < 0 || in.ProjectsExplained < 0 {
		return invalid("counts cannot be negative")
	}
	for _, v := range in.CompletedVisits {
		if v.Status == "" {
			continue
		}
		known := false
		for _, st := range store.VisitStatuses {
			if v.Status == st {
				known = true
				break
			}
		}
		if !known {
			return invalid("unknown visit status %q", v.Status)
		}
	}
	return nil
}

// Reports returns a copy of the whole collection in insertion order.
func (s *Service) Reports() []store.DailyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.DailyReport(nil), s.reports...)
}

// Dashboard builds the signed-in user's view of the given window.
func (s *Service) Dashboard(w dashboard.Window) (dashboard.View, error) {
	u, ok := s.CurrentUser()
	if !ok {
		return dashboard.View{}, ErrNotSignedIn
	}
	return dashboard.Build(s.Reports(), dashboard.Options{
		Viewer:    u,
		Window:    w,
		Now:       s.clock(),
		WeekStart: s.WeekStart(),
	}), nil
}

// Export writes every stored report to dir. Managers only.
func (s *Service) Export(f export.Format, dir string) (string, error) {
	u, ok := s.CurrentUser()
	if !ok || !u.IsManager() {
		return "", ErrNotManager
	}
	path, err := export.ToFile(s.Reports(), f, dir, s.clock())
	if err != nil {
		return "", fmt.Errorf("export %s: %w", f, err)
	}
	s.logger.Info("reports exported", zap.String("path", path), zap.String("format", string(f)))
	return path, nil
}

func (s *Service) setting(key, fallback string) string {
	if s.settings == nil {
		return fallback
	}
	v, err := s.settings.GetSetting(key)
	if err != nil {
		s.logger.Warn("read setting", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return v
}

func (s *Service) WeekStart() time.Weekday {
	return dashboard.ParseWeekStart(s.setting(store.SettingWeekStart, "sunday"))
}

func (s *Service) DefaultWindow() dashboard.Window {
	w, err := dashboard.ParseWindow(s.setting(store.SettingDefaultWindow, "all"))
	if err != nil {
		return dashboard.All
	}
	return w
}

// UpdateSettings validates and stores the dashboard preferences.
func (s *Service) UpdateSettings(weekStart time.Weekday, window dashboard.Window) error {
	if weekStart != time.Sunday && weekStart != time.Monday {
		return fmt.Errorf("week must start on sunday or monday, not %s", weekStart)
	}
	if _, err := dashboard.ParseWindow(string(window)); err != nil {
		return err
	}
	if s.settings == nil {
		return errors.New("settings are not persisted")
	}
	if err := s.settings.SetSetting(store.SettingWeekStart, strings.ToLower(weekStart.String())); err != nil {
		return err
	}
	return s.settings.SetSetting(store.SettingDefaultWindow, string(window))
}
