package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorrupt reports persisted state that cannot be trusted.
var ErrCorrupt = errors.New("stored state is corrupt")

// Load reads the persisted reports and session email.
func (s *Store) Load() (State, error) {
	var st State

	email, _, err := s.Get(KeySessionEmail)
	if err != nil {
		return State{}, err
	}
	st.SessionEmail = email

	raw, ok, err := s.Get(KeyReports)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return st, nil
	}
	reports, err := decodeReports(raw)
	if err != nil {
		return State{}, err
	}
	st.Reports = reports
	return st, nil
}

// Save replaces both persisted keys in one transaction.
func (s *Store) Save(st State) error {
	data, err := json.Marshal(nonNil(st.Reports))
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := setKV(tx, KeyReports, string(data)); err != nil {
		return err
	}
	if st.SessionEmail == "" {
		if err := deleteKV(tx, KeySessionEmail); err != nil {
			return err
		}
	} else if err := setKV(tx, KeySessionEmail, st.SessionEmail); err != nil {
		return err
	}
	return tx.Commit()
}

// Wipe clears the whole durable store, settings included.
func (s *Store) Wipe() error {
	if _, err := s.db.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("wipe store: %w", err)
	}
	return nil
}

func decodeReports(raw string) ([]DailyReport, error) {
	var reports []DailyReport
	if err := json.Unmarshal([]byte(raw), &reports); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i, r := range reports {
		if r.Date.IsZero() {
			return nil, fmt.Errorf("%w: report %d has no date", ErrCorrupt, i)
		}
		if r.CallsDialed < 0 || r.CallsConnected < 0 || r.ProjectsExplained < 0 {
			return nil, fmt.Errorf("%w: report %d has negative counters", ErrCorrupt, i)
		}
	}
	return reports, nil
}

func nonNil(reports []DailyReport) []DailyReport {
	if reports == nil {
		return []DailyReport{}
	}
	return reports
}
