package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Keys holding the persisted application state.
const (
	KeyReports      = "eodReports"
	KeySessionEmail = "loggedInUserEmail"
)

// Setting keys and their defaults.
const (
	SettingWeekStart     = "week_start"
	SettingDefaultWindow = "default_window"
)

var settingDefaults = map[string]string{
	SettingWeekStart:     "sunday",
	SettingDefaultWindow: "all",
}

// Get returns the raw value stored under key. ok is false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	return setKV(s.db, key, value)
}

func (s *Store) Delete(key string) error {
	return deleteKV(s.db, key)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func deleteKV(db execer, key string) error {
	if _, err := db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func setKV(db execer, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// GetSetting returns the setting value, falling back to its default.
func (s *Store) GetSetting(key string) (string, error) {
	v, ok, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		if def, known := settingDefaults[key]; known {
			return def, nil
		}
		return "", fmt.Errorf("get setting %q: %w", key, sql.ErrNoRows)
	}
	return v, nil
}

func (s *Store) SetSetting(key, value string) error {
	return s.Set(key, value)
}

// GetAllSettings lists every known setting, defaults included, ordered by key.
func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM kv WHERE key NOT IN (?, ?) ORDER BY key`,
		KeyReports, KeySessionEmail)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var settings []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, err
		}
		seen[st.Key] = true
		settings = append(settings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, k := range []string{SettingDefaultWindow, SettingWeekStart} {
		if !seen[k] {
			settings = append(settings, Setting{Key: k, Value: settingDefaults[k]})
		}
	}
	return settings, nil
}
