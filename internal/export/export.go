package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/eod/internal/store"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var Formats = []Format{FormatCSV, FormatJSON}

func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
}

// FileName returns eod_reports_<YYYY-MM-DD>.<ext>, dated in UTC like an ISO date.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("eod_reports_%s.%s", now.UTC().Format("2006-01-02"), f)
}

// ToFile writes reports into dir using the dated file name and returns the path.
func ToFile(reports []store.DailyReport, f Format, dir string, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName(f, now))
	var err error
	switch f {
	case FormatJSON:
		err = ToJSON(reports, path, now)
	default:
		err = ToCSV(reports, path)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
