package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/eod/internal/store"
)

type jsonExport struct {
	ExportedAt string              `json:"exported_at"`
	Count      int                 `json:"count"`
	Reports    []store.DailyReport `json:"reports"`
}

func WriteJSON(w io.Writer, reports []store.DailyReport, now time.Time) error {
	if reports == nil {
		reports = []store.DailyReport{}
	}
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(reports),
		Reports:    reports,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

func ToJSON(reports []store.DailyReport, path string, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, reports, now); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return f.Close()
}
