package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/eod/internal/store"
)

var csvHeader = []string{
	"Date", "Telecaller Name", "CP Firm", "Calls Dialed", "Calls Connected",
	"Projects Explained", "Scheduled Visits", "Completed Visits", "Leads",
}

// WriteCSV writes one header row and one row per report, in store order.
// Dates are rendered in loc.
func WriteCSV(w io.Writer, reports []store.DailyReport, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range reports {
		row := []string{
			r.Date.In(loc).Format("1/2/2006, 3:04:05 PM"),
			r.TelecallerName,
			r.PartnerFirm,
			strconv.Itoa(r.CallsDialed),
			strconv.Itoa(r.CallsConnected),
			strconv.Itoa(r.ProjectsExplained),
			strconv.Itoa(len(r.ScheduledVisits)),
			strconv.Itoa(len(r.CompletedVisits)),
			strconv.Itoa(len(r.Leads)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ToCSV(reports []store.DailyReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, reports, time.Local); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
