// AngelaMos | 2026
// export.go

package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
)

var ExportHeader = []string{
	"PR Number",
	"Description",
	"Location",
	"Shelf",
	"Cabinet",
	"Folder",
	"Status",
	"Date Added",
	"Created At",
}

const (
	exportDateLayout     = "2006-01-02"
	exportDateTimeLayout = "2006-01-02 15:04"
)

// ExportRow renders one record as the export columns. Names come from h;
// a location that no longer resolves is written as "-".
func ExportRow(r *Record, h location.Hierarchy) []string {
	shelf, cabinet, folder := "-", "-", "-"
	if s, ok := h.Shelf(r.ShelfID); ok {
		shelf = s.Name
	}
	if c, ok := h.Cabinet(r.CabinetID); ok {
		cabinet = c.Name
	}
	if f, ok := h.Folder(r.FolderID); ok {
		folder = f.Name
	}

	return []string{
		r.PRNumber,
		r.Description,
		strings.Join([]string{shelf, cabinet, folder}, " / "),
		shelf,
		cabinet,
		folder,
		statusLabel(r.Status),
		r.DateAdded.Format(exportDateLayout),
		r.CreatedAt.Format(exportDateTimeLayout),
	}
}

func WriteCSV(w io.Writer, records []Record, h location.Hierarchy) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range records {
		if err := cw.Write(ExportRow(&records[i], h)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func statusLabel(status string) string {
	switch status {
	case StatusArchived:
		return "Archived"
	case StatusBorrowed:
		return "Borrowed"
	}
	return status
}
