// Package export writes normalized records to spreadsheet workbooks.
package export

import (
	"cmp"
	"io"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/geo-dashboard/internal/model"
)

// Sheet names in the exported workbook.
const (
	RecordsSheet = "Records"
	StatusSheet  = "Status"
)

// Header is the first row of the records sheet.
var Header = []string{"ID", "Project Name", "Latitude", "Longitude", "Status", "Last Updated"}

// StatusCount is the number of records sharing one status.
type StatusCount struct {
	Status string
	Tone   model.StatusTone
	Count  int
}

// CountByStatus tallies records per status, most frequent first and then
// by name.
func CountByStatus(records []model.Record) []StatusCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Status]++
	}

	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{
			Status: status,
			Tone:   model.Record{Status: status}.Tone(),
			Count:  n,
		})
	}
	slices.SortFunc(out, func(a, b StatusCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Status, b.Status)
	})
	return out
}

// Workbook builds an in-memory workbook with a records sheet and a status
// summary sheet.
func Workbook(records []model.Record) (*xlsx.File, error) {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(RecordsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "export: add records sheet")
	}
	addStrings(sheet.AddRow(), Header...)
	for _, r := range records {
		row := sheet.AddRow()
		addStrings(row, r.ID, r.ProjectName)
		row.AddCell().SetFloat(r.Latitude)
		row.AddCell().SetFloat(r.Longitude)
		addStrings(row, r.Status, r.LastUpdated)
	}

	summary, err := f.AddSheet(StatusSheet)
	if err != nil {
		return nil, eris.Wrap(err, "export: add status sheet")
	}
	addStrings(summary.AddRow(), "Status", "Tone", "Count")
	for _, sc := range CountByStatus(records) {
		row := summary.AddRow()
		addStrings(row, sc.Status, string(sc.Tone))
		row.AddCell().SetInt(sc.Count)
	}
	return f, nil
}

// WriteXLSX writes records as an XLSX workbook to w.
func WriteXLSX(w io.Writer, records []model.Record) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// SaveXLSX writes records as an XLSX workbook at path.
func SaveXLSX(path string, records []model.Record) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
