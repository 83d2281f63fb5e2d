package joblog

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/apply-agent/internal/types"
)

const sheetName = "Jobs"

// ExportXLSX writes jobs as a workbook with one header row and one row per posting.
func ExportXLSX(jobs []types.JobPosting, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet rather than leaving an empty one behind.
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := []string{"Title", "Company", "Link", "Salary", "Location"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	for r, job := range jobs {
		for c, v := range job.CSVRecord() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("xlsx row %d: %w", r+2, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 36) // title
	_ = f.SetColWidth(sheetName, "B", "B", 20) // company
	_ = f.SetColWidth(sheetName, "C", "C", 60) // link
	_ = f.SetColWidth(sheetName, "D", "E", 20) // salary, location

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
