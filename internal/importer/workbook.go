package importer

import (
	"fmt"
	"io"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetRoadmap   = "Roadmap"
	SheetPersonnel = "Personnel"
	SheetHardware  = "Hardware"
)

// Workbook is everything the tool exports to a spreadsheet file.
type Workbook struct {
	Items     []domain.WorkItem
	Personnel domain.PersonnelPlan
	Hardware  domain.HardwarePlan
}

// WriteWorkbook writes the roadmap table and both resourcing tables as three
// sheets of an xlsx file.
func WriteWorkbook(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRoadmap); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheets := []struct {
		name string
		rows [][]string
	}{
		{SheetRoadmap, ExportTable(wb.Items)},
		{SheetPersonnel, PersonnelTable(wb.Personnel)},
		{SheetHardware, HardwareTable(wb.Hardware)},
	}
	for i, s := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(s.name); err != nil {
				return fmt.Errorf("create sheet %s: %w", s.name, err)
			}
		}
		if err := writeSheet(f, s.name, s.rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

// WorkbookReport aggregates the per-sheet import reports.
type WorkbookReport struct {
	Roadmap   Report
	Personnel Report
	Hardware  Report
}

// ReadWorkbook reads a workbook written by WriteWorkbook. The Roadmap sheet is
// required; missing resourcing sheets yield nil plans.
func ReadWorkbook(r io.Reader, opts Options) (Workbook, WorkbookReport, error) {
	var (
		wb     Workbook
		report WorkbookReport
	)
	f, err := excelize.OpenReader(r)
	if err != nil {
		return wb, report, fmt.Errorf("%w: not a readable workbook: %v", domain.ErrValidation, err)
	}
	defer f.Close()

	rows, err := sheetRows(f, SheetRoadmap)
	if err != nil {
		return wb, report, err
	}
	if rows == nil {
		return wb, report, fmt.Errorf("workbook has no %s sheet: %w", SheetRoadmap, domain.ErrValidation)
	}
	wb.Items, report.Roadmap = ImportTable(rows, opts)

	if rows, err = sheetRows(f, SheetPersonnel); err != nil {
		return wb, report, err
	} else if rows != nil {
		wb.Personnel, report.Personnel = ParsePersonnelTable(rows)
	}
	if rows, err = sheetRows(f, SheetHardware); err != nil {
		return wb, report, err
	} else if rows != nil {
		wb.Hardware, report.Hardware = ParseHardwareTable(rows)
	}
	return wb, report, nil
}

// sheetRows returns a sheet's rows padded to the header width, since empty
// trailing cells are dropped by the reader. A missing sheet returns nil.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("lookup sheet %s: %w", sheet, err)
	}
	if idx < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return [][]string{}, nil
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows, nil
}
