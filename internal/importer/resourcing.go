package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/roadmap/internal/domain"
)

var personnelHeader = []string{
	"Year", "Position", "Source", "Cost", "QTY",
	"Total (Per Year)", "Overall", "Story Points Per Month",
}

var hardwareHeader = []string{
	"Fiscal Year", "Category", "Item", "Description", "Cost", "QTY", "Total",
}

// PersonnelTable renders a personnel plan, one row per position, years in
// sorted order. Derived columns are written for readers and ignored on
// import.
func PersonnelTable(plan domain.PersonnelPlan) [][]string {
	rows := [][]string{append([]string(nil), personnelHeader...)}
	for _, year := range plan.Years() {
		for _, p := range plan[year] {
			rows = append(rows, []string{
				year, p.Position, p.Source,
				formatNumber(p.Cost), formatNumber(p.Qty),
				formatNumber(p.TotalPerYear()), formatNumber(p.Overall()),
				formatNumber(p.StoryPointsPerMonth),
			})
		}
	}
	return rows
}

// HardwareTable renders a hardware plan, one row per line item.
func HardwareTable(plan domain.HardwarePlan) [][]string {
	rows := [][]string{append([]string(nil), hardwareHeader...)}
	for _, year := range plan.Years() {
		for _, h := range plan[year] {
			rows = append(rows, []string{
				year, h.Category, h.Item, h.Description,
				formatNumber(h.Cost), formatNumber(h.Qty), formatNumber(h.Total()),
			})
		}
	}
	return rows
}

// columnIndex maps lower-cased header names to their position.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func lookup(row []string, idx map[string]int, names ...string) string {
	for _, n := range names {
		if i, ok := idx[n]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// ParsePersonnelTable reads a personnel table. Rows without a year or a
// position are skipped.
func ParsePersonnelTable(rows [][]string) (domain.PersonnelPlan, Report) {
	var report Report
	plan := make(domain.PersonnelPlan)
	if len(rows) < 2 {
		return plan, report
	}
	idx := columnIndex(rows[0])
	for i, row := range rows[1:] {
		report.Rows++
		year := lookup(row, idx, "year", "fiscal year")
		name := lookup(row, idx, "position", "role")
		if year == "" || name == "" {
			report.Skipped++
			report.Warnings = append(report.Warnings, fmt.Errorf("row %d: missing year or position", i+2))
			continue
		}
		plan[year] = append(plan[year], domain.Position{
			Position:            name,
			Source:              lookup(row, idx, "source"),
			Cost:                parsePoints(lookup(row, idx, "cost")),
			Qty:                 parsePoints(lookup(row, idx, "qty", "quantity")),
			StoryPointsPerMonth: parsePoints(lookup(row, idx, "story points per month", "points per month")),
		})
		report.Imported++
	}
	return plan, report
}

// ParseHardwareTable reads a hardware table. Rows without a fiscal year or
// an item are skipped.
func ParseHardwareTable(rows [][]string) (domain.HardwarePlan, Report) {
	var report Report
	plan := make(domain.HardwarePlan)
	if len(rows) < 2 {
		return plan, report
	}
	idx := columnIndex(rows[0])
	for i, row := range rows[1:] {
		report.Rows++
		year := lookup(row, idx, "fiscal year", "year")
		item := lookup(row, idx, "item")
		if year == "" || item == "" {
			report.Skipped++
			report.Warnings = append(report.Warnings, fmt.Errorf("row %d: missing fiscal year or item", i+2))
			continue
		}
		plan[year] = append(plan[year], domain.HardwareItem{
			Category:    lookup(row, idx, "category"),
			Item:        item,
			Description: lookup(row, idx, "description"),
			Cost:        parsePoints(lookup(row, idx, "cost")),
			Qty:         parsePoints(lookup(row, idx, "qty", "quantity")),
		})
		report.Imported++
	}
	return plan, report
}
