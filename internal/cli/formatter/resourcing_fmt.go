package formatter

import (
	"strings"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// FormatPersonnel renders one table per year with a totals row.
func FormatPersonnel(plan domain.PersonnelPlan, years ...string) string {
	if len(years) == 0 {
		years = plan.Years()
	}
	var b strings.Builder
	for _, year := range years {
		positions, ok := plan[year]
		if !ok {
			continue
		}
		b.WriteString(Header("Personnel "+year) + "\n")
		rows := make([][]string, 0, len(positions)+1)
		for _, p := range positions {
			rows = append(rows, []string{
				p.Position, p.Source, Money(p.Cost), Points(p.Qty),
				Money(p.TotalPerYear()), Points(p.Overall()), Points(p.PointsPerMonth()),
			})
		}
		t := plan.Totals(year)
		rows = append(rows, []string{
			Bold("Total"), "", "", "",
			Bold(Money(t.TotalPerYear)), Bold(Points(t.Overall)), Bold(Points(t.PointsPerMonth)),
		})
		b.WriteString(RenderTable(
			[]string{"POSITION", "SOURCE", "COST", "QTY", "TOTAL/YR", "OVERALL", "PTS/MONTH"},
			rows, 2, 3, 4, 5, 6))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHardware renders one table per fiscal year followed by category
// subtotals.
func FormatHardware(plan domain.HardwarePlan, years ...string) string {
	if len(years) == 0 {
		years = plan.Years()
	}
	var b strings.Builder
	for _, year := range years {
		items, ok := plan[year]
		if !ok {
			continue
		}
		b.WriteString(Header("Hardware "+year) + "\n")
		rows := make([][]string, 0, len(items))
		for _, h := range items {
			rows = append(rows, []string{h.Category, h.Item, h.Description, Money(h.Cost), Points(h.Qty), Money(h.Total())})
		}
		b.WriteString(RenderTable([]string{"CATEGORY", "ITEM", "DESCRIPTION", "COST", "QTY", "TOTAL"}, rows, 3, 4, 5))

		order, totals := plan.CategoryTotals(year)
		for _, c := range order {
			b.WriteString("  " + Dim(OrDash(c)+": ") + Money(totals[c]) + "\n")
		}
		b.WriteString("  " + Bold("Total: "+Money(plan.GrandTotal(year))) + "\n\n")
	}
	return b.String()
}
