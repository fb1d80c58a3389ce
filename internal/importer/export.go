package importer

import (
	"strconv"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// ExportTable renders items as a Title 1/2/3 table: a header row, then each
// epic followed by its direct stories and its features with their stories,
// then standalone tasks. Epic and feature rows carry their rolled-up values.
// A hierarchy name appears only on the row that introduces it, so the table
// re-imports through blank-cell carry-forward. Orphaned items have no place
// in the tree and are not exported.
func ExportTable(items []domain.WorkItem) [][]string {
	tree := domain.BuildHierarchy(items)

	rows := [][]string{append([]string(nil), exportHeader...)}
	for _, e := range tree.Epics {
		rows = append(rows, exportRow(e.Item, e.Item.Epic, "", ""))
		for _, s := range e.Stories {
			rows = append(rows, exportRow(s, "", "", s.Name()))
		}
		for _, f := range e.Features {
			rows = append(rows, exportRow(f.Item, "", f.Item.Feature, ""))
			for _, s := range f.Stories {
				rows = append(rows, exportRow(s, "", "", s.Name()))
			}
		}
	}
	for _, t := range tree.Standalone {
		rows = append(rows, exportRow(t, "", "", t.Title))
	}
	return rows
}

func exportRow(w domain.WorkItem, title1, title2, title3 string) []string {
	duration := w.DurationDays
	if w.StartDate != nil && w.FinishDate != nil {
		duration = domain.InclusiveDays(*w.StartDate, *w.FinishDate)
	}
	return []string{
		w.ID,
		w.Type.Label(),
		title1,
		title2,
		title3,
		w.AssignedTo,
		domain.CoalesceStr(w.State, domain.DefaultState),
		formatNumber(w.StoryPoints),
		domain.FormatDate(w.StartDate),
		domain.FormatDate(w.FinishDate),
		strconv.Itoa(duration),
		w.Demo,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
