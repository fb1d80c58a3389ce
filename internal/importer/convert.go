package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/google/uuid"
)

// Options controls table import.
type Options struct {
	// Today anchors yearless dates such as "26-Nov". Zero means time.Now.
	Today time.Time
}

func (o Options) today() time.Time {
	if o.Today.IsZero() {
		return domain.DateOnly(time.Now())
	}
	return domain.DateOnly(o.Today)
}

// Report summarises what happened to each data row of an import.
type Report struct {
	Rows       int
	Imported   int
	Skipped    int
	Duplicates int
	BadDates   int
	Warnings   []error
}

// hierarchyCursor tracks the most recently seen epic and feature names so
// rows that leave them blank inherit them.
type hierarchyCursor struct {
	epic    string
	feature string
}

// ImportTable converts a header row plus data rows into work items. It never
// fails on a single bad row: short or empty rows are skipped, unparseable
// dates become empty, and repeated (type, epic, feature, story) keys keep the
// first occurrence. Every skipped or normalised row is recorded in the
// returned Report.
func ImportTable(rows [][]string, opts Options) ([]domain.WorkItem, Report) {
	var report Report
	if len(rows) < 2 {
		return nil, report
	}

	schema := DetectSchema(rows[0])
	today := opts.today()

	var (
		items   []domain.WorkItem
		cursor  hierarchyCursor
		seen    = make(map[string]bool)
		usedIDs = make(map[string]bool)
	)

	for i, values := range rows[1:] {
		line := i + 2
		report.Rows++

		if len(values) < schema.Width {
			report.Skipped++
			report.Warnings = append(report.Warnings, fmt.Errorf("row %d: expected %d cells, got %d", line, schema.Width, len(values)))
			continue
		}

		cell := func(idx int) string {
			if idx < 0 || idx >= len(values) {
				return ""
			}
			return strings.TrimSpace(values[idx])
		}

		typeCell := cell(schema.Type)
		itemType := domain.ParseItemType(typeCell)
		name := cursor.advance(schema, itemType, cell)

		if name == "" && typeCell == "" {
			report.Skipped++
			continue
		}

		w := domain.WorkItem{
			Type:       itemType,
			Title:      name,
			AssignedTo: cell(schema.AssignedTo),
			State:      domain.CoalesceStr(cell(schema.State), domain.DefaultState),
			Demo:       cell(schema.Demo),
		}
		if itemType.IsHierarchical() {
			w.Epic = cursor.epic
			if itemType != domain.TypeEpic {
				w.Feature = cursor.feature
			}
			if itemType == domain.TypeEpic {
				w.Epic = name
			}
			if itemType == domain.TypeStory {
				w.Story = name
			}
		}

		if itemType.IsHierarchical() {
			key := w.IdentityKey()
			if seen[key] {
				report.Duplicates++
				continue
			}
			seen[key] = true
		}

		w.StoryPoints = parsePoints(cell(schema.StoryPoints))
		w.StartDate = parseDateCell(cell(schema.Start), today, line, "start", &report)
		w.FinishDate = parseDateCell(cell(schema.Finish), today, line, "finish", &report)
		if d, err := strconv.Atoi(cell(schema.Duration)); err == nil && d > 0 {
			w.DurationDays = d
		}

		id := cell(schema.ID)
		if id == "" || usedIDs[id] {
			id = uuid.New().String()
		}
		usedIDs[id] = true
		w.ID = id

		items = append(items, domain.NewWorkItem(w))
		report.Imported++
	}

	return items, report
}

// advance reads the hierarchy cells of a row, updates the cursor and returns
// the row's own item name.
func (c *hierarchyCursor) advance(s TableSchema, t domain.ItemType, cell func(int) string) string {
	if !s.ThreeColumn() {
		title := cell(s.Title)
		if s.TypeTracked() {
			switch t {
			case domain.TypeEpic:
				c.epic, c.feature = title, ""
			case domain.TypeFeature:
				c.feature = title
			}
		}
		return title
	}

	epic, feature, story := cell(s.Title1), cell(s.Title2), cell(s.Title3)
	switch t {
	case domain.TypeEpic:
		c.epic = domain.CoalesceStr(epic, cell(s.Title))
		c.feature = ""
		return c.epic
	case domain.TypeFeature:
		if epic != "" {
			c.epic = epic
		}
		c.feature = domain.CoalesceStr(feature, cell(s.Title))
		return c.feature
	case domain.TypeStory:
		if epic != "" {
			c.epic = epic
		}
		if feature != "" {
			c.feature = feature
		}
		return domain.CoalesceStr(story, cell(s.Title))
	default:
		return domain.CoalesceStr(story, feature, epic)
	}
}

func parsePoints(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseDateCell(s string, today time.Time, line int, which string, report *Report) *time.Time {
	if s == "" {
		return nil
	}
	d := domain.ParseDate(s, today)
	if d == nil {
		report.BadDates++
		report.Warnings = append(report.Warnings, fmt.Errorf("row %d: unparseable %s date %q", line, which, s))
	}
	return d
}
