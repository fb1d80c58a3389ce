package importer

import "strings"

// Canonical export header, in column order.
var exportHeader = []string{
	"ID", "Work Item Type", "Title 1", "Title 2", "Title 3",
	"Assigned To", "State", "Story Points",
	"Start Date", "Finish Date", "Duration (Days)", "Demo",
}

// TableSchema records where each recognised column sits in a header row.
// Missing columns have index -1.
type TableSchema struct {
	ID          int
	Type        int
	Title       int
	Title1      int
	Title2      int
	Title3      int
	AssignedTo  int
	State       int
	StoryPoints int
	Start       int
	Finish      int
	Duration    int
	Demo        int

	Width int
}

// ThreeColumn reports whether the sheet uses separate Title 1/2/3 columns.
func (s TableSchema) ThreeColumn() bool {
	return s.Title1 >= 0 || s.Title2 >= 0 || s.Title3 >= 0
}

// TypeTracked reports whether the sheet is a single-title sheet whose
// hierarchy is implied by row order and the work item type column.
func (s TableSchema) TypeTracked() bool {
	return s.Type >= 0 && s.Title >= 0 && !s.ThreeColumn()
}

// DetectSchema matches header cells against the recognised column name
// patterns. Matching is case-insensitive; the first matching column wins.
func DetectSchema(header []string) TableSchema {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	find := func(match func(h string) bool) int {
		for i, h := range norm {
			if match(h) {
				return i
			}
		}
		return -1
	}
	equals := func(names ...string) func(string) bool {
		return func(h string) bool {
			for _, n := range names {
				if h == n {
					return true
				}
			}
			return false
		}
	}
	contains := func(parts ...string) func(string) bool {
		return func(h string) bool {
			for _, p := range parts {
				if strings.Contains(h, p) {
					return true
				}
			}
			return false
		}
	}

	s := TableSchema{
		ID:          find(equals("id")),
		Type:        find(contains("work item type", "type")),
		Title1:      find(equals("title 1", "title1")),
		Title2:      find(equals("title 2", "title2")),
		Title3:      find(equals("title 3", "title3")),
		AssignedTo:  find(contains("assigned", "assignee")),
		State:       find(equals("state", "status")),
		StoryPoints: find(contains("story points", "points")),
		Start:       find(contains("start")),
		Finish:      find(contains("deliverable", "closed", "finish", "end")),
		Duration:    find(contains("duration")),
		Demo:        find(equals("demo")),
		Width:       len(header),
	}
	s.Title = -1
	if !s.ThreeColumn() {
		s.Title = find(equals("title", "name"))
	}
	return s
}
