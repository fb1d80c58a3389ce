package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Field names a patchable WorkItem field.
type Field string

const (
	FieldType        Field = "type"
	FieldTitle       Field = "title"
	FieldEpic        Field = "epic"
	FieldFeature     Field = "feature"
	FieldStory       Field = "story"
	FieldAssignedTo  Field = "assignedTo"
	FieldState       Field = "state"
	FieldDemo        Field = "demo"
	FieldStartDate   Field = "startDate"
	FieldFinishDate  Field = "finishDate"
	FieldStoryPoints Field = "storyPoints"
)

// FieldChange is one entry of a Patch. Exactly one of Text, Date or Points is
// meaningful, depending on Field. For the aggregated fields (start, finish,
// story points) Manual records whether the change is a human override; an
// override pins the value against future roll-ups.
type FieldChange struct {
	Field  Field      `json:"field"`
	Text   string     `json:"text,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
	Points float64    `json:"points,omitempty"`
	Manual bool       `json:"manual,omitempty"`

	// Release clears the manual override on an aggregated field without
	// touching its value, handing it back to the roll-up.
	Release bool `json:"release,omitempty"`
}

// Patch is an ordered list of field changes applied to a single item.
type Patch []FieldChange

// SetText changes a free-text or name field.
func SetText(f Field, v string) FieldChange { return FieldChange{Field: f, Text: v} }

// SetStartDate sets the start date and marks it as manually set.
func SetStartDate(d *time.Time) FieldChange {
	return FieldChange{Field: FieldStartDate, Date: d, Manual: true}
}

// SetFinishDate sets the finish date and marks it as manually set.
func SetFinishDate(d *time.Time) FieldChange {
	return FieldChange{Field: FieldFinishDate, Date: d, Manual: true}
}

// SetStoryPoints sets story points and marks them as manually set.
func SetStoryPoints(v float64) FieldChange {
	return FieldChange{Field: FieldStoryPoints, Points: v, Manual: true}
}

// ReleaseOverride hands an aggregated field back to the roll-up.
func ReleaseOverride(f Field) FieldChange { return FieldChange{Field: f, Release: true} }

// Validate checks a patch without applying it.
func (p Patch) Validate() error {
	for _, c := range p {
		switch c.Field {
		case FieldType:
			if t := ParseItemType(c.Text); t == TypeTask && !strings.EqualFold(strings.TrimSpace(c.Text), string(TypeTask)) {
				return fmt.Errorf("%w: unknown type %q", ErrValidation, c.Text)
			}
		case FieldTitle, FieldEpic, FieldFeature, FieldStory, FieldAssignedTo, FieldState, FieldDemo:
		case FieldStartDate, FieldFinishDate:
		case FieldStoryPoints:
			if !c.Release && c.Points < 0 {
				return fmt.Errorf("%w: story points must be non-negative, got %v", ErrValidation, c.Points)
			}
		default:
			return fmt.Errorf("%w: unknown field %q", ErrValidation, c.Field)
		}
		if c.Release && !isAggregated(c.Field) {
			return fmt.Errorf("%w: field %q has no manual override", ErrValidation, c.Field)
		}
	}
	return nil
}

func isAggregated(f Field) bool {
	return f == FieldStartDate || f == FieldFinishDate || f == FieldStoryPoints
}

// apply mutates w in place. Callers pass a copy.
func (p Patch) apply(w *WorkItem) {
	datesChanged := false
	for _, c := range p {
		switch c.Field {
		case FieldType:
			w.Type = ParseItemType(c.Text)
		case FieldTitle:
			w.Title = c.Text
			switch w.Type {
			case TypeEpic:
				w.Epic = c.Text
			case TypeFeature:
				w.Feature = c.Text
			case TypeStory:
				w.Story = c.Text
			}
		case FieldEpic:
			w.Epic = c.Text
		case FieldFeature:
			w.Feature = c.Text
		case FieldStory:
			w.Story = c.Text
		case FieldAssignedTo:
			w.AssignedTo = c.Text
		case FieldState:
			w.State = c.Text
		case FieldDemo:
			w.Demo = c.Text
		case FieldStartDate:
			if c.Release {
				w.ManuallySetStart = false
				continue
			}
			w.StartDate = copyDate(c.Date)
			w.ManuallySetStart = w.ManuallySetStart || c.Manual
			datesChanged = true
		case FieldFinishDate:
			if c.Release {
				w.ManuallySetFinish = false
				continue
			}
			w.FinishDate = copyDate(c.Date)
			w.ManuallySetFinish = w.ManuallySetFinish || c.Manual
			datesChanged = true
		case FieldStoryPoints:
			if c.Release {
				w.ManuallySetStoryPoints = false
				continue
			}
			w.StoryPoints = c.Points
			w.ManuallySetStoryPoints = w.ManuallySetStoryPoints || c.Manual
		}
	}
	w.SyncTitle()
	if datesChanged {
		w.RecomputeDuration()
	}
}

func copyDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	v := DateOnly(*d)
	return &v
}

// ApplyPatch returns a new collection in which the item with the given id has
// the patch merged over it. The input slice is not modified. An unknown id
// leaves the collection unchanged and returns ErrNotFound so the caller can
// warn and carry on.
func ApplyPatch(items []WorkItem, id string, patch Patch) ([]WorkItem, error) {
	out := CloneItems(items)
	if err := patch.Validate(); err != nil {
		return out, err
	}
	idx := slices.IndexFunc(out, func(w WorkItem) bool { return w.ID == id })
	if idx < 0 {
		return out, fmt.Errorf("work item %q: %w", id, ErrNotFound)
	}
	patch.apply(&out[idx])
	return out, nil
}

// AddItem appends a new item built from draft. The draft's id is ignored so
// ids are never reused.
func AddItem(items []WorkItem, draft WorkItem) ([]WorkItem, WorkItem) {
	draft.ID = ""
	w := NewWorkItem(draft)
	out := append(CloneItems(items), w)
	return out, w
}

// DeleteItem removes the item with the given id. Children are left in place
// and become orphans if their parent is gone.
func DeleteItem(items []WorkItem, id string) ([]WorkItem, error) {
	out := CloneItems(items)
	idx := slices.IndexFunc(out, func(w WorkItem) bool { return w.ID == id })
	if idx < 0 {
		return out, fmt.Errorf("work item %q: %w", id, ErrNotFound)
	}
	return slices.Delete(out, idx, idx+1), nil
}

// Dedupe drops items whose IdentityKey repeats. Among duplicates the item
// with the most hierarchy names filled in survives; ties keep the earliest.
// Survivors keep their original relative order.
func Dedupe(items []WorkItem) []WorkItem {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return completeness(items[b]) - completeness(items[a])
	})

	keep := make([]bool, len(items))
	seen := make(map[string]bool, len(items))
	for _, i := range order {
		key := items[i].IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		keep[i] = true
	}

	out := make([]WorkItem, 0, len(seen))
	for i, w := range items {
		if keep[i] {
			out = append(out, w.clone())
		}
	}
	return out
}

func completeness(w WorkItem) int {
	n := 0
	for _, s := range []string{w.Epic, w.Feature, w.Story} {
		if s != "" {
			n++
		}
	}
	return n
}
