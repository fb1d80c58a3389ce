package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WorkItem is an epic, feature, story or standalone task on the roadmap.
// Position in the hierarchy is carried by name: a feature names its epic, a
// story names both its epic and its feature.
type WorkItem struct {
	ID      string   `json:"id"`
	Type    ItemType `json:"type"`
	Title   string   `json:"title"`
	Epic    string   `json:"epic"`
	Feature string   `json:"feature"`
	Story   string   `json:"story"`

	AssignedTo string `json:"assignedTo"`
	State      string `json:"state"`
	Demo       string `json:"demo"`

	StartDate    *time.Time `json:"startDate,omitempty"`
	FinishDate   *time.Time `json:"finishDate,omitempty"`
	DurationDays int        `json:"durationDays"`
	StoryPoints  float64    `json:"storyPoints"`

	// Manual overrides. When set, aggregation leaves the field alone.
	ManuallySetStart       bool `json:"manuallySetStart,omitempty"`
	ManuallySetFinish      bool `json:"manuallySetFinish,omitempty"`
	ManuallySetStoryPoints bool `json:"manuallySetStoryPoints,omitempty"`
}

// Name returns the hierarchy name that identifies the item at its own level.
func (w *WorkItem) Name() string {
	switch w.Type {
	case TypeEpic:
		return CoalesceStr(w.Epic, w.Title)
	case TypeFeature:
		return CoalesceStr(w.Feature, w.Title)
	case TypeStory:
		return CoalesceStr(w.Story, w.Title)
	default:
		return w.Title
	}
}

// SyncTitle makes Title and the type-appropriate name field agree. A
// non-empty name field wins over the title.
func (w *WorkItem) SyncTitle() {
	name := w.Name()
	w.Title = name
	switch w.Type {
	case TypeEpic:
		w.Epic = name
	case TypeFeature:
		w.Feature = name
	case TypeStory:
		w.Story = name
	}
}

// RecomputeDuration sets DurationDays from the current dates. When either
// date is missing the previous value is kept.
func (w *WorkItem) RecomputeDuration() {
	if w.StartDate == nil || w.FinishDate == nil {
		return
	}
	w.DurationDays = InclusiveDays(*w.StartDate, *w.FinishDate)
}

// IdentityKey is the deduplication key: type plus the three hierarchy names,
// lower-cased and trimmed.
func (w *WorkItem) IdentityKey() string {
	var epic, feature, story string
	switch w.Type {
	case TypeEpic:
		epic = w.Name()
	case TypeFeature:
		epic, feature = w.Epic, w.Name()
	case TypeStory:
		epic, feature, story = w.Epic, w.Feature, w.Name()
	default:
		story = w.Title
	}
	return IdentityKey(w.Type, epic, feature, story)
}

// IdentityKey builds the case- and whitespace-insensitive key for an item of
// type t at the given hierarchy position.
func IdentityKey(t ItemType, epic, feature, story string) string {
	// A Caser holds state, so each key gets its own.
	folder := cases.Lower(language.Und)
	norm := func(s string) string { return folder.String(strings.TrimSpace(s)) }
	return string(t) + ":" + norm(epic) + ":" + norm(feature) + ":" + norm(story)
}

// clone returns a copy of w whose date pointers are not shared.
func (w WorkItem) clone() WorkItem {
	if w.StartDate != nil {
		d := *w.StartDate
		w.StartDate = &d
	}
	if w.FinishDate != nil {
		d := *w.FinishDate
		w.FinishDate = &d
	}
	return w
}

// CloneItems deep-copies a collection.
func CloneItems(items []WorkItem) []WorkItem {
	out := make([]WorkItem, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}

// NewWorkItem fills in the defaults an item gets on creation: a fresh id,
// story type, the default state, synced title and computed duration.
// PinAggregates marks the values a caller gave a new epic or feature as
// manual overrides, so roll-ups do not replace them once children exist.
// Dates are pinned when set; story points only when pointsGiven.
func PinAggregates(w WorkItem, pointsGiven bool) WorkItem {
	if w.Type != TypeEpic && w.Type != TypeFeature {
		return w
	}
	w.ManuallySetStart = w.ManuallySetStart || w.StartDate != nil
	w.ManuallySetFinish = w.ManuallySetFinish || w.FinishDate != nil
	w.ManuallySetStoryPoints = w.ManuallySetStoryPoints || pointsGiven
	return w
}

func NewWorkItem(draft WorkItem) WorkItem {
	w := draft.clone()
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Type == "" {
		w.Type = TypeStory
	}
	if w.State == "" {
		w.State = DefaultState
	}
	if w.StoryPoints < 0 {
		w.StoryPoints = 0
	}
	w.SyncTitle()
	w.RecomputeDuration()
	return w
}
