package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// storedItem is the persisted shape of a work item. Dates are written as
// YYYY-MM-DD. The snake_case and deliverableDate fields are read for
// documents written by earlier versions and never written.
type storedItem struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Epic       string  `json:"epic"`
	Feature    string  `json:"feature"`
	Story      string  `json:"story"`
	AssignedTo string  `json:"assignedTo"`
	State      string  `json:"state"`
	Demo       string  `json:"demo"`
	Points     float64 `json:"storyPoints"`

	StartDate    string `json:"startDate,omitempty"`
	FinishDate   string `json:"finishDate,omitempty"`
	DurationDays int    `json:"durationDays"`

	ManuallySetStart       bool `json:"manuallySetStart,omitempty"`
	ManuallySetFinish      bool `json:"manuallySetFinish,omitempty"`
	ManuallySetStoryPoints bool `json:"manuallySetStoryPoints,omitempty"`

	LegacyStart       string `json:"start_date,omitempty"`
	LegacyFinish      string `json:"finish_date,omitempty"`
	LegacyDeliverable string `json:"deliverableDate,omitempty"`
	LegacyDuration    int    `json:"duration_days,omitempty"`
}

type tasksDocument struct {
	Tasks []storedItem `json:"tasks"`
}

// EncodeTasks renders the collection as the persisted {"tasks": [...]}
// document.
func EncodeTasks(items []domain.WorkItem) (json.RawMessage, error) {
	doc := tasksDocument{Tasks: make([]storedItem, len(items))}
	for i, it := range items {
		doc.Tasks[i] = storedItem{
			ID:                     it.ID,
			Type:                   string(it.Type),
			Title:                  it.Title,
			Epic:                   it.Epic,
			Feature:                it.Feature,
			Story:                  it.Story,
			AssignedTo:             it.AssignedTo,
			State:                  it.State,
			Demo:                   it.Demo,
			Points:                 it.StoryPoints,
			StartDate:              domain.FormatDate(it.StartDate),
			FinishDate:             domain.FormatDate(it.FinishDate),
			DurationDays:           it.DurationDays,
			ManuallySetStart:       it.ManuallySetStart,
			ManuallySetFinish:      it.ManuallySetFinish,
			ManuallySetStoryPoints: it.ManuallySetStoryPoints,
		}
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding tasks: %w", err)
	}
	return body, nil
}

// DecodeTasks reads a persisted tasks document. Items without an id are
// given one; unreadable dates are dropped.
func DecodeTasks(body json.RawMessage) ([]domain.WorkItem, error) {
	var doc tasksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	today := domain.DateOnly(time.Now())
	items := make([]domain.WorkItem, 0, len(doc.Tasks))
	for _, s := range doc.Tasks {
		w := domain.WorkItem{
			ID:                     s.ID,
			Type:                   domain.ParseItemType(s.Type),
			Title:                  s.Title,
			Epic:                   s.Epic,
			Feature:                s.Feature,
			Story:                  s.Story,
			AssignedTo:             s.AssignedTo,
			State:                  s.State,
			Demo:                   s.Demo,
			StoryPoints:            s.Points,
			StartDate:              domain.ParseDate(domain.CoalesceStr(s.StartDate, s.LegacyStart), today),
			FinishDate:             domain.ParseDate(domain.CoalesceStr(s.FinishDate, s.LegacyFinish, s.LegacyDeliverable), today),
			DurationDays:           s.DurationDays,
			ManuallySetStart:       s.ManuallySetStart,
			ManuallySetFinish:      s.ManuallySetFinish,
			ManuallySetStoryPoints: s.ManuallySetStoryPoints,
		}
		if w.DurationDays == 0 {
			w.DurationDays = s.LegacyDuration
		}
		items = append(items, domain.NewWorkItem(w))
	}
	return items, nil
}
