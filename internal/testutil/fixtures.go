package testutil

import (
	"time"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// ItemOption tweaks a fixture work item before defaults are filled in.
type ItemOption func(*domain.WorkItem)

func WithPoints(p float64) ItemOption {
	return func(w *domain.WorkItem) {
		w.StoryPoints = p
	}
}

// WithDates sets start and finish from YYYY-MM-DD strings; "" leaves a date
// empty.
func WithDates(start, finish string) ItemOption {
	return func(w *domain.WorkItem) {
		w.StartDate = Date(start)
		w.FinishDate = Date(finish)
	}
}

func WithAssignee(name string) ItemOption {
	return func(w *domain.WorkItem) {
		w.AssignedTo = name
	}
}

func NewEpic(name string, opts ...ItemOption) domain.WorkItem {
	return build(domain.WorkItem{Type: domain.TypeEpic, Epic: name}, opts)
}

func NewFeature(epic, name string, opts ...ItemOption) domain.WorkItem {
	return build(domain.WorkItem{Type: domain.TypeFeature, Epic: epic, Feature: name}, opts)
}

func NewStory(epic, feature, name string, opts ...ItemOption) domain.WorkItem {
	return build(domain.WorkItem{Type: domain.TypeStory, Epic: epic, Feature: feature, Story: name}, opts)
}

func NewTask(title string, opts ...ItemOption) domain.WorkItem {
	return build(domain.WorkItem{Type: domain.TypeTask, Title: title}, opts)
}

func build(w domain.WorkItem, opts []ItemOption) domain.WorkItem {
	for _, opt := range opts {
		opt(&w)
	}
	return domain.NewWorkItem(w)
}

// Date parses YYYY-MM-DD, returning nil for "". It panics on bad input.
func Date(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// SampleRoadmap is a small two-epic roadmap with one direct story and one
// standalone task.
func SampleRoadmap() []domain.WorkItem {
	return []domain.WorkItem{
		NewEpic("Platform", WithAssignee("Dana")),
		NewFeature("Platform", "Auth"),
		NewStory("Platform", "Auth", "Login", WithPoints(3), WithDates("2026-04-01", "2026-04-05")),
		NewStory("Platform", "Auth", "Logout", WithPoints(2), WithDates("2026-04-06", "2026-04-09")),
		NewStory("Platform", "", "Spike", WithPoints(1)),
		NewEpic("Reporting"),
		NewFeature("Reporting", "Dashboards"),
		NewStory("Reporting", "Dashboards", "Burn-down", WithPoints(5), WithDates("2026-05-01", "2026-05-20")),
		NewTask("Write runbook"),
	}
}
