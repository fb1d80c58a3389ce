package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func epic(name string) WorkItem {
	return NewWorkItem(WorkItem{Type: TypeEpic, Epic: name})
}

func feature(epicName, name string) WorkItem {
	return NewWorkItem(WorkItem{Type: TypeFeature, Epic: epicName, Feature: name})
}

func story(epicName, featureName, name string, points float64, start, finish string) WorkItem {
	w := WorkItem{Type: TypeStory, Epic: epicName, Feature: featureName, Story: name, StoryPoints: points}
	if start != "" {
		w.StartDate = date(start)
	}
	if finish != "" {
		w.FinishDate = date(finish)
	}
	return NewWorkItem(w)
}

func TestBuildHierarchy_SingleChain(t *testing.T) {
	items := []WorkItem{
		epic("A"),
		feature("A", "F1"),
		story("A", "F1", "S1", 5, "2026-01-01", "2026-01-10"),
	}

	tree := BuildHierarchy(items)
	require.Len(t, tree.Epics, 1)
	e := tree.Epics[0]
	assert.False(t, e.Stub)
	assert.Equal(t, 5.0, e.Item.StoryPoints)
	assert.Equal(t, "2026-01-01", FormatDate(e.Item.StartDate))
	assert.Equal(t, "2026-01-10", FormatDate(e.Item.FinishDate))
	assert.Equal(t, 10, e.Item.DurationDays)
}

func TestBuildHierarchy_FeatureSumsStories(t *testing.T) {
	items := []WorkItem{
		feature("A", "F1"),
		story("A", "F1", "S1", 3, "", ""),
		story("A", "F1", "S2", 5, "", ""),
	}
	tree := BuildHierarchy(items)
	f := tree.Epic("A").Feature("F1")
	require.NotNil(t, f)
	assert.Equal(t, 8.0, f.Item.StoryPoints)
}

func TestBuildHierarchy_EpicSumsFeatures(t *testing.T) {
	items := []WorkItem{
		epic("A"),
		feature("A", "F1"),
		feature("A", "F2"),
		story("A", "F1", "S1", 3, "", ""),
		story("A", "F1", "S2", 2, "", ""),
		story("A", "F2", "S3", 8, "", ""),
	}
	tree := BuildHierarchy(items)
	e := tree.Epic("A")
	var sum float64
	for _, f := range e.Features {
		sum += f.Item.StoryPoints
	}
	assert.Equal(t, sum, e.Item.StoryPoints)
	assert.Equal(t, 13.0, e.Item.StoryPoints)
}

func TestBuildHierarchy_EpicWithoutFeaturesSumsDirectStories(t *testing.T) {
	items := []WorkItem{
		epic("A"),
		story("A", "", "S1", 2, "2026-02-01", ""),
		story("A", "", "S2", 3, "", "2026-02-20"),
	}
	tree := BuildHierarchy(items)
	e := tree.Epic("A")
	require.Len(t, e.Stories, 2)
	assert.Empty(t, e.Features)
	assert.Equal(t, 5.0, e.Item.StoryPoints)
	assert.Equal(t, "2026-02-01", FormatDate(e.Item.StartDate))
	assert.Equal(t, "2026-02-20", FormatDate(e.Item.FinishDate))
}

func TestBuildHierarchy_OrderIndependent(t *testing.T) {
	forward := []WorkItem{
		epic("A"),
		feature("A", "F1"),
		story("A", "F1", "S1", 5, "2026-01-01", "2026-01-10"),
	}
	backward := []WorkItem{forward[2], forward[1], forward[0]}

	a := BuildHierarchy(forward).Epic("A")
	b := BuildHierarchy(backward).Epic("A")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.False(t, b.Stub, "declared epic should not be treated as a stub")
	assert.Equal(t, a.Item.ID, b.Item.ID)
	assert.Equal(t, a.Item.StoryPoints, b.Item.StoryPoints)
	assert.Equal(t, FormatDate(a.Item.StartDate), FormatDate(b.Item.StartDate))
	assert.Equal(t, FormatDate(a.Item.FinishDate), FormatDate(b.Item.FinishDate))
}

func TestBuildHierarchy_StubsForUndeclaredParents(t *testing.T) {
	items := []WorkItem{story("Ghost", "Phantom", "S1", 1, "", "")}
	tree := BuildHierarchy(items)
	e := tree.Epic("Ghost")
	require.NotNil(t, e)
	assert.True(t, e.Stub)
	f := e.Feature("Phantom")
	require.NotNil(t, f)
	assert.True(t, f.Stub)
	assert.Equal(t, TypeFeature, f.Item.Type)
	assert.Equal(t, 1.0, e.Item.StoryPoints)
}

func TestBuildHierarchy_CaseSensitiveNames(t *testing.T) {
	items := []WorkItem{epic("Alpha"), epic("alpha")}
	tree := BuildHierarchy(items)
	assert.Len(t, tree.Epics, 2)
}

func TestBuildHierarchy_OrphansExcluded(t *testing.T) {
	items := []WorkItem{
		epic("A"),
		story("", "F1", "lost", 40, "2020-01-01", "2030-01-01"),
		feature("", "nowhere"),
		NewWorkItem(WorkItem{Type: TypeTask, Title: "Chore"}),
	}
	tree := BuildHierarchy(items)
	assert.Len(t, tree.Orphans, 2)
	assert.Len(t, tree.Standalone, 1)
	e := tree.Epic("A")
	assert.Equal(t, 0.0, e.Item.StoryPoints)
	assert.Nil(t, e.Item.StartDate)
}

func TestBuildHierarchy_ManualOverrideRespected(t *testing.T) {
	f := feature("A", "F1")
	f.StoryPoints = 20
	f.ManuallySetStoryPoints = true
	f.StartDate = date("2025-12-01")
	f.ManuallySetStart = true

	items := []WorkItem{
		epic("A"),
		f,
		story("A", "F1", "S1", 3, "2026-01-05", "2026-01-09"),
	}
	tree := BuildHierarchy(items)
	fn := tree.Epic("A").Feature("F1")
	assert.Equal(t, 20.0, fn.Item.StoryPoints)
	assert.Equal(t, "2025-12-01", FormatDate(fn.Item.StartDate))
	assert.Equal(t, "2026-01-09", FormatDate(fn.Item.FinishDate), "finish is not overridden")

	e := tree.Epic("A")
	assert.Equal(t, 20.0, e.Item.StoryPoints)
	assert.Equal(t, "2025-12-01", FormatDate(e.Item.StartDate))
}

func TestBuildHierarchy_ClearsStaleDatesWhenChildrenUndated(t *testing.T) {
	f := feature("A", "F1")
	f.StartDate = date("2026-04-01")
	f.FinishDate = date("2026-04-30")
	items := []WorkItem{f, story("A", "F1", "S1", 1, "", "")}

	fn := BuildHierarchy(items).Epic("A").Feature("F1")
	assert.Nil(t, fn.Item.StartDate)
	assert.Nil(t, fn.Item.FinishDate)
	assert.Equal(t, 0, fn.Item.DurationDays)
}

func TestBuildHierarchy_ChildlessKeepsOwnValues(t *testing.T) {
	f := feature("A", "F1")
	f.StoryPoints = 13
	f.StartDate = date("2026-04-01")
	tree := BuildHierarchy([]WorkItem{f})
	fn := tree.Epic("A").Feature("F1")
	assert.Equal(t, 13.0, fn.Item.StoryPoints)
	assert.Equal(t, "2026-04-01", FormatDate(fn.Item.StartDate))
}

func TestBuildHierarchy_DoesNotMutateInput(t *testing.T) {
	f := feature("A", "F1")
	items := []WorkItem{f, story("A", "F1", "S1", 4, "2026-01-01", "2026-01-02")}
	BuildHierarchy(items)
	assert.Equal(t, 0.0, items[0].StoryPoints)
	assert.Nil(t, items[0].StartDate)
}

func TestTree_Flatten(t *testing.T) {
	items := []WorkItem{
		epic("A"),
		feature("A", "F1"),
		story("A", "F1", "S1", 1, "", ""),
		story("A", "", "S0", 1, "", ""),
	}
	flat := BuildHierarchy(items).Flatten()
	require.Len(t, flat, 4)
	assert.Equal(t, []ItemType{TypeEpic, TypeStory, TypeFeature, TypeStory},
		[]ItemType{flat[0].Type, flat[1].Type, flat[2].Type, flat[3].Type})
	assert.Equal(t, "S0", flat[1].Story)
	assert.Equal(t, "S1", flat[3].Story)
}
