package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPatch_MergesFieldsWithoutMutatingInput(t *testing.T) {
	items := []WorkItem{story("A", "F1", "S1", 1, "", "")}
	id := items[0].ID

	out, err := ApplyPatch(items, id, Patch{
		SetText(FieldAssignedTo, "dana"),
		SetText(FieldState, "Active"),
	})
	require.NoError(t, err)
	assert.Equal(t, "dana", out[0].AssignedTo)
	assert.Equal(t, "Active", out[0].State)
	assert.Equal(t, "", items[0].AssignedTo, "input must not change")
}

func TestApplyPatch_StoryPointsSetsManualFlag(t *testing.T) {
	items := []WorkItem{
		epic("A"),
		feature("A", "F1"),
		story("A", "F1", "S1", 3, "", ""),
	}
	fid := items[1].ID

	out, err := ApplyPatch(items, fid, Patch{SetStoryPoints(21)})
	require.NoError(t, err)
	assert.True(t, out[1].ManuallySetStoryPoints)

	tree := BuildHierarchy(out)
	assert.Equal(t, 21.0, tree.Epic("A").Feature("F1").Item.StoryPoints)
	assert.Equal(t, 21.0, tree.Epic("A").Item.StoryPoints)
}

func TestApplyPatch_ReleaseOverrideReturnsToRollUp(t *testing.T) {
	items := []WorkItem{feature("A", "F1"), story("A", "F1", "S1", 3, "", "")}
	out, err := ApplyPatch(items, items[0].ID, Patch{SetStoryPoints(21)})
	require.NoError(t, err)
	out, err = ApplyPatch(out, items[0].ID, Patch{ReleaseOverride(FieldStoryPoints)})
	require.NoError(t, err)

	assert.False(t, out[0].ManuallySetStoryPoints)
	assert.Equal(t, 3.0, BuildHierarchy(out).Epic("A").Feature("F1").Item.StoryPoints)
}

func TestApplyPatch_DatesRecomputeDuration(t *testing.T) {
	items := []WorkItem{story("A", "F1", "S1", 1, "2026-01-01", "2026-01-02")}
	out, err := ApplyPatch(items, items[0].ID, Patch{SetFinishDate(date("2026-01-31"))})
	require.NoError(t, err)
	assert.Equal(t, 31, out[0].DurationDays)
	assert.True(t, out[0].ManuallySetFinish)
	assert.False(t, out[0].ManuallySetStart)
}

func TestApplyPatch_UnmarkedDateChangeKeepsFlag(t *testing.T) {
	items := []WorkItem{feature("A", "F1")}
	out, err := ApplyPatch(items, items[0].ID, Patch{{Field: FieldStartDate, Date: date("2026-02-02")}})
	require.NoError(t, err)
	assert.False(t, out[0].ManuallySetStart)
	assert.Equal(t, "2026-02-02", FormatDate(out[0].StartDate))
}

func TestApplyPatch_TitleSyncsName(t *testing.T) {
	items := []WorkItem{feature("A", "F1")}
	out, err := ApplyPatch(items, items[0].ID, Patch{SetText(FieldTitle, "Payments")})
	require.NoError(t, err)
	assert.Equal(t, "Payments", out[0].Feature)
	assert.Equal(t, "Payments", out[0].Title)
}

func TestApplyPatch_UnknownIDIsNoOp(t *testing.T) {
	items := []WorkItem{epic("A")}
	out, err := ApplyPatch(items, "missing", Patch{SetText(FieldState, "Done")})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, items, out)
}

func TestApplyPatch_Validation(t *testing.T) {
	items := []WorkItem{epic("A")}
	_, err := ApplyPatch(items, items[0].ID, Patch{SetStoryPoints(-1)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = ApplyPatch(items, items[0].ID, Patch{SetText(FieldType, "spike")})
	require.ErrorIs(t, err, ErrValidation)

	_, err = ApplyPatch(items, items[0].ID, Patch{ReleaseOverride(FieldState)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddItem_AssignsFreshID(t *testing.T) {
	items := []WorkItem{epic("A")}
	out, added := AddItem(items, WorkItem{ID: items[0].ID, Type: TypeFeature, Epic: "A", Title: "F1"})
	require.Len(t, out, 2)
	assert.NotEqual(t, items[0].ID, added.ID)
	assert.Equal(t, "F1", added.Feature)
	assert.Len(t, items, 1)
}

func TestDeleteItem_NoCascade(t *testing.T) {
	items := []WorkItem{
		epic("A"),
		feature("A", "F1"),
		story("A", "F1", "S1", 2, "", ""),
	}
	out, err := DeleteItem(items, items[2].ID)
	require.NoError(t, err)
	require.Len(t, out, 2)

	tree := BuildHierarchy(out)
	require.NotNil(t, tree.Epic("A").Feature("F1"), "parent feature survives losing its last story")

	out, err = DeleteItem(out, items[0].ID)
	require.NoError(t, err)
	assert.Len(t, out, 1, "deleting an epic leaves its feature")

	_, err = DeleteItem(out, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDedupe_PrefersMoreCompleteItem(t *testing.T) {
	sparse := NewWorkItem(WorkItem{Type: TypeStory, Epic: "A", Story: "Login"})
	full := NewWorkItem(WorkItem{Type: TypeStory, Epic: "a", Story: "login ", AssignedTo: "kim"})
	other := NewWorkItem(WorkItem{Type: TypeStory, Epic: "A", Feature: "F1", Story: "Login"})

	out := Dedupe([]WorkItem{sparse, full, other})
	require.Len(t, out, 2)
	assert.Equal(t, sparse.ID, out[0].ID, "tie keeps the earliest")
	assert.Equal(t, other.ID, out[1].ID)
}
