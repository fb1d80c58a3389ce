package domain

import "strings"

type ItemType string

const (
	TypeEpic    ItemType = "epic"
	TypeFeature ItemType = "feature"
	TypeStory   ItemType = "story"
	// TypeTask covers rows whose type is none of the above. Tasks are kept
	// and exported but never attached to the hierarchy.
	TypeTask ItemType = "task"
)

// DefaultState is the state given to items created without one.
const DefaultState = "New"

// Document keys under which the persisted collections live.
const (
	TasksDocumentKey     = "roadmap-tasks:v1"
	PersonnelDocumentKey = "resourcing-data"
	HardwareDocumentKey  = "hardware-resourcing-data"
)

// ParseItemType maps free-form type labels onto an ItemType. Matching is
// case-insensitive; "user story" and "story" are synonyms. Anything
// unrecognised, including the empty string, is a task.
func ParseItemType(s string) ItemType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "epic":
		return TypeEpic
	case "feature":
		return TypeFeature
	case "story", "user story", "userstory", "user_story":
		return TypeStory
	default:
		return TypeTask
	}
}

// IsHierarchical reports whether items of this type take part in the
// epic → feature → story tree.
func (t ItemType) IsHierarchical() bool {
	return t == TypeEpic || t == TypeFeature || t == TypeStory
}

// Label returns the display label used on export, e.g. "User Story".
func (t ItemType) Label() string {
	switch t {
	case TypeEpic:
		return "Epic"
	case TypeFeature:
		return "Feature"
	case TypeStory:
		return "User Story"
	default:
		return "Task"
	}
}
