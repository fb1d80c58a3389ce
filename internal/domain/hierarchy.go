package domain

import "time"

// FeatureNode is a feature with its stories. Item carries the rolled-up
// values; Stub is set when no feature item was declared and the node was
// synthesized from a story that referenced it.
type FeatureNode struct {
	Item    WorkItem   `json:"item"`
	Stub    bool       `json:"stub,omitempty"`
	Stories []WorkItem `json:"stories"`
}

// EpicNode is an epic with its features. Stories holds stories that name the
// epic but no feature.
type EpicNode struct {
	Item     WorkItem       `json:"item"`
	Stub     bool           `json:"stub,omitempty"`
	Features []*FeatureNode `json:"features"`
	Stories  []WorkItem     `json:"stories"`
}

// Tree is the read-only hierarchy view derived from a flat collection.
type Tree struct {
	Epics []*EpicNode `json:"epics"`
	// Orphans are hierarchical items whose parent names are missing; they
	// take no part in roll-ups.
	Orphans []WorkItem `json:"orphans"`
	// Standalone holds items whose type is outside the hierarchy.
	Standalone []WorkItem `json:"standalone"`
}

// Epic returns the epic node with the given name, or nil.
func (t *Tree) Epic(name string) *EpicNode {
	for _, e := range t.Epics {
		if e.Item.Epic == name {
			return e
		}
	}
	return nil
}

// Feature returns the feature node under the given epic, or nil.
func (e *EpicNode) Feature(name string) *FeatureNode {
	for _, f := range e.Features {
		if f.Item.Feature == name {
			return f
		}
	}
	return nil
}

// AllStories returns the epic's direct stories followed by each feature's.
func (e *EpicNode) AllStories() []WorkItem {
	out := append([]WorkItem(nil), e.Stories...)
	for _, f := range e.Features {
		out = append(out, f.Stories...)
	}
	return out
}

// Flatten returns every node item in display order: each epic, its direct
// stories, then its features each followed by their stories.
func (t *Tree) Flatten() []WorkItem {
	var out []WorkItem
	for _, e := range t.Epics {
		out = append(out, e.Item)
		out = append(out, e.Stories...)
		for _, f := range e.Features {
			out = append(out, f.Item)
			out = append(out, f.Stories...)
		}
	}
	return out
}

type hierarchyBuilder struct {
	tree     *Tree
	epics    map[string]*EpicNode
	features map[[2]string]*FeatureNode
}

func (b *hierarchyBuilder) epic(name string, declared *WorkItem) *EpicNode {
	if n, ok := b.epics[name]; ok {
		return n
	}
	n := &EpicNode{Stub: declared == nil}
	if declared != nil {
		n.Item = declared.clone()
	} else {
		n.Item = WorkItem{Type: TypeEpic, State: DefaultState}
	}
	n.Item.Epic, n.Item.Title = name, name
	b.epics[name] = n
	b.tree.Epics = append(b.tree.Epics, n)
	return n
}

func (b *hierarchyBuilder) feature(epic *EpicNode, name string, declared *WorkItem) *FeatureNode {
	key := [2]string{epic.Item.Epic, name}
	if n, ok := b.features[key]; ok {
		return n
	}
	n := &FeatureNode{Stub: declared == nil}
	if declared != nil {
		n.Item = declared.clone()
	} else {
		n.Item = WorkItem{Type: TypeFeature, State: DefaultState}
	}
	n.Item.Epic, n.Item.Feature, n.Item.Title = epic.Item.Epic, name, name
	b.features[key] = n
	epic.Features = append(epic.Features, n)
	return n
}

// BuildHierarchy assembles the epic → feature → story tree from a flat
// collection and rolls start date, finish date and story points up from the
// leaves. The whole tree is assembled before any aggregation, so the result
// does not depend on input order. Names are matched case-sensitively. The
// input is not modified.
func BuildHierarchy(items []WorkItem) *Tree {
	b := &hierarchyBuilder{
		tree:     &Tree{},
		epics:    make(map[string]*EpicNode),
		features: make(map[[2]string]*FeatureNode),
	}

	for i := range items {
		if it := &items[i]; it.Type == TypeEpic {
			b.epic(it.Name(), it)
		}
	}

	for i := range items {
		it := &items[i]
		if it.Type != TypeFeature {
			continue
		}
		name := it.Name()
		if it.Epic == "" || name == "" {
			b.tree.Orphans = append(b.tree.Orphans, it.clone())
			continue
		}
		b.feature(b.epic(it.Epic, nil), name, it)
	}

	for i := range items {
		it := &items[i]
		switch {
		case it.Type == TypeStory:
		case it.Type.IsHierarchical():
			continue
		default:
			b.tree.Standalone = append(b.tree.Standalone, it.clone())
			continue
		}
		if it.Epic == "" {
			b.tree.Orphans = append(b.tree.Orphans, it.clone())
			continue
		}
		epic := b.epic(it.Epic, nil)
		if it.Feature == "" {
			epic.Stories = append(epic.Stories, it.clone())
			continue
		}
		f := b.feature(epic, it.Feature, nil)
		f.Stories = append(f.Stories, it.clone())
	}

	for _, e := range b.tree.Epics {
		for _, f := range e.Features {
			aggregateFeature(f)
		}
	}
	for _, e := range b.tree.Epics {
		aggregateEpic(e)
	}
	return b.tree
}

func aggregateFeature(f *FeatureNode) {
	if len(f.Stories) == 0 {
		return
	}
	if !f.Item.ManuallySetStoryPoints {
		f.Item.StoryPoints = sumPoints(f.Stories)
	}
	rollUpDates(&f.Item, f.Stories)
}

func aggregateEpic(e *EpicNode) {
	stories := e.AllStories()
	if len(e.Features) == 0 && len(stories) == 0 {
		return
	}
	if !e.Item.ManuallySetStoryPoints {
		if len(e.Features) > 0 {
			var total float64
			for _, f := range e.Features {
				total += f.Item.StoryPoints
			}
			e.Item.StoryPoints = total
		} else {
			e.Item.StoryPoints = sumPoints(e.Stories)
		}
	}

	children := make([]WorkItem, 0, len(e.Features)+len(stories))
	for _, f := range e.Features {
		children = append(children, f.Item)
	}
	children = append(children, stories...)
	rollUpDates(&e.Item, children)
}

func sumPoints(items []WorkItem) float64 {
	var total float64
	for _, it := range items {
		total += it.StoryPoints
	}
	return total
}

// rollUpDates sets the earliest child start and latest child finish on
// parent, honouring manual overrides. A date with no dated child is cleared.
func rollUpDates(parent *WorkItem, children []WorkItem) {
	var earliest, latest *time.Time
	for i := range children {
		if s := children[i].StartDate; s != nil && (earliest == nil || s.Before(*earliest)) {
			earliest = s
		}
		if f := children[i].FinishDate; f != nil && (latest == nil || f.After(*latest)) {
			latest = f
		}
	}
	changed := false
	if !parent.ManuallySetStart {
		parent.StartDate = copyDate(earliest)
		changed = true
	}
	if !parent.ManuallySetFinish {
		parent.FinishDate = copyDate(latest)
		changed = true
	}
	if changed {
		if parent.StartDate == nil || parent.FinishDate == nil {
			parent.DurationDays = 0
		} else {
			parent.RecomputeDuration()
		}
	}
}
