package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/importer"
	"github.com/alexanderramin/roadmap/internal/service"
)

// FormatItems renders work items as a table.
func FormatItems(items []domain.WorkItem) string {
	if len(items) == 0 {
		return Dim("No work items.") + "\n"
	}
	headers := []string{"ID", "TYPE", "NAME", "EPIC", "FEATURE", "STATE", "POINTS", "START", "FINISH", "DAYS"}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		name := it.Name()
		if it.ManuallySetStoryPoints || it.ManuallySetStart || it.ManuallySetFinish {
			name += StyleYellow.Render(" *")
		}
		days := ""
		if it.DurationDays > 0 {
			days = strconv.Itoa(it.DurationDays)
		}
		rows = append(rows, []string{
			Dim(TruncID(it.ID)),
			TypeBadge(it.Type.Label()),
			name,
			OrDash(it.Epic),
			OrDash(it.Feature),
			StateStyle(it.State).Render(it.State),
			Points(it.StoryPoints),
			OrDash(domain.FormatDate(it.StartDate)),
			OrDash(domain.FormatDate(it.FinishDate)),
			days,
		})
	}
	return RenderTable(headers, rows, 6, 9)
}

// FormatItem renders every field of a single item.
func FormatItem(it domain.WorkItem) string {
	manual := func(set bool) string {
		if set {
			return StyleYellow.Render(" (manual)")
		}
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("ID"), it.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Type"), it.Type.Label())
	fmt.Fprintf(&b, "%s  %s\n", Dim("Epic"), OrDash(it.Epic))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Feature"), OrDash(it.Feature))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Story"), OrDash(it.Story))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Assigned To"), OrDash(it.AssignedTo))
	fmt.Fprintf(&b, "%s  %s\n", Dim("State"), StateStyle(it.State).Render(it.State))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Demo"), OrDash(it.Demo))
	fmt.Fprintf(&b, "%s  %s%s\n", Dim("Story Points"), Points(it.StoryPoints), manual(it.ManuallySetStoryPoints))
	fmt.Fprintf(&b, "%s  %s%s\n", Dim("Start"), OrDash(domain.FormatDate(it.StartDate)), manual(it.ManuallySetStart))
	fmt.Fprintf(&b, "%s  %s%s\n", Dim("Finish"), OrDash(domain.FormatDate(it.FinishDate)), manual(it.ManuallySetFinish))
	fmt.Fprintf(&b, "%s  %d", Dim("Duration (days)"), it.DurationDays)
	return RenderBox(it.Name(), b.String()) + "\n"
}

func nodeDetail(it domain.WorkItem) string {
	parts := []string{Points(it.StoryPoints) + " pts"}
	if it.StartDate != nil || it.FinishDate != nil {
		parts = append(parts, OrDash(domain.FormatDate(it.StartDate))+" → "+OrDash(domain.FormatDate(it.FinishDate)))
	}
	return strings.Join(parts, " · ")
}

// FormatTree renders the hierarchy with rolled-up points and date spans.
// Stub nodes, synthesized from stories whose parent was never declared, are
// dimmed.
func FormatTree(tree *domain.Tree) string {
	var items []TreeItem
	for _, e := range tree.Epics {
		items = append(items, TreeItem{
			Title:  e.Item.Epic,
			Kind:   e.Item.Type.Label(),
			State:  e.Item.State,
			Detail: nodeDetail(e.Item),
			Muted:  e.Stub,
		})
		children := len(e.Stories) + len(e.Features)
		n := 0
		for _, s := range e.Stories {
			n++
			items = append(items, TreeItem{
				Title: s.Name(), Kind: s.Type.Label(), Level: 1, IsLast: n == children,
				State: s.State, Detail: nodeDetail(s),
			})
		}
		for _, f := range e.Features {
			n++
			lastFeature := n == children
			items = append(items, TreeItem{
				Title: f.Item.Feature, Kind: f.Item.Type.Label(), Level: 1, IsLast: lastFeature,
				State: f.Item.State, Detail: nodeDetail(f.Item), Muted: f.Stub,
			})
			for i, s := range f.Stories {
				items = append(items, TreeItem{
					Title: s.Name(), Kind: s.Type.Label(), Level: 2, IsLast: i == len(f.Stories)-1,
					Parents: []bool{lastFeature}, State: s.State, Detail: nodeDetail(s),
				})
			}
		}
	}

	var b strings.Builder
	if len(items) == 0 {
		b.WriteString(Dim("No epics.") + "\n")
	} else {
		b.WriteString(RenderTree(items))
	}
	if len(tree.Standalone) > 0 {
		b.WriteString("\n" + Header("Tasks") + "\n")
		for _, t := range tree.Standalone {
			fmt.Fprintf(&b, "  %s %s\n", TypeBadge(t.Type.Label()), t.Name())
		}
	}
	if len(tree.Orphans) > 0 {
		b.WriteString("\n" + Header("Missing parent") + "\n")
		for _, o := range tree.Orphans {
			fmt.Fprintf(&b, "  %s %s %s\n", TypeBadge(o.Type.Label()), o.Name(),
				Dim(fmt.Sprintf("(epic %q, feature %q)", o.Epic, o.Feature)))
		}
	}
	return b.String()
}

// FormatImportReport summarises an import in one line plus warnings.
func FormatImportReport(label string, r importer.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s imported from %d rows", label, Bold(strconv.Itoa(r.Imported)), r.Rows)
	var extra []string
	if r.Skipped > 0 {
		extra = append(extra, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if r.Duplicates > 0 {
		extra = append(extra, fmt.Sprintf("%d duplicates dropped", r.Duplicates))
	}
	if r.BadDates > 0 {
		extra = append(extra, fmt.Sprintf("%d unreadable dates cleared", r.BadDates))
	}
	if len(extra) > 0 {
		b.WriteString(" (" + strings.Join(extra, ", ") + ")")
	}
	b.WriteString("\n")
	for _, w := range r.Warnings {
		b.WriteString("  " + Dim(w.Error()) + "\n")
	}
	return b.String()
}

// FormatStatus renders the storage status and collection size.
func FormatStatus(st service.Status) string {
	var b strings.Builder
	backend := StyleGreen.Render(string(st.Storage.Backend))
	if st.Storage.Banner != "" {
		backend = StyleYellow.Render(string(st.Storage.Backend))
	}
	fmt.Fprintf(&b, "%s  %s\n", Dim("Storage"), backend)
	cloud := "not configured"
	if st.Storage.CloudConfigured {
		cloud = "configured"
		if st.Storage.Breaker != "" {
			cloud += ", circuit " + st.Storage.Breaker
		}
	}
	fmt.Fprintf(&b, "%s  %s\n", Dim("Cloud"), cloud)
	fmt.Fprintf(&b, "%s  %d\n", Dim("Items"), st.Items)
	fmt.Fprintf(&b, "%s  %d", Dim("Revision"), st.Revision)
	out := RenderBox("Status", b.String()) + "\n"
	if st.Storage.Banner != "" {
		out += Warning(st.Storage.Banner) + "\n"
	}
	return out
}

// FormatHistory lists saved versions, newest first.
func FormatHistory(versions []service.Version) string {
	if len(versions) == 0 {
		return Dim("No earlier versions.") + "\n"
	}
	rows := make([][]string, len(versions))
	for i, v := range versions {
		rows[i] = []string{
			strconv.FormatInt(v.Revision, 10),
			strconv.Itoa(v.Items),
			v.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		}
	}
	return RenderTable([]string{"REVISION", "ITEMS", "REPLACED"}, rows, 0, 1)
}
