package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a tree display.
type TreeItem struct {
	Title  string
	Kind   string // item type label, e.g. "Feature"
	Level  int
	IsLast bool
	// Parents records, per ancestor level, whether that ancestor was the
	// last of its siblings, so its connector column can be left blank.
	Parents []bool
	State   string
	Detail  string
	Muted   bool
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders items as an indented tree using box-drawing
// connectors. Detail badges are aligned in a column to the right.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type line struct {
		content string
		badge   string
	}
	lines := make([]line, len(items))
	widest := 0

	for idx, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			for i := 1; i < item.Level; i++ {
				if i-1 < len(item.Parents) && item.Parents[i-1] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		title := item.Title
		if item.Muted {
			title = Dim(title)
		} else if item.Level == 0 {
			title = Bold(title)
		}
		content := StyleDim.Render(prefix.String())
		if item.Kind != "" {
			content += TypeBadge(item.Kind) + " "
		}
		content += title
		if item.State != "" {
			content += " " + StateStyle(item.State).Render("("+item.State+")")
		}
		lines[idx].content = content
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render("[ " + item.Detail + " ]")
		}
		widest = max(widest, lipgloss.Width(content))
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := max(widest-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}
