package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/roadmap/internal/cli/formatter"
	"github.com/alexanderramin/roadmap/internal/domain"
)

func roadmapHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// validateOptionalDate accepts empty or any date format the importer reads.
func validateOptionalDate(today time.Time) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if domain.ParseDate(s, today) == nil {
			return fmt.Errorf("use YYYY-MM-DD, M/D/YYYY or 26-Nov")
		}
		return nil
	}
}

// validateNonNegativeNumber accepts empty or a number >= 0.
func validateNonNegativeNumber(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return fmt.Errorf("enter a non-negative number")
	}
	return nil
}

// runItemForm asks for the fields of a new item, starting from whatever
// flags were already given.
func runItemForm(app *App, f *itemFlags) error {
	typ := string(domain.TypeStory)
	if f.typ != "" {
		typ = string(domain.ParseItemType(f.typ))
	}
	name := domain.CoalesceStr(f.story, f.feature, f.title)
	points := ""
	if f.points > 0 {
		points = formatter.Points(f.points)
	}
	today := app.today()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("Epic", string(domain.TypeEpic)),
					huh.NewOption("Feature", string(domain.TypeFeature)),
					huh.NewOption("User Story", string(domain.TypeStory)),
					huh.NewOption("Task", string(domain.TypeTask)),
				).
				Value(&typ),
			huh.NewInput().Title("Epic").Value(&f.epic),
			huh.NewInput().Title("Feature").Description("Leave empty for epics, tasks and direct stories").Value(&f.feature),
			huh.NewInput().Title("Name").Description("Story or task title; the epic or feature name for those types").Value(&name),
		),
		huh.NewGroup(
			huh.NewInput().Title("Assigned To").Value(&f.assignedTo),
			huh.NewInput().Title("State").Placeholder(domain.DefaultState).Value(&f.state),
			huh.NewInput().Title("Story Points").Placeholder("0").Value(&points).Validate(validateNonNegativeNumber),
			huh.NewInput().Title("Start Date").Placeholder("2026-04-01").Value(&f.start).Validate(validateOptionalDate(today)),
			huh.NewInput().Title("Finish Date").Placeholder("2026-04-30").Value(&f.finish).Validate(validateOptionalDate(today)),
		),
	).WithTheme(roadmapHuhTheme()).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return err
	}

	f.typ = typ
	switch domain.ItemType(typ) {
	case domain.TypeEpic:
		f.epic = domain.CoalesceStr(name, f.epic)
	case domain.TypeFeature:
		f.feature = domain.CoalesceStr(name, f.feature)
	case domain.TypeStory:
		f.story = name
	default:
		f.title = name
	}
	if strings.TrimSpace(points) != "" {
		f.points, _ = strconv.ParseFloat(strings.TrimSpace(points), 64)
	}
	return nil
}
