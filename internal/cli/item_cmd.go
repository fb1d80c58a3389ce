package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/roadmap/internal/cli/formatter"
	"github.com/alexanderramin/roadmap/internal/domain"
)

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Manage work items",
	}
	cmd.AddCommand(
		newItemAddCmd(app),
		newItemListCmd(app),
		newItemShowCmd(app),
		newItemUpdateCmd(app),
		newItemDeleteCmd(app),
	)
	return cmd
}

// itemFlags are shared by item add and item update.
type itemFlags struct {
	typ, title, epic, feature, story string
	assignedTo, state, demo         string
	start, finish                   string
	points                          float64
}

func (f *itemFlags) register(fl *pflag.FlagSet) {
	fl.StringVar(&f.typ, "type", "", "Item type: epic, feature, story or task")
	fl.StringVar(&f.title, "title", "", "Title")
	fl.StringVar(&f.epic, "epic", "", "Epic name")
	fl.StringVar(&f.feature, "feature", "", "Feature name")
	fl.StringVar(&f.story, "story", "", "Story name")
	fl.StringVar(&f.assignedTo, "assigned-to", "", "Assignee")
	fl.StringVar(&f.state, "state", "", "Board state, e.g. New, Active, Done")
	fl.StringVar(&f.demo, "demo", "", "Demo notes")
	fl.StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD, M/D/YYYY or 26-Nov; empty clears)")
	fl.StringVar(&f.finish, "finish", "", "Finish date (same formats as --start)")
	fl.Float64Var(&f.points, "points", 0, "Story points")
}

func parseDateFlag(app *App, name, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d := domain.ParseDate(value, app.today())
	if d == nil {
		return nil, fmt.Errorf("invalid --%s date %q", name, value)
	}
	return d, nil
}

func (f *itemFlags) draft(app *App) (domain.WorkItem, error) {
	w := domain.WorkItem{
		Type:        domain.TypeStory,
		Title:       f.title,
		Epic:        f.epic,
		Feature:     f.feature,
		Story:       f.story,
		AssignedTo:  f.assignedTo,
		State:       f.state,
		Demo:        f.demo,
		StoryPoints: f.points,
	}
	if f.typ != "" {
		w.Type = domain.ParseItemType(f.typ)
	}
	if f.points < 0 {
		return w, fmt.Errorf("--points must not be negative")
	}
	var err error
	if w.StartDate, err = parseDateFlag(app, "start", f.start); err != nil {
		return w, err
	}
	if w.FinishDate, err = parseDateFlag(app, "finish", f.finish); err != nil {
		return w, err
	}
	w = domain.PinAggregates(w, f.points > 0)
	if w.Name() == "" {
		return w, fmt.Errorf("a --title or a name flag matching the type is required")
	}
	return w, nil
}

// patch builds a patch from the flags the user actually set.
func (f *itemFlags) patch(app *App, cmd *cobra.Command, release []string) (domain.Patch, error) {
	changed := cmd.Flags().Changed
	var p domain.Patch
	text := []struct {
		flag  string
		field domain.Field
		value string
	}{
		{"type", domain.FieldType, f.typ},
		{"title", domain.FieldTitle, f.title},
		{"epic", domain.FieldEpic, f.epic},
		{"feature", domain.FieldFeature, f.feature},
		{"story", domain.FieldStory, f.story},
		{"assigned-to", domain.FieldAssignedTo, f.assignedTo},
		{"state", domain.FieldState, f.state},
		{"demo", domain.FieldDemo, f.demo},
	}
	for _, t := range text {
		if changed(t.flag) {
			p = append(p, domain.SetText(t.field, t.value))
		}
	}
	if changed("start") {
		d, err := parseDateFlag(app, "start", f.start)
		if err != nil {
			return nil, err
		}
		p = append(p, domain.SetStartDate(d))
	}
	if changed("finish") {
		d, err := parseDateFlag(app, "finish", f.finish)
		if err != nil {
			return nil, err
		}
		p = append(p, domain.SetFinishDate(d))
	}
	if changed("points") {
		p = append(p, domain.SetStoryPoints(f.points))
	}
	for _, r := range release {
		field, ok := releasable[strings.ToLower(r)]
		if !ok {
			return nil, fmt.Errorf("--release accepts start, finish or points, got %q", r)
		}
		p = append(p, domain.ReleaseOverride(field))
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("nothing to update; pass at least one field flag")
	}
	return p, p.Validate()
}

var releasable = map[string]domain.Field{
	"start":  domain.FieldStartDate,
	"finish": domain.FieldFinishDate,
	"points": domain.FieldStoryPoints,
}

func newItemAddCmd(app *App) *cobra.Command {
	var (
		f           itemFlags
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				if !app.interactive() {
					return fmt.Errorf("--interactive needs a terminal")
				}
				if err := runItemForm(app, &f); err != nil {
					return err
				}
			}
			draft, err := f.draft(app)
			if err != nil {
				return err
			}
			added, err := app.Roadmap.Add(context.Background(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s [%s]\n", added.Type.Label(), formatter.Bold(added.Name()), formatter.TruncID(added.ID))
			return nil
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill in the item with a form")
	return cmd
}

func newItemListCmd(app *App) *cobra.Command {
	var typ, epic string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			items := app.Roadmap.List(context.Background())
			var filtered []domain.WorkItem
			for _, it := range items {
				if typ != "" && it.Type != domain.ParseItemType(typ) {
					continue
				}
				if epic != "" && !strings.EqualFold(it.Epic, epic) {
					continue
				}
				filtered = append(filtered, it)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItems(filtered))
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Only items of this type")
	cmd.Flags().StringVar(&epic, "epic", "", "Only items under this epic")
	return cmd
}

func newItemShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveItemID(ctx, app, args[0])
			if err != nil {
				return err
			}
			it, err := app.Roadmap.Get(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItem(it))
			return nil
		},
	}
}

func newItemUpdateCmd(app *App) *cobra.Command {
	var (
		f       itemFlags
		release []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a work item",
		Long: `Change fields of a work item. Only the flags given are changed.

Setting --start, --finish or --points on an epic or feature pins the value
against roll-ups; --release start|finish|points hands it back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			patch, err := f.patch(app, cmd, release)
			if err != nil {
				return err
			}
			id, err := resolveItemID(ctx, app, args[0])
			if err == nil {
				var updated domain.WorkItem
				updated, err = app.Roadmap.Update(ctx, id, patch)
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", formatter.Bold(updated.Name()))
					return nil
				}
			}
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.Warning(fmt.Sprintf("no work item %q; nothing changed", args[0])))
				return nil
			}
			return err
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&release, "release", nil, "Return start, finish or points to the roll-up")
	return cmd
}

func newItemDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a work item",
		Long:    "Delete a work item. Children stay and are listed as missing a parent.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveItemID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Roadmap.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", formatter.TruncID(id))
			return nil
		},
	}
}
