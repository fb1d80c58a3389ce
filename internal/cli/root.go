package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/roadmap/internal/cli/formatter"
	"github.com/alexanderramin/roadmap/internal/config"
	"github.com/alexanderramin/roadmap/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Roadmap    service.RoadmapService
	Resourcing service.ResourcingService
	Reports    service.ReportService

	Server config.Server
	Logger *slog.Logger

	// IsInteractive reports whether stdin is a terminal. Interactive
	// prompts are refused when it returns false.
	IsInteractive func() bool
	// Now resolves dates written without a year. Defaults to time.Now.
	Now func() time.Time
}

func (a *App) today() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "roadmap" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "roadmap",
		Short:         "Plan epics, features and stories with roll-ups and spreadsheet exchange",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if banner := app.Roadmap.Status(context.Background()).Storage.Banner; banner != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.Warning(banner))
			}
		},
	}

	root.AddCommand(
		newItemCmd(app),
		newTreeCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newWorkbookCmd(app),
		newDedupeCmd(app),
		newResourcingCmd(app),
		newReportCmd(app),
		newStatusCmd(app),
		newHistoryCmd(app),
		newUndoCmd(app),
		newServeCmd(app),
	)

	return root
}
