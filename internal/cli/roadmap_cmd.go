package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/roadmap/internal/cli/formatter"
)

func newTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the epic, feature and story hierarchy with roll-ups",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTree(app.Roadmap.Tree(context.Background())))
			return nil
		},
	}
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Replace the roadmap with the rows of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			report, err := app.Roadmap.ImportCSV(context.Background(), f)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatImportReport("Roadmap", *report))
			return nil
		},
	}
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

func newExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Export the roadmap as CSV (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := app.Roadmap.ExportCSV(context.Background(), &buf); err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return writeOutput(cmd, path, buf.Bytes())
		},
	}
}

func newWorkbookCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workbook",
		Short: "Exchange the roadmap and resourcing plans as an xlsx workbook",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "export <file.xlsx>",
			Short: "Write the Roadmap, Personnel and Hardware sheets",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var buf bytes.Buffer
				if err := app.Roadmap.ExportWorkbook(context.Background(), &buf); err != nil {
					return err
				}
				return writeOutput(cmd, args[0], buf.Bytes())
			},
		},
		&cobra.Command{
			Use:   "import <file.xlsx>",
			Short: "Replace the roadmap and resourcing plans from a workbook",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()

				report, err := app.Roadmap.ImportWorkbook(context.Background(), f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, formatter.FormatImportReport("Roadmap", report.Roadmap))
				if report.Personnel.Rows > 0 {
					fmt.Fprint(out, formatter.FormatImportReport("Personnel", report.Personnel))
				}
				if report.Hardware.Rows > 0 {
					fmt.Fprint(out, formatter.FormatImportReport("Hardware", report.Hardware))
				}
				return nil
			},
		},
	)
	return cmd
}

func newDedupeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Remove repeated items, keeping the most complete of each",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := app.Roadmap.Dedupe(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate(s)\n", removed)
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the roadmap is stored and how large it is",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStatus(app.Roadmap.Status(context.Background())))
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List earlier saved versions of the roadmap",
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := app.Roadmap.History(context.Background(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(versions))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of versions to show (default all kept)")
	return cmd
}

func newUndoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the version replaced by the last change",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Roadmap.Undo(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored revision %d (%d items)\n", v.Revision, v.Items)
			return nil
		},
	}
}

func newReportCmd(app *App) *cobra.Command {
	var (
		html bool
		out  string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise the roadmap as Markdown or HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if !html {
				return writeOutput(cmd, out, []byte(app.Reports.Markdown(ctx)))
			}
			page, err := app.Reports.HTML(ctx)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, []byte(page))
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of Markdown")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
