package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/roadmap/internal/cli/formatter"
)

func newResourcingCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resourcing",
		Short: "Personnel and hardware plans",
	}

	var year string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the personnel and hardware tables with totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			personnel, err := app.Resourcing.Personnel(ctx)
			if err != nil {
				return err
			}
			hardware, err := app.Resourcing.Hardware(ctx)
			if err != nil {
				return err
			}
			var years []string
			if year != "" {
				years = []string{year}
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatPersonnel(personnel, years...))
			fmt.Fprint(out, formatter.FormatHardware(hardware, years...))
			return nil
		},
	}
	show.Flags().StringVar(&year, "year", "", "Only this year or fiscal year, e.g. 2026 or FY26")

	cmd.AddCommand(show)
	return cmd
}
