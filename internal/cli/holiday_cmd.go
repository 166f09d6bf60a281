package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/holidayfile"
)

func newHolidayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holiday",
		Short: "Manage the holiday calendar",
	}

	cmd.AddCommand(
		newHolidayAddCmd(app),
		newHolidayRemoveCmd(app),
		newHolidayListCmd(app),
		newHolidayImportCmd(app),
	)

	return cmd
}

func newHolidayAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add DATE NAME...",
		Short: "Add a holiday",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			date, err := domain.ParseDate(args[0])
			if err != nil {
				return err
			}
			h := domain.Holiday{Date: date, Name: strings.Join(args[1:], " ")}
			if err := app.Holidays.Add(ctx, actor, h); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added holiday %s %s\n", date.Format(domain.DateLayout), h.Name)
			return nil
		},
	}
}

func newHolidayRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm DATE",
		Short: "Remove a holiday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			date, err := domain.ParseDate(args[0])
			if err != nil {
				return err
			}
			if err := app.Holidays.Remove(ctx, actor, date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed holiday %s\n", date.Format(domain.DateLayout))
			return nil
		},
	}
}

func newHolidayListCmd(app *App) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List holidays for a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = time.Now().Year()
			}
			holidays, err := app.Holidays.List(cmd.Context(), year)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHolidays(holidays))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Calendar year (default current year)")
	return cmd
}

func newHolidayImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import holidays from a TOML file",
		Long: "Import holidays from a TOML file of [[holiday]] tables with date and name keys.\n" +
			"Existing dates are renamed; nothing is removed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			holidays, err := holidayfile.Load(args[0])
			if err != nil {
				return err
			}
			n, err := app.Holidays.Import(ctx, actor, holidays)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d holidays from %s\n", n, args[0])
			return nil
		},
	}
}
