package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/service"
)

func newStageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "List stages and move them through their lifecycle",
	}

	cmd.AddCommand(newStageListCmd(app))
	for _, t := range []struct {
		action service.StageAction
		short  string
	}{
		{service.StageStart, "Start a stage"},
		{service.StageComplete, "Mark a stage complete"},
		{service.StageSkip, "Skip a stage"},
		{service.StageBlock, "Mark a stage blocked"},
		{service.StageReopen, "Reopen a completed or skipped stage"},
	} {
		cmd.AddCommand(newStageTransitionCmd(app, t.action, t.short))
	}

	return cmd
}

func newStageListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List a project's stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := app.projectID(ctx, args[0])
			if err != nil {
				return err
			}
			stages, err := app.Stages.List(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStageList(stages))
			return nil
		},
	}
}

func newStageTransitionCmd(app *App, action service.StageAction, short string) *cobra.Command {
	var on *time.Time
	var rowVersion int

	cmd := &cobra.Command{
		Use:   string(action) + " PROJECT CODE",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := app.projectID(ctx, args[0])
			if err != nil {
				return err
			}
			req := service.StageTransitionRequest{
				ProjectID:  id,
				Code:       strings.ToUpper(args[1]),
				Action:     action,
				RowVersion: rowVersion,
			}
			if on != nil {
				req.On = *on
			}
			stage, err := app.Stages.Transition(ctx, actor, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s  forecast due %s\n",
				formatter.Bold(stage.Code), stage.Name, formatter.StageStatusPill(stage.Status), formatter.Date(stage.ForecastDue))
			return nil
		},
	}

	dateFlag(cmd.Flags(), &on, "on", "Effective date; defaults to today")
	cmd.Flags().IntVar(&rowVersion, "row-version", 0, "Expected stage row version; fails on mismatch")
	return cmd
}
