package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/cli/formatter"
)

func newStatusCmd(a *App) *cobra.Command {
	var project string
	var on *time.Time
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show portfolio health, or one project's stage breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if project != "" {
				id, err := a.projectID(ctx, project)
				if err != nil {
					return err
				}
				h, err := a.Status.ProjectHealth(ctx, id, on)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatHealth(h, a.Thresholds))
				return nil
			}

			req := app.NewStatusRequest()
			req.Today = on
			req.IncludeArchived = all
			resp, err := a.Status.GetStatus(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStatus(resp, a.Thresholds))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Show one project's stages")
	dateFlag(cmd.Flags(), &on, "on", "Evaluate as of this date")
	cmd.Flags().BoolVar(&all, "all", false, "Include archived projects")
	return cmd
}
