package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/repository"
)

func newAuditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	cmd.AddCommand(newAuditListCmd(app))
	return cmd
}

func newAuditListCmd(app *App) *cobra.Command {
	var f repository.AuditFilter
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			if project != "" {
				id, err := app.projectID(ctx, project)
				if err != nil {
					return err
				}
				f.EntityType, f.EntityID = "project", id
			}
			events, err := app.Audit.List(ctx, actor, f)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAudit(events))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Only events on this project")
	cmd.Flags().StringVar(&f.EntityType, "entity", "", "Entity type, e.g. stage, plan, user")
	cmd.Flags().StringVar(&f.EntityID, "id", "", "Entity ID")
	cmd.Flags().StringVar(&f.Actor, "actor", "", "Acting username")
	cmd.Flags().IntVarP(&f.Limit, "limit", "n", 100, "Maximum events")
	return cmd
}
