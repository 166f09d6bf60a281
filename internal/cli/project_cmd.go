package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/domain"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectUpdateCmd(app),
		newProjectArchiveCmd(app, true),
		newProjectArchiveCmd(app, false),
		newProjectRemoveCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var f projectForm
	var start *time.Time

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project with the standard stage list",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			if start != nil {
				f.Start = start.Format(domain.DateLayout)
			}
			if app.IsInteractive && (f.ShortID == "" || f.Name == "") {
				if err := runForm(ctx, f.form()); err != nil {
					return err
				}
			}

			budget, err := parseMoney(f.Budget)
			if err != nil {
				return err
			}
			p := &domain.Project{
				ShortID:  strings.ToUpper(strings.TrimSpace(f.ShortID)),
				Name:     f.Name,
				Sponsor:  strings.TrimSpace(f.Sponsor),
				Category: strings.TrimSpace(f.Category),
				Budget:   budget,
			}
			if f.Start != "" {
				if p.StartDate, err = domain.ParseDate(f.Start); err != nil {
					return err
				}
			}
			if err := app.Projects.Create(ctx, actor, p); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s [%s]\n", p.Name, p.ShortID)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.ShortID, "id", "", "Short ID (3-6 uppercase letters + 2-4 digits, e.g. RAD01)")
	cmd.Flags().StringVar(&f.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&f.Sponsor, "sponsor", "", "Sponsoring unit")
	cmd.Flags().StringVar(&f.Category, "category", "", "Procurement category")
	cmd.Flags().StringVar(&f.Budget, "budget", "", "Sanctioned budget, e.g. 1500000.00")
	dateFlag(cmd.Flags(), &start, "start", "Start date; defaults to today")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(projects))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived projects")
	return cmd
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT",
		Short: "Show a project and its stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			stages, err := app.Stages.List(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectDetail(p, stages))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var name, sponsor, category, budget, status string
	var start *time.Time
	var rowVersion int

	cmd := &cobra.Command{
		Use:   "update PROJECT",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = name
			}
			if flags.Changed("sponsor") {
				p.Sponsor = sponsor
			}
			if flags.Changed("category") {
				p.Category = category
			}
			if flags.Changed("budget") {
				if p.Budget, err = parseMoney(budget); err != nil {
					return err
				}
			}
			if flags.Changed("status") {
				p.Status = domain.ProjectStatus(strings.ToLower(status))
			}
			if start != nil {
				p.StartDate = *start
			}
			if flags.Changed("row-version") {
				p.RowVersion = rowVersion
			}

			if err := app.Projects.Update(ctx, actor, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s (version %d)\n", p.DisplayID(), p.RowVersion)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&sponsor, "sponsor", "", "New sponsor")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	cmd.Flags().StringVar(&budget, "budget", "", "New budget")
	cmd.Flags().StringVar(&status, "status", "", "New status (active, on_hold, closed)")
	dateFlag(cmd.Flags(), &start, "start", "New start date")
	cmd.Flags().IntVar(&rowVersion, "row-version", 0, "Expected row version; fails on mismatch")
	return cmd
}

func newProjectArchiveCmd(app *App, archive bool) *cobra.Command {
	use, short, verb := "archive", "Archive a project", "Archived"
	if !archive {
		use, short, verb = "unarchive", "Restore an archived project", "Unarchived"
	}

	return &cobra.Command{
		Use:   use + " PROJECT",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if archive {
				err = app.Projects.Archive(ctx, actor, p.ID)
			} else {
				err = app.Projects.Unarchive(ctx, actor, p.ID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s project %s\n", verb, p.DisplayID())
			return nil
		},
	}
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "rm PROJECT",
		Short: "Delete an archived project and all its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			p, err := app.Projects.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := app.confirm(ctx, fmt.Sprintf("Delete %s %q and all its stages, plans and remarks?", p.DisplayID(), p.Name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			if err := app.Projects.Delete(ctx, actor, p.ID, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", p.DisplayID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete even if the project is not archived")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
