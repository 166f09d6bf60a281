package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/service"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Draft and approve plan versions",
	}

	cmd.AddCommand(
		newPlanDraftCmd(app),
		newPlanSubmitCmd(app),
		newPlanDecisionCmd(app, true),
		newPlanDecisionCmd(app, false),
		newPlanListCmd(app),
		newPlanShowCmd(app),
	)

	return cmd
}

// planRef resolves "PROJECT vN" or a plan version ID.
func planRef(cmd *cobra.Command, app *App, args []string) (string, error) {
	ctx := cmd.Context()
	if len(args) == 1 {
		return args[0], nil
	}
	id, err := app.projectID(ctx, args[0])
	if err != nil {
		return "", err
	}
	var version int
	if _, err := fmt.Sscanf(strings.ToLower(args[1]), "v%d", &version); err != nil {
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return "", fmt.Errorf("plan version %q must look like v3: %w", args[1], domain.ErrValidation)
		}
	}
	plans, err := app.Plans.List(ctx, id)
	if err != nil {
		return "", err
	}
	for _, v := range plans {
		if v.Version == version {
			return v.ID, nil
		}
	}
	return "", fmt.Errorf("plan v%d of %s: %w", version, args[0], domain.ErrNotFound)
}

func newPlanDraftCmd(app *App) *cobra.Command {
	var anchor *time.Time
	var durations map[string]int
	var skips []string

	cmd := &cobra.Command{
		Use:   "draft PROJECT",
		Short: "Derive a draft plan from an anchor date",
		Args:  cobra.ExactArgs(1),
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

			if anchor == nil && app.IsInteractive {
				input := ""
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Anchor date").Description("first working day of the plan").
						Placeholder("YYYY-MM-DD").Value(&input).Validate(validateOptionalDate),
				))
				if err := runForm(ctx, form); err != nil {
					return err
				}
				if input != "" {
					t, _ := domain.ParseDate(input)
					anchor = &t
				}
			}
			if anchor == nil {
				return fmt.Errorf("--anchor is required: %w", domain.ErrValidation)
			}

			req := service.DraftPlanRequest{ProjectID: id, Anchor: *anchor, Durations: map[string]int{}}
			for code, days := range durations {
				req.Durations[strings.ToUpper(code)] = days
			}
			for _, code := range skips {
				req.Skips = append(req.Skips, strings.ToUpper(code))
			}

			plan, err := app.Plans.CreateDraft(ctx, actor, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPlan(plan))
			return nil
		},
	}

	dateFlag(cmd.Flags(), &anchor, "anchor", "Plan anchor date")
	cmd.Flags().StringToIntVar(&durations, "duration", nil, "Working-day duration override, CODE=DAYS (repeatable)")
	cmd.Flags().StringSliceVar(&skips, "skip", nil, "Stage codes to skip")
	return cmd
}

func newPlanSubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit PROJECT VERSION | submit PLAN_ID",
		Short: "Submit a draft plan for approval",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.actor(cmd.Context())
			if err != nil {
				return err
			}
			id, err := planRef(cmd, app, args)
			if err != nil {
				return err
			}
			plan, err := app.Plans.Submit(cmd.Context(), actor, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted plan v%d for approval\n", plan.Version)
			return nil
		},
	}
}

func newPlanDecisionCmd(app *App, approve bool) *cobra.Command {
	var note string
	use, short := "approve", "Approve a pending plan and apply it to the stages"
	if !approve {
		use, short = "reject", "Reject a pending plan"
	}

	cmd := &cobra.Command{
		Use:   use + " PROJECT VERSION | " + use + " PLAN_ID",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := planRef(cmd, app, args)
			if err != nil {
				return err
			}
			var plan *domain.PlanVersion
			if approve {
				plan, err = app.Plans.Approve(ctx, actor, id, note)
			} else {
				plan, err = app.Plans.Reject(ctx, actor, id, note)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan v%d %s\n", plan.Version, formatter.PlanStatusPill(plan.Status))
			return nil
		},
	}

	cmd.Flags().StringVarP(&note, "note", "m", "", "Decision note (required to reject)")
	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List plan versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.projectID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			plans, err := app.Plans.List(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanList(plans))
			return nil
		},
	}
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT VERSION | show PLAN_ID",
		Short: "Show a plan version",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := planRef(cmd, app, args)
			if err != nil {
				return err
			}
			plan, err := app.Plans.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPlan(plan))
			return nil
		},
	}
}
