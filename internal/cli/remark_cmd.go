package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/service"
)

func newRemarkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remark",
		Short: "Project remarks with @mentions",
	}

	cmd.AddCommand(newRemarkAddCmd(app), newRemarkListCmd(app))
	return cmd
}

func newRemarkAddCmd(app *App) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "add PROJECT TEXT... | add PROJECT -",
		Short: "Add a markdown remark; '-' reads it from stdin",
		Args:  cobra.MinimumNArgs(2),
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
			body := strings.Join(args[1:], " ")
			if body == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading remark: %w", err)
				}
				body = string(data)
			}

			r, err := app.Remarks.Add(ctx, actor, service.RemarkRequest{
				ProjectID: id,
				StageCode: strings.ToUpper(stage),
				Body:      body,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added remark %s\n", formatter.TruncID(r.ID))
			if len(r.Mentions) > 0 {
				fmt.Fprintf(out, "Mentioned %s\n", strings.Join(r.Mentions, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&stage, "stage", "s", "", "Attach to a stage code")
	return cmd
}

func newRemarkListCmd(app *App) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List remarks, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.projectID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			remarks, err := app.Remarks.List(cmd.Context(), id, strings.ToUpper(stage))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRemarks(remarks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&stage, "stage", "s", "", "Only remarks on this stage")
	return cmd
}
