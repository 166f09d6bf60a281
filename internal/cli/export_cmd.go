package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/export"
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stage sheets and the portfolio",
	}

	cmd.AddCommand(newExportStagesCmd(app), newExportPortfolioCmd(app))
	return cmd
}

// exportTarget picks the format from --format, else from the --out
// extension, else CSV.
func exportTarget(format, out string) (export.Format, error) {
	switch {
	case format != "":
		return export.ParseFormat(format)
	case out != "" && out != "-" && filepath.Ext(out) != "":
		return export.ParseFormat(filepath.Ext(out))
	}
	return export.FormatCSV, nil
}

// writeExport renders into memory first so a failed export leaves no
// partial file behind.
func writeExport(cmd *cobra.Command, out string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if out == "" || out == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
	return nil
}

func newExportStagesCmd(app *App) *cobra.Command {
	var format, out string
	var on *time.Time

	cmd := &cobra.Command{
		Use:   "stages PROJECT",
		Short: "Export one project's stage sheet",
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
			f, err := exportTarget(format, out)
			if err != nil {
				return err
			}
			return writeExport(cmd, out, func(w io.Writer) error {
				return app.Exports.StageSheet(ctx, actor, id, on, f, w)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "csv, md, xlsx or pdf (default from --out, else csv)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	dateFlag(cmd.Flags(), &on, "on", "Evaluate as of this date")
	return cmd
}

func newExportPortfolioCmd(app *App) *cobra.Command {
	var format, out string
	var on *time.Time

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Export every active project's health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			f, err := exportTarget(format, out)
			if err != nil {
				return err
			}
			return writeExport(cmd, out, func(w io.Writer) error {
				return app.Exports.Portfolio(ctx, actor, on, f, w)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "csv, md, xlsx or pdf (default from --out, else csv)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	dateFlag(cmd.Flags(), &on, "on", "Evaluate as of this date")
	return cmd
}
