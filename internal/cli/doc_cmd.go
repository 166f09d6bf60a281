package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
)

func newDocCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Project document repository",
	}

	cmd.AddCommand(
		newDocUploadCmd(app),
		newDocListCmd(app),
		newDocGetCmd(app),
		newDocRemoveCmd(app),
	)
	return cmd
}

func newDocUploadCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload PROJECT FILE",
		Short: "Upload a file to a project",
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
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening upload: %w", err)
			}
			defer f.Close()
			if name == "" {
				name = filepath.Base(args[1])
			}

			doc, err := app.Documents.Upload(ctx, actor, id, name, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s) as %s\n", doc.FileName, formatter.ByteSize(doc.SizeBytes), formatter.TruncID(doc.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Stored file name (default the file's base name)")
	return cmd
}

func newDocListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List a project's documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.projectID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			docs, err := app.Documents.List(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDocuments(docs))
			return nil
		},
	}
}

func newDocGetCmd(app *App) *cobra.Command {
	var out, project string

	cmd := &cobra.Command{
		Use:   "get DOC_ID",
		Short: "Download a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.documentID(cmd, project, args[0])
			if err != nil {
				return err
			}
			rc, doc, err := app.Documents.Open(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer rc.Close()

			if out == "" {
				out = doc.FileName
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			n, err := io.Copy(w, rc)
			if err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			if out != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, formatter.ByteSize(n))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, '-' for stdout (default the stored name)")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Limit ID lookup to one project")
	return cmd
}

func newDocRemoveCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "rm DOC_ID",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			id, err := app.documentID(cmd, project, args[0])
			if err != nil {
				return err
			}
			if err := app.Documents.Delete(ctx, actor, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted document %s\n", formatter.TruncID(id))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Limit ID lookup to one project")
	return cmd
}
