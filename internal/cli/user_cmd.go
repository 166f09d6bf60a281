package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/domain"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(newUserAddCmd(app), newUserListCmd(app), newUserUpdateCmd(app), newUserMentionsCmd(app))
	return cmd
}

func newUserAddCmd(app *App) *cobra.Command {
	var role, name, email string

	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Add a user; the first user must be an admin and needs no --as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// Bootstrapping has no acting user yet, so a failed lookup is
			// left for the service to judge.
			actor, _ := app.actor(ctx)
			u := &domain.User{
				Username:    args[0],
				DisplayName: name,
				Email:       email,
				Role:        domain.Role(strings.ToLower(role)),
			}
			if err := app.Users.Create(ctx, actor, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n", u.Role, u.Username, u.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(domain.RoleProjectOfficer), "admin, hod, project_officer or viewer")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default derived from the username)")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.List(cmd.Context(), !all)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUsers(users))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive users")
	return cmd
}

func newUserUpdateCmd(app *App) *cobra.Command {
	var role, name, email string
	var active bool

	cmd := &cobra.Command{
		Use:   "update USERNAME",
		Short: "Change a user's role, name, email or active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			u, err := app.Users.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("role") {
				u.Role = domain.Role(strings.ToLower(role))
			}
			if fs.Changed("name") {
				u.DisplayName = name
			}
			if fs.Changed("email") {
				u.Email = email
			}
			if fs.Changed("active") {
				u.Active = active
			}
			if err := app.Users.Update(ctx, actor, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", u.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "New role")
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().BoolVar(&active, "active", true, "Set the active flag")
	return cmd
}

func newUserMentionsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "mentions PREFIX",
		Short: "Suggest users to @mention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.MentionSearch(cmd.Context(), strings.TrimPrefix(args[0], "@"), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, u := range users {
				fmt.Fprintf(out, "@%s  %s\n", u.Username, formatter.Dim(u.DisplayName))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 8, "Maximum suggestions")
	return cmd
}
