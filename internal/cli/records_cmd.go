package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/cli/formatter"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
)

// iprFlags holds the editable fields shared by ipr add and ipr update.
type iprFlags struct {
	project, title, kind, status, filing string
	filed                                *time.Time
	inventors                            []string
}

func (f *iprFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.project, "project", "p", "", "Linked project")
	fs.StringVar(&f.title, "title", "", "Title of the invention or work")
	fs.StringVar(&f.kind, "kind", "patent", "patent, design, copyright or trademark")
	fs.StringVar(&f.status, "status", "", "drafted, filed, published, granted, rejected or abandoned")
	fs.StringVar(&f.filing, "filing", "", "Filing or application number")
	dateFlag(fs, &f.filed, "filed", "Filing date")
	fs.StringSliceVar(&f.inventors, "inventor", nil, "Inventor name (repeatable)")
}

// apply copies the flags the user set onto r.
func (f *iprFlags) apply(cmd *cobra.Command, app *App, r *domain.IPRRecord) error {
	fs := cmd.Flags()
	if fs.Changed("project") {
		r.ProjectID = ""
		if f.project != "" {
			id, err := app.projectID(cmd.Context(), f.project)
			if err != nil {
				return err
			}
			r.ProjectID = id
		}
	}
	if fs.Changed("title") {
		r.Title = f.title
	}
	if fs.Changed("kind") || r.Kind == "" {
		r.Kind = domain.IPRKind(strings.ToLower(f.kind))
	}
	if fs.Changed("status") {
		r.Status = domain.IPRStatus(strings.ToLower(f.status))
	}
	if fs.Changed("filing") {
		r.FilingNumber = f.filing
	}
	if f.filed != nil {
		r.FiledOn = f.filed
	}
	if fs.Changed("inventor") {
		r.Inventors = f.inventors
	}
	return nil
}

func newIPRCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipr",
		Short: "Intellectual property register",
	}

	cmd.AddCommand(newIPRAddCmd(app), newIPRListCmd(app), newIPRUpdateCmd(app))
	return cmd
}

func newIPRAddCmd(app *App) *cobra.Command {
	var f iprFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an IPR record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			r := &domain.IPRRecord{}
			if err := f.apply(cmd, app, r); err != nil {
				return err
			}
			if err := app.IPR.Create(ctx, actor, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s %q as %s\n", r.Kind, r.Title, formatter.TruncID(r.ID))
			return nil
		},
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newIPRListCmd(app *App) *cobra.Command {
	var project, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List IPR records",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repository.IPRFilter{Status: domain.IPRStatus(strings.ToLower(status))}
			if project != "" {
				id, err := app.projectID(cmd.Context(), project)
				if err != nil {
					return err
				}
				filter.ProjectID = id
			}
			records, err := app.IPR.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatIPR(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Only records linked to this project")
	cmd.Flags().StringVar(&status, "status", "", "Only records in this status")
	return cmd
}

func newIPRUpdateCmd(app *App) *cobra.Command {
	var f iprFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an IPR record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			all, err := app.IPR.List(ctx, repository.IPRFilter{})
			if err != nil {
				return err
			}
			ids := make([]string, len(all))
			for i, r := range all {
				ids[i] = r.ID
			}
			id, err := matchPrefix("IPR record", args[0], ids)
			if err != nil {
				return err
			}
			r, err := app.IPR.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, app, r); err != nil {
				return err
			}
			if err := app.IPR.Update(ctx, actor, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q (%s)\n", r.Title, r.Status)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

type partnerFlags struct {
	name, city, contact, email string
	domains                    []string
	inactive                   bool
}

func (f *partnerFlags) register(cmd *cobra.Command, withActive bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Company name")
	fs.StringVar(&f.city, "city", "", "City")
	fs.StringVar(&f.contact, "contact", "", "Contact person")
	fs.StringVar(&f.email, "email", "", "Contact email")
	fs.StringSliceVar(&f.domains, "domain", nil, "Technology domain (repeatable)")
	if withActive {
		fs.BoolVar(&f.inactive, "inactive", false, "Mark the partner inactive")
	}
}

func (f *partnerFlags) apply(cmd *cobra.Command, p *domain.IndustryPartner) {
	fs := cmd.Flags()
	if fs.Changed("name") {
		p.Name = f.name
	}
	if fs.Changed("city") {
		p.City = f.city
	}
	if fs.Changed("contact") {
		p.ContactPerson = f.contact
	}
	if fs.Changed("email") {
		p.ContactEmail = f.email
	}
	if fs.Changed("domain") {
		p.Domains = f.domains
	}
	if fs.Lookup("inactive") != nil && fs.Changed("inactive") {
		p.Active = !f.inactive
	}
}

func newPartnerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partner",
		Short: "Industry partner register",
	}

	cmd.AddCommand(newPartnerAddCmd(app), newPartnerListCmd(app), newPartnerUpdateCmd(app))
	return cmd
}

func newPartnerAddCmd(app *App) *cobra.Command {
	var f partnerFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an industry partner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			p := &domain.IndustryPartner{Active: true}
			f.apply(cmd, p)
			if err := app.Partners.Create(ctx, actor, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered partner %s as %s\n", p.Name, formatter.TruncID(p.ID))
			return nil
		},
	}

	f.register(cmd, false)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPartnerListCmd(app *App) *cobra.Command {
	var all bool
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List industry partners",
		RunE: func(cmd *cobra.Command, args []string) error {
			partners, err := app.Partners.List(cmd.Context(), repository.PartnerFilter{ActiveOnly: !all, Search: search})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPartners(partners))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive partners")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Match name, city or domain")
	return cmd
}

func newPartnerUpdateCmd(app *App) *cobra.Command {
	var f partnerFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an industry partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := app.actor(ctx)
			if err != nil {
				return err
			}
			all, err := app.Partners.List(ctx, repository.PartnerFilter{})
			if err != nil {
				return err
			}
			ids := make([]string, len(all))
			for i, p := range all {
				ids[i] = p.ID
			}
			id, err := matchPrefix("partner", args[0], ids)
			if err != nil {
				return err
			}
			p, err := app.Partners.Get(ctx, id)
			if err != nil {
				return err
			}
			f.apply(cmd, p)
			if err := app.Partners.Update(ctx, actor, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated partner %s\n", p.Name)
			return nil
		},
	}

	f.register(cmd, true)
	return cmd
}
