package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/config"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/httpapi"
	"github.com/alexanderramin/stagegate/internal/notify"
	"github.com/alexanderramin/stagegate/internal/scheduler"
	"github.com/alexanderramin/stagegate/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects      service.ProjectService
	Stages        service.StageService
	Plans         service.PlanService
	Status        service.StatusService
	Holidays      service.HolidayService
	Remarks       service.RemarkService
	Users         service.UserService
	Notifications service.NotificationService
	Documents     service.DocumentService
	IPR           service.IPRService
	Partners      service.PartnerService
	Audit         service.AuditService
	Exports       service.ExportService

	Config     *config.Config
	Thresholds scheduler.Thresholds
	Logger     *slog.Logger
	// Hub and Metrics are shared with the HTTP server started by serve.
	Hub     *notify.Hub
	Metrics *httpapi.Metrics

	// IsInteractive is true when stdin is a terminal; forms and
	// confirmations are only shown then.
	IsInteractive bool
	// ActAs is the default acting username from [cli] user.
	ActAs string

	// acting is ActAs or the --as override for the running command.
	acting string
}

// NewRootCmd creates the top-level "stagegate" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "stagegate",
		Short:         "Procurement project stage tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if app.Thresholds.RedSlipDays == 0 {
		app.Thresholds = scheduler.DefaultThresholds
	}

	// --config is consumed before the database opens; it is declared here
	// so cobra accepts it and lists it in help.
	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/stagegate/config.toml)")
	root.PersistentFlags().StringVar(&app.acting, "as", app.ActAs, "Acting username (default [cli] user)")

	root.AddCommand(
		newProjectCmd(app),
		newStageCmd(app),
		newPlanCmd(app),
		newHolidayCmd(app),
		newStatusCmd(app),
		newRemarkCmd(app),
		newNotifyCmd(app),
		newDocCmd(app),
		newIPRCmd(app),
		newPartnerCmd(app),
		newUserCmd(app),
		newExportCmd(app),
		newAuditCmd(app),
		newDashCmd(app),
		newServeCmd(app),
	)

	return root
}

// actor resolves the acting user from --as or [cli] user.
func (a *App) actor(ctx context.Context) (*domain.User, error) {
	if a.acting == "" {
		return nil, fmt.Errorf("no acting user: pass --as or set [cli] user in the config: %w", domain.ErrForbidden)
	}
	u, err := a.Users.Authenticate(ctx, a.acting)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown or inactive user %q: %w", a.acting, domain.ErrForbidden)
		}
		return nil, err
	}
	return u, nil
}

// projectID resolves a project ID or short ID argument.
func (a *App) projectID(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("project ID is required: %w", domain.ErrValidation)
	}
	p, err := a.Projects.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}
