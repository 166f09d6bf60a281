package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/stagegate/internal/catalog"
	"github.com/alexanderramin/stagegate/internal/cli"
	"github.com/alexanderramin/stagegate/internal/config"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/httpapi"
	"github.com/alexanderramin/stagegate/internal/logging"
	"github.com/alexanderramin/stagegate/internal/markdown"
	"github.com/alexanderramin/stagegate/internal/notify"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/scheduler"
	"github.com/alexanderramin/stagegate/internal/service"
	"github.com/alexanderramin/stagegate/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootFlags picks out the flags needed before the database opens. Every
// other flag is left for cobra.
func bootFlags(args []string) (configPath string, serving bool) {
	fs := pflag.NewFlagSet("boot", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.BoolP("help", "h", false, "")
	fs.StringVar(&configPath, "config", "", "")
	_ = fs.Parse(args)
	if rest := fs.Args(); len(rest) > 0 {
		serving = rest[0] == "serve"
	}
	return configPath, serving
}

func run() error {
	configPath, serving := bootFlags(os.Args[1:])
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// One-shot commands only surface warnings; serve logs at the
	// configured level.
	logCfg := cfg.Logging
	if !serving && logging.ParseLevel(logCfg.Level) < slog.LevelWarn {
		logCfg.Level = "warn"
	}
	logger := logging.New(logCfg, os.Stderr)
	slog.SetDefault(logger)

	database, err := db.OpenDB(cfg.Paths.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	stageCatalog, err := catalog.Load(cfg.Paths.CatalogFile)
	if err != nil {
		return err
	}
	weekend, err := cfg.Weekend()
	if err != nil {
		return err
	}
	blobs, err := storage.NewBlobStore(cfg.Paths.DocumentsDir, cfg.MaxUploadBytes())
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	thresholds := scheduler.Thresholds{
		RedSlipDays:     cfg.Health.RedThresholdDays,
		AmberWindowDays: cfg.Health.AmberWindowDays,
	}

	// Wire repositories
	projectRepo := repository.NewSQLiteProjectRepo(database)
	stageRepo := repository.NewSQLiteStageRepo(database)
	holidayRepo := repository.NewSQLiteHolidayRepo(database)
	userRepo := repository.NewSQLiteUserRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	hub := notify.NewHub(16, logger)
	defer hub.Close()
	publisher := notify.NewFanout(hub, notify.NewNtfy(cfg.Notifications.NtfyURL, cfg.NotificationTimeout(), logger))
	metrics := httpapi.NewMetrics()
	observers := []service.UseCaseObserver{service.NewLogUseCaseObserver(logger), metrics}
	calendars := service.NewCalendarBuilder(weekend)

	status := service.NewStatusService(projectRepo, stageRepo, holidayRepo, calendars, thresholds, observers...)
	app := &cli.App{
		Projects:      service.NewProjectService(projectRepo, stageCatalog, uow, observers...),
		Stages:        service.NewStageService(stageRepo, calendars, publisher, uow, observers...),
		Plans:         service.NewPlanService(repository.NewSQLitePlanRepo(database), calendars, publisher, uow, observers...),
		Status:        status,
		Holidays:      service.NewHolidayService(holidayRepo, uow, observers...),
		Remarks:       service.NewRemarkService(repository.NewSQLiteRemarkRepo(database), markdown.NewRenderer(), publisher, uow, observers...),
		Users:         service.NewUserService(userRepo, uow, observers...),
		Notifications: service.NewNotificationService(repository.NewSQLiteNotificationRepo(database), publisher, thresholds.AmberWindowDays, uow, observers...),
		Documents:     service.NewDocumentService(repository.NewSQLiteDocumentRepo(database), blobs, uow, observers...),
		IPR:           service.NewIPRService(repository.NewSQLiteIPRRepo(database), uow),
		Partners:      service.NewPartnerService(repository.NewSQLitePartnerRepo(database), uow),
		Audit:         service.NewAuditService(repository.NewSQLiteAuditRepo(database)),
		Exports:       service.NewExportService(status, observers...),

		Config:     cfg,
		Thresholds: thresholds,
		Logger:     logger,
		Hub:        hub,
		Metrics:    metrics,
		ActAs:      cfg.CLI.User,
	}

	// Forms and confirmations need a terminal on stdin.
	app.IsInteractive = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(context.Background())
}
