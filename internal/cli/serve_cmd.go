package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/stagegate/internal/holidayfile"
	"github.com/alexanderramin/stagegate/internal/httpapi"
	"github.com/alexanderramin/stagegate/internal/service"
)

func newServeCmd(app *App) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, holiday file watcher and reminder sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				return errors.New("serve needs a loaded configuration")
			}
			cfg := app.Config
			if bind != "" {
				cfg.Server.Bind = bind
			}
			logger := app.Logger
			if logger == nil {
				logger = slog.Default()
			}

			if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
				return fmt.Errorf("creating data dir: %w", err)
			}
			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire server lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another stagegate server holds %s", cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("release server lock", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			metrics := app.Metrics
			if metrics == nil {
				metrics = httpapi.NewMetrics()
			}
			if err := metrics.WatchPortfolio(app.Status, logger); err != nil {
				return err
			}
			srv := httpapi.New(httpapi.Services{
				Projects:      app.Projects,
				Stages:        app.Stages,
				Plans:         app.Plans,
				Status:        app.Status,
				Holidays:      app.Holidays,
				Remarks:       app.Remarks,
				Users:         app.Users,
				Notifications: app.Notifications,
				Exports:       app.Exports,
			}, app.Hub, metrics, logger, httpapi.Options{
				Bind:         cfg.Server.Bind,
				APIToken:     cfg.Server.APIToken,
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
			})

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx) })
			if cfg.Paths.HolidayFile != "" {
				w := holidayfile.NewWatcher(cfg.Paths.HolidayFile, app.Holidays, logger)
				g.Go(func() error { return w.Run(ctx) })
			}
			if every := cfg.ReminderInterval(); every > 0 {
				g.Go(func() error { return runReminders(ctx, app.Notifications, every, logger) })
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default [server] bind)")
	return cmd
}

// runReminders sweeps once at start and then on every tick. Sweep errors
// are logged; the next tick retries.
func runReminders(ctx context.Context, notifications service.NotificationService, every time.Duration, logger *slog.Logger) error {
	sweep := func() {
		n, err := notifications.SweepDueSoon(ctx, time.Now().UTC())
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("due-soon sweep failed", "error", err)
			}
			return
		}
		if n > 0 {
			logger.Info("due-soon reminders sent", "count", n)
		}
	}

	sweep()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}
