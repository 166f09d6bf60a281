// Package httpapi serves the JSON API, websocket notification push and
// Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alexanderramin/stagegate/internal/notify"
	"github.com/alexanderramin/stagegate/internal/service"
)

// Services are the use cases the API exposes.
type Services struct {
	Projects      service.ProjectService
	Stages        service.StageService
	Plans         service.PlanService
	Status        service.StatusService
	Holidays      service.HolidayService
	Remarks       service.RemarkService
	Users         service.UserService
	Notifications service.NotificationService
	Exports       service.ExportService
}

type Options struct {
	Bind         string
	APIToken     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	svc     Services
	users   service.UserService
	hub     *notify.Hub
	metrics *Metrics
	logger  *slog.Logger
	opts    Options
	handler http.Handler
}

// New wires the routes. hub and metrics may be nil, which disables the
// websocket and /metrics endpoints.
func New(svc Services, hub *notify.Hub, metrics *Metrics, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		svc:     svc,
		users:   svc.Users,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With("component", "api-server"),
		opts:    opts,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireToken(s.opts.APIToken, s.requireUser(h)))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", requireToken(s.opts.APIToken, s.metrics.Handler()))
	}

	api("GET /api/status", s.handleStatus)
	api("GET /api/export/{file}", s.handlePortfolioExport)

	api("GET /api/projects", s.handleListProjects)
	api("POST /api/projects", s.handleCreateProject)
	api("GET /api/projects/{id}", s.handleGetProject)
	api("PATCH /api/projects/{id}", s.handleUpdateProject)
	api("GET /api/projects/{id}/stages", s.handleListStages)
	api("POST /api/projects/{id}/stages/{code}/{action}", s.handleStageTransition)
	api("GET /api/projects/{id}/health", s.handleProjectHealth)
	api("GET /api/projects/{id}/plans", s.handleListPlans)
	api("POST /api/projects/{id}/plans", s.handleDraftPlan)
	api("GET /api/projects/{id}/remarks", s.handleListRemarks)
	api("POST /api/projects/{id}/remarks", s.handleAddRemark)
	api("GET /api/projects/{id}/{file}", s.handleStageExport)
	api("GET /api/plans/{id}", s.handleGetPlan)
	api("POST /api/plans/{id}/{action}", s.handlePlanDecision)

	api("GET /api/users/mentions", s.handleMentions)
	api("GET /api/notifications", s.handleListNotifications)
	api("POST /api/notifications/read-all", s.handleReadAllNotifications)
	api("POST /api/notifications/{id}/read", s.handleReadNotification)
	if s.hub != nil {
		api("GET /api/notifications/ws", s.handleNotificationStream)
	}
	api("GET /api/holidays", s.handleListHolidays)
	api("POST /api/holidays", s.handleAddHoliday)

	var h http.Handler = mux
	if s.metrics != nil {
		h = s.metrics.instrument(h)
	}
	return s.logRequests(h)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address until ctx ends, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	s.logger.Info("api server listening", "address", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}
	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	<-errCh
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
