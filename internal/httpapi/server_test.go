package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/catalog"
	"github.com/alexanderramin/stagegate/internal/markdown"
	"github.com/alexanderramin/stagegate/internal/notify"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/scheduler"
	"github.com/alexanderramin/stagegate/internal/service"
	"github.com/alexanderramin/stagegate/internal/testutil"
)

type fixture struct {
	handler http.Handler
	hub     *notify.Hub
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	ctx := context.Background()

	users := repository.NewSQLiteUserRepo(database)
	for _, u := range testutil.StandardUsers() {
		require.NoError(t, users.Create(ctx, u))
	}

	hub := notify.NewHub(8, nil)
	t.Cleanup(hub.Close)
	metrics := NewMetrics()
	calendars := service.NewCalendarBuilder(nil)
	projects := repository.NewSQLiteProjectRepo(database)
	stages := repository.NewSQLiteStageRepo(database)
	holidays := repository.NewSQLiteHolidayRepo(database)

	status := service.NewStatusService(projects, stages, holidays, calendars, scheduler.DefaultThresholds, metrics)
	svc := Services{
		Projects:      service.NewProjectService(projects, catalog.Default(), uow, metrics),
		Stages:        service.NewStageService(stages, calendars, hub, uow, metrics),
		Plans:         service.NewPlanService(repository.NewSQLitePlanRepo(database), calendars, hub, uow, metrics),
		Status:        status,
		Holidays:      service.NewHolidayService(holidays, uow, metrics),
		Remarks:       service.NewRemarkService(repository.NewSQLiteRemarkRepo(database), markdown.NewRenderer(), hub, uow, metrics),
		Users:         service.NewUserService(users, uow, metrics),
		Notifications: service.NewNotificationService(repository.NewSQLiteNotificationRepo(database), hub, 2, uow, metrics),
		Exports:       service.NewExportService(status, metrics),
	}
	require.NoError(t, metrics.WatchPortfolio(status, nil))
	return &fixture{handler: New(svc, hub, metrics, nil, opts).Handler(), hub: hub}
}

func (f *fixture) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const radar = `{"shortId":"RAD01","name":"Radar upgrade","startDate":"2026-01-05","budget":1500000}`

func TestIdentity(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/healthz", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/api/projects", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/api/projects", "mallory", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/projects", "viewer", "").Code)
}

func TestBearerToken(t *testing.T) {
	f := newFixture(t, Options{APIToken: "s3cret"})

	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/api/status", "viewer", "").Code)

	req := httptest.NewRequest("GET", "/api/status", nil)
	req.Header.Set(UserHeader, "viewer")
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjectEndpoints_MapErrors(t *testing.T) {
	f := newFixture(t, Options{})

	assert.Equal(t, http.StatusForbidden, f.do(t, "POST", "/api/projects", "viewer", radar).Code)

	rec := f.do(t, "POST", "/api/projects", "officer", radar)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[Project](t, rec)
	assert.Equal(t, "RAD01", created.ShortID)
	assert.Equal(t, "2026-01-05", created.StartDate)

	assert.Equal(t, http.StatusConflict, f.do(t, "POST", "/api/projects", "officer", radar).Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(t, "POST", "/api/projects", "officer", `{"shortId":"RAD02","name":"x","startDate":"05/01/2026"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(t, "POST", "/api/projects", "officer", `{"shortId":"RAD02","colour":"red"}`).Code, "unknown fields are rejected")

	rec = f.do(t, "GET", "/api/projects/RAD01", "viewer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[Project](t, rec).ID)
	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/api/projects/NOPE01", "viewer", "").Code)

	rec = f.do(t, "PATCH", "/api/projects/RAD01", "officer", `{"sponsor":"Signals","rowVersion":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Signals", decode[Project](t, rec).Sponsor)
	assert.Equal(t, http.StatusConflict, f.do(t, "PATCH", "/api/projects/RAD01", "officer", `{"sponsor":"x","rowVersion":1}`).Code)
}

func TestStageTransitions(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/projects", "officer", radar).Code)

	rec := f.do(t, "GET", "/api/projects/RAD01/stages", "viewer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stages := decode[ListResponse[Stage]](t, rec).Items
	require.Len(t, stages, 9)
	assert.Equal(t, "FS", stages[0].Code)

	assert.Equal(t, http.StatusConflict,
		f.do(t, "POST", "/api/projects/RAD01/stages/fs/start", "officer", `{"rowVersion":99}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "POST", "/api/projects/RAD01/stages/fs/explode", "officer", "").Code)

	rec = f.do(t, "POST", "/api/projects/RAD01/stages/fs/start", "officer", `{"on":"2026-01-05"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decode[Stage](t, rec)
	assert.Equal(t, "in_progress", started.Status)
	assert.Equal(t, "2026-01-05", started.ActualStart)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/projects/RAD01/stages/fs/start", "officer", "").Code,
		"starting twice is an invalid transition")

	rec = f.do(t, "GET", "/api/projects/RAD01/health?on=2026-01-06", "viewer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-01-06", decode[ProjectHealth](t, rec).Today)
}

func TestRemarksAndNotifications(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/projects", "officer", radar).Code)

	rec := f.do(t, "POST", "/api/projects/RAD01/remarks", "officer", `{"stage":"fs","body":"@hod please review"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"hod"}, decode[Remark](t, rec).Mentions)

	rec = f.do(t, "GET", "/api/notifications?unread=1", "hod", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items  []Notification `json:"items"`
		Unread int            `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Unread)
	assert.Equal(t, "officer mentioned you on RAD01 FS", list.Items[0].Title)

	assert.Equal(t, http.StatusNotFound, f.do(t, "POST", "/api/notifications/"+list.Items[0].ID+"/read", "officer", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, "POST", "/api/notifications/"+list.Items[0].ID+"/read", "hod", "").Code)

	rec = f.do(t, "GET", "/api/users/mentions?q=ho", "officer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hod", decode[ListResponse[UserRef]](t, rec).Items[0].Username)
}

func TestExportDownload(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/projects", "officer", radar).Code)

	rec := f.do(t, "GET", "/api/projects/RAD01/export.csv", "viewer", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="RAD01-stages.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Seq,"), rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/api/projects/RAD01/export.docx", "viewer", "").Code)

	rec = f.do(t, "GET", "/api/export/portfolio.xlsx", "viewer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK", rec.Body.String()[:2], "xlsx is a zip archive")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/projects", "officer", radar).Code)

	rec := f.do(t, "GET", "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `stagegate_http_requests_total{code="201",method="POST",route="POST /api/projects"} 1`)
	assert.Contains(t, body, `stagegate_use_cases_total{outcome="success",use_case="project-create"} 1`)
	assert.Contains(t, body, `stagegate_projects{rag="green"} 1`)
	assert.Contains(t, body, `stagegate_project_max_slip_days{project="RAD01"}`)
}

func TestNotificationStream(t *testing.T) {
	f := newFixture(t, Options{})
	srv := httptest.NewServer(f.handler)
	defer srv.Close()
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/projects", "officer", radar).Code)

	header := http.Header{}
	header.Set(UserHeader, "hod")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/notifications/ws", header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.Subscribers("hod") == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/projects/RAD01/remarks", "officer", `{"body":"@hod ping"}`).Code)

	var msg notify.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "mention", msg.Kind)
	assert.Equal(t, "officer mentioned you on RAD01", msg.Title)
}
