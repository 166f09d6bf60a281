package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/catalog"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/markdown"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/scheduler"
	"github.com/alexanderramin/stagegate/internal/storage"
	"github.com/alexanderramin/stagegate/internal/testutil"
)

// Monday.
var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu  sync.Mutex
	got []*domain.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n *domain.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, n)
}

func (p *recordingPublisher) recipients() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.got))
	for i, n := range p.got {
		out[i] = n.Recipient
	}
	return out
}

type testEnv struct {
	db  *sql.DB
	uow db.UnitOfWork
	pub *recordingPublisher

	projectRepo      *repository.SQLiteProjectRepo
	stageRepo        *repository.SQLiteStageRepo
	planRepo         *repository.SQLitePlanRepo
	holidayRepo      *repository.SQLiteHolidayRepo
	userRepo         *repository.SQLiteUserRepo
	notificationRepo *repository.SQLiteNotificationRepo
	auditRepo        *repository.SQLiteAuditRepo
	documentRepo     *repository.SQLiteDocumentRepo

	users map[string]*domain.User

	calendars *CalendarBuilder
	blobs     *storage.BlobStore
	projects  ProjectService
	stages    StageService
	plans     PlanService
	status    StatusService
	holidays  HolidayService
	remarks   RemarkService
	userSvc   UserService
	notify    NotificationService
	documents DocumentService
	ipr       IPRService
	partners  PartnerService
	audit     AuditService
	exports   ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	env := &testEnv{
		db:               database,
		uow:              testutil.NewTestUoW(database),
		pub:              &recordingPublisher{},
		projectRepo:      repository.NewSQLiteProjectRepo(database),
		stageRepo:        repository.NewSQLiteStageRepo(database),
		planRepo:         repository.NewSQLitePlanRepo(database),
		holidayRepo:      repository.NewSQLiteHolidayRepo(database),
		userRepo:         repository.NewSQLiteUserRepo(database),
		notificationRepo: repository.NewSQLiteNotificationRepo(database),
		auditRepo:        repository.NewSQLiteAuditRepo(database),
		documentRepo:     repository.NewSQLiteDocumentRepo(database),
		users:            make(map[string]*domain.User),
		calendars:        NewCalendarBuilder(nil),
	}
	ctx := context.Background()
	for _, u := range testutil.StandardUsers() {
		require.NoError(t, env.userRepo.Create(ctx, u))
		env.users[u.Username] = u
	}
	blobs, err := storage.NewBlobStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	env.blobs = blobs
	env.wire(env.uow)
	return env
}

// wire (re)builds every service on uow with the clock pinned to testNow.
func (e *testEnv) wire(uow db.UnitOfWork) {
	clock := func() time.Time { return testNow }

	projects := NewProjectService(e.projectRepo, catalog.Default(), uow).(*projectService)
	projects.now = clock
	stages := NewStageService(e.stageRepo, e.calendars, e.pub, uow).(*stageService)
	stages.now = clock
	plans := NewPlanService(e.planRepo, e.calendars, e.pub, uow).(*planService)
	plans.now = clock
	status := NewStatusService(e.projectRepo, e.stageRepo, e.holidayRepo, e.calendars, scheduler.DefaultThresholds).(*statusService)
	status.now = clock
	holidays := NewHolidayService(e.holidayRepo, uow).(*holidayService)
	holidays.now = clock
	remarks := NewRemarkService(repository.NewSQLiteRemarkRepo(e.db), markdown.NewRenderer(), e.pub, uow).(*remarkService)
	remarks.now = clock
	users := NewUserService(e.userRepo, uow).(*userService)
	users.now = clock
	notify := NewNotificationService(e.notificationRepo, e.pub, 2, uow).(*notificationService)
	notify.now = clock
	documents := NewDocumentService(e.documentRepo, e.blobs, uow).(*documentService)
	documents.now = clock
	exports := NewExportService(status).(*exportService)
	exports.now = clock

	e.projects, e.stages, e.plans, e.status = projects, stages, plans, status
	e.holidays, e.remarks, e.userSvc, e.notify = holidays, remarks, users, notify
	e.documents, e.exports = documents, exports
	e.ipr = NewIPRService(repository.NewSQLiteIPRRepo(e.db), uow)
	e.partners = NewPartnerService(repository.NewSQLitePartnerRepo(e.db), uow)
	e.audit = NewAuditService(e.auditRepo)
}

func (e *testEnv) user(name string) *domain.User {
	u, ok := e.users[name]
	if !ok {
		panic("unknown test user " + name)
	}
	return u
}

// createProject adds a project with the catalog stages through the service.
func (e *testEnv) createProject(t *testing.T, shortID, name string) *domain.Project {
	t.Helper()
	p := &domain.Project{ShortID: shortID, Name: name, StartDate: testutil.Date("2026-01-05")}
	require.NoError(t, e.projects.Create(context.Background(), e.user("officer"), p))
	return p
}

// seedProject stores a project with hand-built stages, bypassing the services.
func (e *testEnv) seedProject(t *testing.T, p *domain.Project, stages ...*domain.ProjectStage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.projectRepo.Create(ctx, p))
	for _, s := range stages {
		s.ProjectID = p.ID
	}
	require.NoError(t, e.stageRepo.CreateBatch(ctx, stages))
}

func (e *testEnv) stage(t *testing.T, projectID, code string) *domain.ProjectStage {
	t.Helper()
	s, err := e.stageRepo.GetByCode(context.Background(), projectID, code)
	require.NoError(t, err)
	return s
}

func (e *testEnv) auditActions(t *testing.T, entityType string) []string {
	t.Helper()
	events, err := e.auditRepo.List(context.Background(), repository.AuditFilter{EntityType: entityType})
	require.NoError(t, err)
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Action
	}
	return out
}
