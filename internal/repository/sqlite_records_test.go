package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemarkRepo_ListByProjectAndStage(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	p := testutil.NewTestProject("Radar")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, p))
	repo := NewSQLiteRemarkRepo(db)

	base := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	for i, stage := range []string{"FS", "", "FS"} {
		require.NoError(t, repo.Create(ctx, &domain.Remark{
			ID:           uuid.New().String(),
			ProjectID:    p.ID,
			StageCode:    stage,
			Author:       "officer",
			BodyMarkdown: "note",
			BodyHTML:     "<p>note</p>",
			Mentions:     []string{"hod", "admin"},
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.ListByProject(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []string{"hod", "admin"}, all[0].Mentions)
	assert.True(t, all[0].CreatedAt.Before(all[2].CreatedAt))

	fs, err := repo.ListByProject(ctx, p.ID, "fs")
	require.NoError(t, err)
	assert.Len(t, fs, 2)
}

func TestNotificationRepo_DedupAndRead(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteNotificationRepo(db)
	ctx := context.Background()

	mk := func(recipient, dedup string, at time.Time) *domain.Notification {
		return &domain.Notification{
			ID: uuid.New().String(), Recipient: recipient, Kind: domain.NotifyDueSoon,
			Title: "FS due soon", DedupKey: dedup, CreatedAt: at,
		}
	}
	t0 := time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)

	inserted, err := repo.Create(ctx, mk("officer", "due_soon:s1:2026-05-20", t0))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Create(ctx, mk("officer", "due_soon:s1:2026-05-20", t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, inserted, "same key for same recipient is skipped")

	inserted, err = repo.Create(ctx, mk("hod", "due_soon:s1:2026-05-20", t0))
	require.NoError(t, err)
	assert.True(t, inserted, "dedup is per recipient")

	// Empty keys never collide.
	for i := 0; i < 2; i++ {
		inserted, err = repo.Create(ctx, mk("officer", "", t0.Add(time.Duration(i+2)*time.Hour)))
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	count, err := repo.UnreadCount(ctx, "officer")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	list, err := repo.ListForUser(ctx, "officer", false, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].CreatedAt.After(list[2].CreatedAt), "newest first")

	require.NoError(t, repo.MarkRead(ctx, list[0].ID, "officer", t0))
	assert.ErrorIs(t, repo.MarkRead(ctx, list[1].ID, "hod", t0), domain.ErrNotFound)

	unread, err := repo.ListForUser(ctx, "officer", true, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := repo.MarkAllRead(ctx, "officer", t0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	count, err = repo.UnreadCount(ctx, "officer")
	require.NoError(t, err)
	assert.Zero(t, count)

	limited, err := repo.ListForUser(ctx, "officer", false, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAuditRepo_Filter(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAuditRepo(db)
	ctx := context.Background()

	t0 := time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)
	events := []domain.AuditEvent{
		{Actor: "officer", Action: "project.create", EntityType: "project", EntityID: "p1"},
		{Actor: "officer", Action: "stage.start", EntityType: "stage", EntityID: "s1"},
		{Actor: "hod", Action: "plan.approve", EntityType: "plan", EntityID: "v1"},
	}
	for i := range events {
		events[i].ID = uuid.New().String()
		events[i].CreatedAt = t0.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Append(ctx, &events[i]))
	}

	all, err := repo.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "plan.approve", all[0].Action, "newest first")

	byActor, err := repo.List(ctx, AuditFilter{Actor: "officer"})
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	byEntity, err := repo.List(ctx, AuditFilter{EntityType: "stage", EntityID: "s1"})
	require.NoError(t, err)
	require.Len(t, byEntity, 1)
	assert.Equal(t, "stage.start", byEntity[0].Action)

	limited, err := repo.List(ctx, AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDocumentRepo_CRUDAndSHACount(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	p := testutil.NewTestProject("Radar")
	require.NoError(t, NewSQLiteProjectRepo(db).Create(ctx, p))
	repo := NewSQLiteDocumentRepo(db)

	mk := func(name, sha string) *domain.Document {
		return &domain.Document{
			ID: uuid.New().String(), ProjectID: p.ID, FileName: name, ContentType: "text/plain",
			SizeBytes: 12, SHA256: sha, ExtractedText: "hello", UploadedBy: "officer", CreatedAt: time.Now().UTC(),
		}
	}
	d1 := mk("a.txt", "abc")
	d2 := mk("b.txt", "abc")
	require.NoError(t, repo.Create(ctx, d1))
	require.NoError(t, repo.Create(ctx, d2))

	n, err := repo.CountBySHA(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.GetByID(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.ExtractedText)

	list, err := repo.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, d1.ID))
	_, err = repo.GetByID(ctx, d1.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, err = repo.CountBySHA(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIPRRepo_CRUDAndFilter(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteIPRRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := &domain.IPRRecord{
		ID: uuid.New().String(), ProjectID: "p1", Title: "Beam steering method", Kind: domain.IPRPatent,
		Status: domain.IPRDrafted, Inventors: []string{"A. Rao", "M. Iyer, Jr."}, CreatedAt: now, UpdatedAt: now,
	}
	other := &domain.IPRRecord{
		ID: uuid.New().String(), Title: "Logo", Kind: domain.IPRTrademark,
		Status: domain.IPRFiled, FiledOn: testutil.DatePtr("2026-02-01"), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, rec))
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A. Rao", "M. Iyer, Jr."}, got.Inventors)
	assert.Nil(t, got.FiledOn)

	got.Status = domain.IPRFiled
	got.FiledOn = testutil.DatePtr("2026-03-10")
	got.FilingNumber = "202641001234"
	require.NoError(t, repo.Update(ctx, got))

	filed, err := repo.List(ctx, IPRFilter{Status: domain.IPRFiled})
	require.NoError(t, err)
	assert.Len(t, filed, 2)

	byProject, err := repo.List(ctx, IPRFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, "202641001234", byProject[0].FilingNumber)

	missing := *rec
	missing.ID = "missing"
	assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrNotFound)
}

func TestPartnerRepo_CRUDAndSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLitePartnerRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func(name, city string, domains []string, active bool) *domain.IndustryPartner {
		return &domain.IndustryPartner{
			ID: uuid.New().String(), Name: name, City: city, Domains: domains, Active: active,
			CreatedAt: now, UpdatedAt: now,
		}
	}
	acme := mk("Acme Sensors", "Pune", []string{"radar", "sonar"}, true)
	beta := mk("Beta Optics", "Bengaluru", []string{"optics"}, true)
	gone := mk("Gamma Radar Works", "Hyderabad", nil, false)
	for _, p := range []*domain.IndustryPartner{acme, beta, gone} {
		require.NoError(t, repo.Create(ctx, p))
	}

	active, err := repo.List(ctx, PartnerFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	radar, err := repo.List(ctx, PartnerFilter{Search: "RADAR"})
	require.NoError(t, err)
	require.Len(t, radar, 2)
	assert.Equal(t, "Acme Sensors", radar[0].Name)

	acme.ContactEmail = "bd@acme.example"
	acme.Active = false
	require.NoError(t, repo.Update(ctx, acme))
	got, err := repo.GetByID(ctx, acme.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, []string{"radar", "sonar"}, got.Domains)
	assert.Equal(t, "bd@acme.example", got.ContactEmail)
}
