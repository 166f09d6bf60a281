package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/export"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/testutil"
)

func TestHolidays_AdminOnlyAndBatchImport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	holi := domain.Holiday{Date: testutil.Date("2026-03-04"), Name: "Holi"}

	assert.ErrorIs(t, env.holidays.Add(ctx, env.user("hod"), holi), domain.ErrForbidden)
	require.NoError(t, env.holidays.Add(ctx, env.user("admin"), holi))
	assert.ErrorIs(t, env.holidays.Add(ctx, env.user("admin"), holi), domain.ErrDuplicate)

	_, err := env.holidays.Import(ctx, env.user("admin"), []domain.Holiday{
		{Date: testutil.Date("2026-08-15"), Name: "Independence Day"},
		{Date: testutil.Date("2026-10-02")},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	list, err := env.holidays.List(ctx, 2026)
	require.NoError(t, err)
	assert.Len(t, list, 1, "an invalid entry rejects the whole batch")

	n, err := env.holidays.Sync(ctx, []domain.Holiday{
		{Date: testutil.Date("2026-03-04"), Name: "Holi (Dhulandi)"},
		{Date: testutil.Date("2026-08-15"), Name: "Independence Day"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	list, err = env.holidays.List(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Holi (Dhulandi)", list[0].Name)

	require.NoError(t, env.holidays.Remove(ctx, env.user("admin"), testutil.Date("2026-08-15")))
	assert.ErrorIs(t, env.holidays.Remove(ctx, env.user("admin"), testutil.Date("2026-08-15")), domain.ErrNotFound)

	events, err := env.audit.List(ctx, env.user("hod"), repository.AuditFilter{EntityType: "holiday", Actor: "system"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "holiday.import", events[0].Action)
}

func TestIPRRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProject(t, "RAD01", "Radar")

	rec := &domain.IPRRecord{
		ProjectID: p.ID,
		Title:     "  Phased array cooling  ",
		Kind:      domain.IPRPatent,
		Inventors: []string{"A. Rao", " ", "M. Iyer "},
	}
	require.NoError(t, env.ipr.Create(ctx, env.user("officer"), rec))
	assert.Equal(t, domain.IPRDrafted, rec.Status)
	assert.Equal(t, []string{"A. Rao", "M. Iyer"}, rec.Inventors)

	rec.Status = domain.IPRFiled
	assert.ErrorIs(t, env.ipr.Update(ctx, env.user("officer"), rec), domain.ErrValidation, "filed needs a date")
	rec.FiledOn = testutil.DatePtr("2026-02-10")
	rec.FilingNumber = "202611004512"
	require.NoError(t, env.ipr.Update(ctx, env.user("officer"), rec))

	got, err := env.ipr.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phased array cooling", got.Title)
	assert.Equal(t, domain.IPRFiled, got.Status)

	filed, err := env.ipr.List(ctx, repository.IPRFilter{Status: domain.IPRFiled})
	require.NoError(t, err)
	assert.Len(t, filed, 1)

	assert.ErrorIs(t, env.ipr.Create(ctx, env.user("viewer"), &domain.IPRRecord{Title: "x", Kind: domain.IPRDesign}), domain.ErrForbidden)
	assert.ErrorIs(t, env.ipr.Create(ctx, env.user("officer"), &domain.IPRRecord{Title: "x", Kind: "secret"}), domain.ErrValidation)
}

func TestPartners_Normalized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	partner := &domain.IndustryPartner{
		Name:         " Acme Microwave ",
		City:         "new delhi",
		ContactEmail: "Sales@Acme.Example",
		Domains:      []string{"RF", "rf ", "Thermal", ""},
		Active:       true,
	}
	require.NoError(t, env.partners.Create(ctx, env.user("officer"), partner))
	assert.Equal(t, "Acme Microwave", partner.Name)
	assert.Equal(t, "New Delhi", partner.City)
	assert.Equal(t, "sales@acme.example", partner.ContactEmail)
	assert.Equal(t, []string{"rf", "thermal"}, partner.Domains)

	partner.ContactEmail = "not-an-address"
	assert.ErrorIs(t, env.partners.Update(ctx, env.user("officer"), partner), domain.ErrValidation)

	found, err := env.partners.List(ctx, repository.PartnerFilter{ActiveOnly: true, Search: "acme"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, partner.ID, found[0].ID)
}

func TestAuditList_RequiresHoD(t *testing.T) {
	env := newTestEnv(t)
	env.createProject(t, "RAD01", "Radar")

	_, err := env.audit.List(context.Background(), env.user("officer"), repository.AuditFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	events, err := env.audit.List(context.Background(), env.user("hod"), repository.AuditFilter{EntityType: "project"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "officer", events[0].Actor)
	assert.Equal(t, "project.create", events[0].Action)
}

func TestExports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projects := seedPortfolio(t, env)

	var buf bytes.Buffer
	require.NoError(t, env.exports.Portfolio(ctx, env.user("viewer"), nil, export.FormatCSV, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "ID,Project,RAG,Max slip,Worst stage,Forecast completion", lines[0])
	assert.Equal(t, "RED01,Beta radar,RED,10,FS,2026-03-02", lines[1])

	buf.Reset()
	require.NoError(t, env.exports.StageSheet(ctx, env.user("viewer"), projects["AMB01"].ID, nil, export.FormatMarkdown, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "# AMB01 Amber alert: stages as of 2026-03-02"))
	assert.Contains(t, buf.String(), "IPA")

	assert.ErrorIs(t, env.exports.Portfolio(ctx, nil, nil, export.FormatCSV, &buf), domain.ErrForbidden)
}
