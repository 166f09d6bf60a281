package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
)

type iprService struct {
	records repository.IPRRepo
	uow     db.UnitOfWork
	now     func() time.Time
}

func NewIPRService(records repository.IPRRepo, uow db.UnitOfWork) IPRService {
	return &iprService{records: records, uow: uow, now: systemNow}
}

func normalizeIPR(r *domain.IPRRecord) {
	r.Title = strings.TrimSpace(r.Title)
	r.FilingNumber = strings.TrimSpace(r.FilingNumber)
	if r.Status == "" {
		r.Status = domain.IPRDrafted
	}
	if r.FiledOn != nil {
		r.FiledOn = domain.DatePtr(*r.FiledOn)
	}
	inventors := r.Inventors[:0]
	for _, name := range r.Inventors {
		if name = strings.TrimSpace(name); name != "" {
			inventors = append(inventors, name)
		}
	}
	r.Inventors = inventors
}

func (s *iprService) Create(ctx context.Context, actor *domain.User, r *domain.IPRRecord) error {
	if err := authz.Require(actor, authz.ActionRecordWrite); err != nil {
		return err
	}
	normalizeIPR(r)
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if r.ProjectID != "" {
			if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, r.ProjectID); err != nil {
				return err
			}
		}
		if err := repository.NewSQLiteIPRRepo(tx).Create(ctx, r); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "ipr.create", "ipr", r.ID,
			fmt.Sprintf("%s %s (%s)", r.Kind, r.Title, r.Status), now)
	})
}

func (s *iprService) Get(ctx context.Context, id string) (*domain.IPRRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *iprService) Update(ctx context.Context, actor *domain.User, r *domain.IPRRecord) error {
	if err := authz.Require(actor, authz.ActionRecordWrite); err != nil {
		return err
	}
	normalizeIPR(r)
	if err := r.Validate(); err != nil {
		return err
	}
	now := s.now()
	r.UpdatedAt = now
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txRecords := repository.NewSQLiteIPRRepo(tx)
		before, err := txRecords.GetByID(ctx, r.ID)
		if err != nil {
			return err
		}
		if err := txRecords.Update(ctx, r); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "ipr.update", "ipr", r.ID,
			fmt.Sprintf("status %s -> %s", before.Status, r.Status), now)
	})
}

func (s *iprService) List(ctx context.Context, f repository.IPRFilter) ([]*domain.IPRRecord, error) {
	return s.records.List(ctx, f)
}

type partnerService struct {
	partners repository.PartnerRepo
	uow      db.UnitOfWork
	now      func() time.Time
}

func NewPartnerService(partners repository.PartnerRepo, uow db.UnitOfWork) PartnerService {
	return &partnerService{partners: partners, uow: uow, now: systemNow}
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// normalizePartner title-cases the city and lowercases domains so listings
// group consistently however the data was typed.
func normalizePartner(p *domain.IndustryPartner) {
	p.Name = strings.TrimSpace(p.Name)
	p.City = titleCaser.String(strings.TrimSpace(p.City))
	p.ContactPerson = strings.TrimSpace(p.ContactPerson)
	p.ContactEmail = strings.ToLower(strings.TrimSpace(p.ContactEmail))
	seen := make(map[string]bool, len(p.Domains))
	domains := make([]string, 0, len(p.Domains))
	for _, d := range p.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	p.Domains = domains
}

func (s *partnerService) Create(ctx context.Context, actor *domain.User, p *domain.IndustryPartner) error {
	if err := authz.Require(actor, authz.ActionRecordWrite); err != nil {
		return err
	}
	normalizePartner(p)
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLitePartnerRepo(tx).Create(ctx, p); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "partner.create", "partner", p.ID, p.Name, now)
	})
}

func (s *partnerService) Get(ctx context.Context, id string) (*domain.IndustryPartner, error) {
	return s.partners.GetByID(ctx, id)
}

func (s *partnerService) Update(ctx context.Context, actor *domain.User, p *domain.IndustryPartner) error {
	if err := authz.Require(actor, authz.ActionRecordWrite); err != nil {
		return err
	}
	normalizePartner(p)
	if err := p.Validate(); err != nil {
		return err
	}
	now := s.now()
	p.UpdatedAt = now
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLitePartnerRepo(tx).Update(ctx, p); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "partner.update", "partner", p.ID, p.Name, now)
	})
}

func (s *partnerService) List(ctx context.Context, f repository.PartnerFilter) ([]*domain.IndustryPartner, error) {
	return s.partners.List(ctx, f)
}

type auditService struct {
	events repository.AuditRepo
}

func NewAuditService(events repository.AuditRepo) AuditService {
	return &auditService{events: events}
}

func (s *auditService) List(ctx context.Context, actor *domain.User, f repository.AuditFilter) ([]*domain.AuditEvent, error) {
	if err := authz.Require(actor, authz.ActionAuditRead); err != nil {
		return nil, err
	}
	return s.events.List(ctx, f)
}
