package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/google/uuid"
)

var testShortIDCounter atomic.Int64

// Date parses a YYYY-MM-DD literal and panics on malformed input.
func Date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// DatePtr is Date returning a pointer.
func DatePtr(s string) *time.Time {
	t := Date(s)
	return &t
}

// Project options
type ProjectOption func(*domain.Project)

// WithProjectStatus sets the status; archived projects also get an archive
// timestamp, as Archive would record.
func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
		if s == domain.ProjectArchived {
			at := p.UpdatedAt
			p.ArchivedAt = &at
		}
	}
}

func WithShortID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortID = id
	}
}

func WithStartDate(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = d
	}
}

func WithBudget(minor int64) ProjectOption {
	return func(p *domain.Project) {
		p.Budget = minor
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:         uuid.New().String(),
		ShortID:    defaultShortID(name),
		Name:       name,
		Sponsor:    "Directorate of Test",
		Category:   "equipment",
		Budget:     1_000_000,
		StartDate:  Date("2026-01-05"),
		Status:     domain.ProjectActive,
		RowVersion: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stage options
type StageOption func(*domain.ProjectStage)

func WithStageStatus(s domain.StageStatus) StageOption {
	return func(st *domain.ProjectStage) {
		st.Status = s
	}
}

func WithPlanned(start, due string) StageOption {
	return func(st *domain.ProjectStage) {
		st.PlannedStart = DatePtr(start)
		st.PlannedDue = DatePtr(due)
	}
}

func WithActualStart(d string) StageOption {
	return func(st *domain.ProjectStage) {
		st.ActualStart = DatePtr(d)
	}
}

func WithCompletedOn(d string) StageOption {
	return func(st *domain.ProjectStage) {
		st.CompletedOn = DatePtr(d)
	}
}

func WithDuration(days int) StageOption {
	return func(st *domain.ProjectStage) {
		st.DurationDays = days
	}
}

func NewTestStage(projectID, code string, seq int, opts ...StageOption) *domain.ProjectStage {
	now := time.Now().UTC()
	s := &domain.ProjectStage{
		ID:           uuid.New().String(),
		ProjectID:    projectID,
		Code:         code,
		Name:         code + " stage",
		Sequence:     seq,
		DurationDays: 5,
		Status:       domain.StageNotStarted,
		RowVersion:   1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// User options
type UserOption func(*domain.User)

func WithInactive() UserOption {
	return func(u *domain.User) {
		u.Active = false
	}
}

func WithDisplayName(name string) UserOption {
	return func(u *domain.User) {
		u.DisplayName = name
	}
}

// StandardUsers returns one active user per role: admin, hod, officer and viewer.
func StandardUsers() []*domain.User {
	return []*domain.User{
		NewTestUser("admin", domain.RoleAdmin),
		NewTestUser("hod", domain.RoleHoD),
		NewTestUser("officer", domain.RoleProjectOfficer),
		NewTestUser("viewer", domain.RoleViewer),
	}
}

func NewTestUser(username string, role domain.Role, opts ...UserOption) *domain.User {
	u := &domain.User{
		Username:    username,
		DisplayName: strings.ToUpper(username[:1]) + username[1:],
		Email:       username + "@example.org",
		Role:        role,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}
