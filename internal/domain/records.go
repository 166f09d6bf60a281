package domain

import (
	"fmt"
	"strings"
	"time"
)

type Holiday struct {
	Date time.Time
	Name string
}

type User struct {
	Username    string
	DisplayName string
	Email       string
	Role        Role
	Active      bool
	CreatedAt   time.Time
}

// Validate checks username and role.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" || strings.ContainsAny(u.Username, " @\t") {
		return fmt.Errorf("username %q must be non-empty without spaces or '@': %w", u.Username, ErrValidation)
	}
	if !ValidRoles[u.Role] {
		return fmt.Errorf("unknown role %q: %w", u.Role, ErrValidation)
	}
	return nil
}

type Remark struct {
	ID           string
	ProjectID    string
	StageCode    string
	Author       string
	BodyMarkdown string
	BodyHTML     string
	Mentions     []string
	CreatedAt    time.Time
}

type Notification struct {
	ID        string
	Recipient string
	Kind      NotificationKind
	Title     string
	Body      string
	ProjectID string
	DedupKey  string
	ReadAt    *time.Time
	CreatedAt time.Time
}

type AuditEvent struct {
	ID         string
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Detail     string
	CreatedAt  time.Time
}

type Document struct {
	ID            string
	ProjectID     string
	FileName      string
	ContentType   string
	SizeBytes     int64
	SHA256        string
	ExtractedText string
	UploadedBy    string
	CreatedAt     time.Time
}

type IPRRecord struct {
	ID           string
	ProjectID    string
	Title        string
	Kind         IPRKind
	FilingNumber string
	FiledOn      *time.Time
	Status       IPRStatus
	Inventors    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks required fields and that filed records carry a filing date.
func (r *IPRRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("IPR title is required: %w", ErrValidation)
	}
	if !ValidIPRKinds[r.Kind] {
		return fmt.Errorf("unknown IPR kind %q: %w", r.Kind, ErrValidation)
	}
	if !ValidIPRStatuses[r.Status] {
		return fmt.Errorf("unknown IPR status %q: %w", r.Status, ErrValidation)
	}
	if r.Status != IPRDrafted && r.Status != IPRAbandoned && r.FiledOn == nil {
		return fmt.Errorf("IPR status %s requires a filing date: %w", r.Status, ErrValidation)
	}
	return nil
}

type IndustryPartner struct {
	ID            string
	Name          string
	City          string
	ContactPerson string
	ContactEmail  string
	Domains       []string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the partner name and contact email.
func (p *IndustryPartner) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("partner name is required: %w", ErrValidation)
	}
	if p.ContactEmail != "" && !strings.Contains(p.ContactEmail, "@") {
		return fmt.Errorf("contact email %q is not an address: %w", p.ContactEmail, ErrValidation)
	}
	return nil
}
