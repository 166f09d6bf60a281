package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var shortIDPattern = regexp.MustCompile(`^[A-Z]{3,6}[0-9]{2,4}$`)

type Project struct {
	ID         string
	ShortID    string
	Name       string
	Sponsor    string
	Category   string
	Budget     int64 // minor currency units
	StartDate  time.Time
	Status     ProjectStatus
	RowVersion int
	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateShortID checks that ShortID is non-empty and matches the required
// format: 3-6 uppercase letters followed by 2-4 digits (e.g. RAD01, SONAR0234).
func (p *Project) ValidateShortID() error {
	if p.ShortID == "" {
		return fmt.Errorf("short ID is required (use --id flag): %w", ErrValidation)
	}
	if !shortIDPattern.MatchString(p.ShortID) {
		return fmt.Errorf("short ID %q must be 3-6 uppercase letters followed by 2-4 digits (e.g. RAD01): %w", p.ShortID, ErrValidation)
	}
	return nil
}

// Validate checks the fields required before a project is persisted.
func (p *Project) Validate() error {
	if err := p.ValidateShortID(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name is required: %w", ErrValidation)
	}
	if p.Budget < 0 {
		return fmt.Errorf("budget must not be negative: %w", ErrValidation)
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("start date is required: %w", ErrValidation)
	}
	if p.Status != "" && !ValidProjectStatuses[p.Status] {
		return fmt.Errorf("unknown project status %q: %w", p.Status, ErrValidation)
	}
	return nil
}

// DisplayID returns the best short identifier for display.
// It prefers ShortID; if empty it truncates ID to 8 characters.
func (p *Project) DisplayID() string {
	if p.ShortID != "" {
		return p.ShortID
	}
	if len(p.ID) >= 8 {
		return p.ID[:8]
	}
	return p.ID
}
