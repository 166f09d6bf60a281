package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// RelativeDays describes a calendar date relative to today in whole days.
func RelativeDays(t, today time.Time) string {
	days := domain.DaysBetween(domain.DateOnly(today), domain.DateOnly(t))
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 0:
		return fmt.Sprintf("in %dd", days)
	default:
		return fmt.Sprintf("%dd ago", -days)
	}
}

// DueStyled renders a due date with its distance from today, red when
// overdue and yellow when due within window days.
func DueStyled(t *time.Time, today time.Time, window int) string {
	if t == nil {
		return Dim("--")
	}
	text := fmt.Sprintf("%s (%s)", t.Format(domain.DateLayout), RelativeDays(*t, today))
	days := domain.DaysBetween(domain.DateOnly(today), domain.DateOnly(*t))
	switch {
	case days < 0:
		return StyleRed.Render(text)
	case days <= window:
		return StyleYellow.Render(text)
	}
	return StyleFg.Render(text)
}

// Date renders an optional date, or a dim dash.
func Date(t *time.Time) string {
	if t == nil {
		return Dim("--")
	}
	return t.Format(domain.DateLayout)
}

// ProjectStatusPill returns a colored indicator for project status.
func ProjectStatusPill(status domain.ProjectStatus) string {
	switch status {
	case domain.ProjectActive:
		return StyleGreen.Render("● Active")
	case domain.ProjectOnHold:
		return StyleYellow.Render("○ On hold")
	case domain.ProjectClosed:
		return StyleDim.Render("✔ Closed")
	case domain.ProjectArchived:
		return StyleDim.Render("✖ Archived")
	default:
		return StyleDim.Render(string(status))
	}
}

// StageStatusPill returns a colored indicator for stage status.
func StageStatusPill(status domain.StageStatus) string {
	switch status {
	case domain.StageNotStarted:
		return StyleBlue.Render("○ Not started")
	case domain.StageInProgress:
		return StyleGreen.Render("● In progress")
	case domain.StageCompleted:
		return StyleDim.Render("✔ Completed")
	case domain.StageSkipped:
		return StyleDim.Render("⊘ Skipped")
	case domain.StageBlocked:
		return StyleRed.Render("■ Blocked")
	default:
		return StyleDim.Render(string(status))
	}
}

// PlanStatusPill returns a colored indicator for plan version status.
func PlanStatusPill(status domain.PlanStatus) string {
	switch status {
	case domain.PlanDraft:
		return StyleBlue.Render("✎ Draft")
	case domain.PlanPendingApproval:
		return StyleYellow.Render("… Pending approval")
	case domain.PlanApproved:
		return StyleGreen.Render("✔ Approved")
	case domain.PlanRejected:
		return StyleRed.Render("✖ Rejected")
	case domain.PlanSuperseded:
		return StyleDim.Render("↷ Superseded")
	default:
		return StyleDim.Render(string(status))
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Money renders minor currency units with two decimals and digit grouping.
func Money(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	whole, frac := minor/100, minor%100
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s%s.%02d", sign, b.String(), frac)
}
