package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// FormatProjectList renders projects as a table.
func FormatProjectList(projects []*domain.Project) string {
	if len(projects) == 0 {
		return Dim("No projects found.") + "\n"
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			Bold(p.DisplayID()),
			StyleFg.Render(p.Name),
			p.Sponsor,
			ProjectStatusPill(p.Status),
			p.StartDate.Format(domain.DateLayout),
			Money(p.Budget),
		})
	}
	return Table{
		Headers:    []string{"ID", "NAME", "SPONSOR", "STATUS", "START", "BUDGET"},
		Rows:       rows,
		RightAlign: map[int]bool{5: true},
	}.Render()
}

// FormatProjectDetail renders a project with its stage list.
func FormatProjectDetail(p *domain.Project, stages []*domain.ProjectStage) string {
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", Dim(fmt.Sprintf("%-10s", label)), value))
	}
	field("Name", Bold(p.Name))
	field("Status", ProjectStatusPill(p.Status))
	if p.Sponsor != "" {
		field("Sponsor", p.Sponsor)
	}
	if p.Category != "" {
		field("Category", p.Category)
	}
	field("Budget", Money(p.Budget))
	field("Start", p.StartDate.Format(domain.DateLayout))
	field("Version", fmt.Sprintf("%d", p.RowVersion))
	field("ID", TruncID(p.ID))

	if len(stages) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatStageList(stages))
	}
	return RenderBox(p.DisplayID(), b.String())
}

// FormatStageList renders stages in sequence order as stored.
func FormatStageList(stages []*domain.ProjectStage) string {
	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", s.Sequence)),
			Bold(s.Code),
			s.Name,
			StageStatusPill(s.Status),
			fmt.Sprintf("%d", s.DurationDays),
			Date(s.PlannedDue),
			Date(s.ForecastDue),
			Date(s.CompletedOn),
			Dim(fmt.Sprintf("v%d", s.RowVersion)),
		})
	}
	return Table{
		Headers:    []string{"#", "CODE", "STAGE", "STATUS", "DAYS", "PLANNED", "FORECAST", "DONE", "REV"},
		Rows:       rows,
		RightAlign: map[int]bool{0: true, 4: true},
	}.Render()
}
