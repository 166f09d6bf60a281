package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// FormatPlanList renders a project's plan versions, newest first as given.
func FormatPlanList(plans []*domain.PlanVersion) string {
	if len(plans) == 0 {
		return Dim("No plan versions.") + "\n"
	}
	rows := make([][]string, 0, len(plans))
	for _, v := range plans {
		decided := Dim("--")
		if v.DecidedBy != "" {
			decided = v.DecidedBy
		}
		rows = append(rows, []string{
			Bold(fmt.Sprintf("v%d", v.Version)),
			PlanStatusPill(v.Status),
			v.AnchorDate.Format(domain.DateLayout),
			v.CreatedBy,
			decided,
			TruncID(v.ID),
		})
	}
	return RenderTable([]string{"VERSION", "STATUS", "ANCHOR", "AUTHOR", "DECIDED BY", "ID"}, rows)
}

// FormatPlan renders a plan version and its per-stage schedule.
func FormatPlan(v *domain.PlanVersion) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  anchored %s  by %s\n", PlanStatusPill(v.Status), v.AnchorDate.Format(domain.DateLayout), v.CreatedBy))
	if v.DecisionNote != "" {
		b.WriteString(Dim("Note: ") + v.DecisionNote + "\n")
	}
	b.WriteString("\n")

	rows := make([][]string, 0, len(v.Stages))
	for _, s := range v.Stages {
		days := fmt.Sprintf("%d", s.DurationDays)
		start, due := Date(s.PlannedStart), Date(s.PlannedDue)
		if s.Skip {
			days, start, due = Dim("skip"), Dim("--"), Dim("--")
		}
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", s.Sequence)),
			Bold(s.StageCode),
			days,
			start,
			due,
		})
	}
	b.WriteString(Table{
		Headers:    []string{"#", "CODE", "DAYS", "START", "DUE"},
		Rows:       rows,
		RightAlign: map[int]bool{0: true, 2: true},
	}.Render())
	return RenderBox(fmt.Sprintf("Plan v%d", v.Version), b.String())
}
