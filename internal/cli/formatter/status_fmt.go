package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/scheduler"
)

const statusProgressBarWidth = 10

// FormatStatus renders the portfolio view as a boxed table with a RAG summary.
func FormatStatus(resp *app.StatusResponse, th scheduler.Thresholds) string {
	var b strings.Builder

	rows := make([][]string, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		current := p.CurrentStage
		if current == "" {
			current = Dim("--")
		}
		rows = append(rows, []string{
			Bold(p.ShortID),
			StyleFg.Render(p.ProjectName),
			RAGIndicator(p.RAG),
			Slip(p.MaxSlip, th.RedSlipDays),
			current,
			RenderProgress(p.StagesDone, p.StagesTotal, statusProgressBarWidth, RAGColor(p.RAG).Render),
			DueStyled(p.ForecastCompletion, resp.Summary.Today, th.AmberWindowDays),
		})
	}
	b.WriteString(Table{
		Headers:    []string{"ID", "NAME", "RAG", "SLIP", "STAGE", "PROGRESS", "FORECAST"},
		Rows:       rows,
		RightAlign: map[int]bool{3: true},
	}.Render())

	s := resp.Summary
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s, %s, %s  %s\n",
		StyleRed.Render(fmt.Sprintf("%d Red", s.CountsRed)),
		StyleYellow.Render(fmt.Sprintf("%d Amber", s.CountsAmber)),
		StyleGreen.Render(fmt.Sprintf("%d Green", s.CountsGreen)),
		Dim("as of "+s.Today.Format("2006-01-02")),
	))

	for _, p := range resp.Projects {
		if len(p.DueSoon) > 0 {
			b.WriteString(StyleYellow.Render(fmt.Sprintf("  DUE SOON %s: %s", p.ShortID, strings.Join(p.DueSoon, ", "))) + "\n")
		}
	}
	if len(resp.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range resp.Warnings {
			b.WriteString(StyleYellow.Render("  WARNING: "+w) + "\n")
		}
	}

	return RenderBox("Portfolio", b.String())
}

// FormatHealth renders one project's per-stage health breakdown.
func FormatHealth(h *app.ProjectHealth, th scheduler.Thresholds) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s  %s\n\n", Bold(h.ShortID), StyleFg.Render(h.Name), RAGIndicator(h.RAG)))

	rows := make([][]string, 0, len(h.Stages))
	for _, s := range h.Stages {
		flag := ""
		switch {
		case s.Slipping:
			flag = StyleRed.Render("slipping")
		case s.DueSoon:
			flag = StyleYellow.Render("due soon")
		}
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", s.Sequence)),
			Bold(s.Code),
			s.Name,
			StageStatusPill(s.Status),
			Date(s.PlannedDue),
			Date(s.ForecastDue),
			Slip(s.Slip, th.RedSlipDays),
			flag,
		})
	}
	b.WriteString(Table{
		Headers:    []string{"#", "CODE", "STAGE", "STATUS", "PLANNED", "FORECAST", "SLIP", ""},
		Rows:       rows,
		RightAlign: map[int]bool{0: true, 6: true},
	}.Render())

	if h.WorstStage != "" && h.MaxSlip > 0 {
		b.WriteString("\n" + Dim(fmt.Sprintf("Worst slip: %s by %d days", h.WorstStage, h.MaxSlip)) + "\n")
	}
	return RenderBox("Stages as of "+h.Today.Format("2006-01-02"), b.String())
}
