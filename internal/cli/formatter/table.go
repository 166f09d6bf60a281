package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = 2

// Table is an aligned plain-text table measured by visible width, so
// cells may carry lipgloss styling.
type Table struct {
	Headers []string
	Rows    [][]string
	// RightAlign marks numeric columns by index.
	RightAlign map[int]bool
}

// RenderTable renders headers and rows left aligned.
func RenderTable(headers []string, rows [][]string) string {
	return Table{Headers: headers, Rows: rows}.Render()
}

func (t Table) Render() string {
	cols := len(t.Headers)
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}

	var b strings.Builder
	styled := make([]string, cols)
	for i, h := range t.Headers {
		styled[i] = StyleHeader.Render(h)
	}
	t.writeRow(&b, styled, widths)

	rules := make([]string, cols)
	for i, w := range widths {
		rules[i] = StyleDim.Render(strings.Repeat("─", w))
	}
	t.writeRow(&b, rules, widths)

	for _, row := range t.Rows {
		t.writeRow(&b, row, widths)
	}
	return b.String()
}

func (t Table) writeRow(b *strings.Builder, row []string, widths []int) {
	last := len(widths) - 1
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := max(w-lipgloss.Width(cell), 0)
		if t.RightAlign[i] {
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(cell)
		} else {
			b.WriteString(cell)
			if i < last {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		if i < last {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
}
