package formatter

import (
	"fmt"
	"strings"
)

// RenderProgress renders a stage completion bar like [████░░░░] 4/9.
// The bar takes the color of the project's RAG rating.
func RenderProgress(done, total, width int, style func(...string) string) string {
	width = max(width, 2)
	filled := 0
	if total > 0 {
		filled = min(done*width/total, width)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if style != nil {
		bar = style(bar)
	}
	return fmt.Sprintf("[%s] %d/%d", bar, done, total)
}
