package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// RAGColor returns the style for a health rating.
func RAGColor(rag domain.RAG) lipgloss.Style {
	switch rag {
	case domain.RAGRed:
		return StyleRed
	case domain.RAGAmber:
		return StyleYellow
	case domain.RAGGreen:
		return StyleGreen
	default:
		return StyleDim
	}
}

// RAGIndicator renders "● RED", "● AMBER" or "● GREEN".
func RAGIndicator(rag domain.RAG) string {
	if rag == "" {
		return StyleDim.Render("● --")
	}
	return RAGColor(rag).Render("● " + strings.ToUpper(string(rag)))
}

// SlipColor picks the color a slip of days would give its project.
func SlipColor(days, redAt int) lipgloss.Style {
	switch {
	case days >= redAt:
		return StyleRed
	case days > 0:
		return StyleYellow
	default:
		return StyleDim
	}
}

// Slip renders "+N d" in the slip color, or a dim dash when on time.
func Slip(days, redAt int) string {
	if days <= 0 {
		return StyleDim.Render("--")
	}
	return SlipColor(days, redAt).Render(fmt.Sprintf("+%dd", days))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
