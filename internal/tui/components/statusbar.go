package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/aiopt-dev/aiopt/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, inputPath string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [o/m/f/s]tabs  [r]eload  [q]uit"
	right := ""
	if inputPath != "" {
		right = fmt.Sprintf("Input: %s ", inputPath)
	}

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	bar := left
	for i := 0; i < padding; i++ {
		bar += " "
	}
	bar += right

	return style.Render(bar)
}
