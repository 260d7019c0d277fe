package report

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

// Bar renders a horizontal bar for a fraction in [0, 1].
type Bar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
	Color       color.Color
}

// View renders the bar.
func (b Bar) View() string {
	var result string
	if b.Label != "" {
		result += Body.Render(b.Label) + "  "
	}

	barWidth := b.Width - lipgloss.Width(result)
	if b.ShowPercent {
		barWidth -= 6 // "  100%"
	}
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth)*b.Percent + 0.5)
	filled = min(max(filled, 0), barWidth)

	fg := b.Color
	if fg == nil {
		fg = Secondary
	}
	result += lipgloss.NewStyle().Foreground(fg).Render(strings.Repeat("█", filled))
	result += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("░", barWidth-filled))

	if b.ShowPercent {
		result += Subtitle.Render(fmt.Sprintf("  %3d%%", int(b.Percent*100+0.5)))
	}
	return result
}
