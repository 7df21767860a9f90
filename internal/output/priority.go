package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// FillStyle picks a style for a fill rate: green from 70%, yellow from 40%,
// red below.
func FillStyle(fill float64) lipgloss.Style {
	switch {
	case fill >= 70:
		return StyleSuccess
	case fill >= 40:
		return StyleWarning
	default:
		return StyleError
	}
}

// Priority renders a suggestion priority as an upper-case tag.
func Priority(p suggest.Priority) string {
	switch p {
	case suggest.PriorityHigh:
		return StyleError.Render("HIGH")
	case suggest.PriorityMedium:
		return StyleWarning.Render("MEDIUM")
	case suggest.PriorityLow:
		return StyleMuted.Render("LOW")
	default:
		return StyleMuted.Render("?")
	}
}

// HourStatus renders a trainer-hours status.
func HourStatus(status string) string {
	switch status {
	case suggest.HoursOver:
		return StyleError.Render(status)
	case suggest.HoursUnder:
		return StyleWarning.Render(status)
	default:
		return StyleSuccess.Render(status)
	}
}
