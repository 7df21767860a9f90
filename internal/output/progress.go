package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FillBar renders a visual bar for a 0-100 fill rate.
// Example: "████████░░ 80%"
func FillBar(fill float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((fill / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", FillStyle(fill).Render(bar), StyleMuted.Render(fmt.Sprintf("%.0f%%", fill)))
}

// FillRate renders a fill rate as a colored percentage.
func FillRate(fill float64) string {
	return FillStyle(fill).Render(fmt.Sprintf("%.1f%%", fill))
}

// TrendArrow returns a styled trend indicator for a delta value.
// Positive delta shows an up arrow, negative shows down, zero shows a dash.
// The higherIsBetter parameter indicates whether higher values are better.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := (isPositive && higherIsBetter) || (!isPositive && !higherIsBetter)

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.1f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.1f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// TrendLabel renders a profile trend word with an arrow.
func TrendLabel(trend string) string {
	switch trend {
	case "improving":
		return StyleSuccess.Render("▲ improving")
	case "declining":
		return StyleError.Render("▼ declining")
	default:
		return StyleMuted.Render("─ stable")
	}
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Money formats a revenue figure with two decimals and separators.
func Money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Ago renders a timestamp relative to now ("3 hours ago").
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
