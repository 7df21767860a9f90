package suggest

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateInsights produces short human-readable observations about the
// schedule and the suggestion set.
func GenerateInsights(ctx *OptimizationContext, suggestions []Suggestion) []string {
	insights := []string{}

	averages := locationAverages(ctx.Schedule)
	underperforming := 0
	for _, c := range ctx.Schedule {
		if IsUnderperforming(c, averages[c.Location], ctx.Config) {
			underperforming++
		}
	}
	if underperforming > 0 {
		insights = append(insights, fmt.Sprintf("%d class(es) are underperforming relative to their location", underperforming))
	}

	high := 0
	for _, s := range suggestions {
		if s.Priority == PriorityHigh {
			high++
		}
	}
	if high > 0 {
		insights = append(insights, fmt.Sprintf("%d high-priority suggestion(s) need attention", high))
	}

	var underused []string
	for _, tp := range ctx.Profiles.Trainers {
		if tp.Stats.AvgFillRate >= balanceMinFillRate &&
			ctx.hours(tp.Name) < ctx.Config.TargetHoursFor(tp.Name)-hourGapThreshold {
			underused = append(underused, tp.Name)
		}
	}
	if len(underused) > 0 {
		sort.Strings(underused)
		insights = append(insights, fmt.Sprintf("%d high-performing trainer(s) are under-utilized: %s",
			len(underused), strings.Join(underused, ", ")))
	}

	var topName string
	var topFill float64
	for _, tp := range ctx.Profiles.Trainers {
		if topName == "" || tp.Stats.AvgFillRate > topFill ||
			(tp.Stats.AvgFillRate == topFill && tp.Name < topName) {
			topName, topFill = tp.Name, tp.Stats.AvgFillRate
		}
	}
	if topName != "" {
		insights = append(insights, fmt.Sprintf("Top trainer by fill rate: %s (%.1f%%)", topName, topFill))
	}

	return insights
}
