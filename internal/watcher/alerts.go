package watcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// fillDropThreshold is the drop in average schedule fill rate, in points,
// that raises a warning.
const fillDropThreshold = 5.0

// Compare detects notable changes between two watch states and returns alerts.
// Suggestion IDs in rejected never alert. It checks for critical, warning,
// and info-level changes.
func Compare(prev, curr *WatchState, rejected map[string]bool) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareCritical(prev, curr, rejected)...)
	alerts = append(alerts, compareWarning(prev, curr)...)
	alerts = append(alerts, compareInfo(prev, curr, rejected)...)

	return alerts
}

// compareCritical reports high-priority suggestions that were not present
// before.
func compareCritical(prev, curr *WatchState, rejected map[string]bool) []Alert {
	var alerts []Alert
	now := time.Now()

	for _, id := range sortedIDs(curr.HighPriority) {
		if _, seen := prev.HighPriority[id]; seen || rejected[id] {
			continue
		}
		s := curr.HighPriority[id]
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   fmt.Sprintf("High priority: %s", s.Type),
			Message: fmt.Sprintf("%s. %s", describe(s), s.Reason),
			Time:    now,
		})
	}

	return alerts
}

// compareWarning detects warning-level changes.
func compareWarning(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	// Average fill rate across scheduled classes dropped noticeably.
	if prev.SessionCount > 0 && prev.AvgFillRate-curr.AvgFillRate >= fillDropThreshold {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Fill rate dropped",
			Message: fmt.Sprintf("Average fill rate is %.1f%% (was %.1f%%)", curr.AvgFillRate, prev.AvgFillRate),
			Time:    now,
		})
	}

	// More classes flagged for replacement than before.
	if prev.SessionCount > 0 && curr.Underperforming > prev.Underperforming {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "More underperforming classes",
			Message: fmt.Sprintf("%d classes now have replacement suggestions (was %d)", curr.Underperforming, prev.Underperforming),
			Time:    now,
		})
	}

	return alerts
}

// compareInfo detects informational changes.
func compareInfo(prev, curr *WatchState, rejected map[string]bool) []Alert {
	var alerts []Alert
	now := time.Now()

	if prev.SessionCount > 0 && curr.SessionCount > prev.SessionCount {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "New attendance data",
			Message: fmt.Sprintf("%d new sessions recorded (%d total)", curr.SessionCount-prev.SessionCount, curr.SessionCount),
			Time:    now,
		})
	}

	if prev.ScheduleSize > 0 && curr.ScheduleSize != prev.ScheduleSize {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Schedule changed",
			Message: fmt.Sprintf("Schedule now has %d classes (was %d)", curr.ScheduleSize, prev.ScheduleSize),
			Time:    now,
		})
	}

	// High-priority suggestions that no longer apply.
	for _, id := range sortedIDs(prev.HighPriority) {
		if _, still := curr.HighPriority[id]; still || rejected[id] {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   fmt.Sprintf("Resolved: %s", prev.HighPriority[id].Type),
			Message: describe(prev.HighPriority[id]),
			Time:    now,
		})
	}

	return alerts
}

// describe renders the class a suggestion targets.
func describe(s suggest.Suggestion) string {
	target := s.Suggested
	if s.Original != nil {
		target = *s.Original
	}
	out := fmt.Sprintf("%s %s %s", target.Day, target.Time, target.Format)
	if target.Trainer != "" {
		out += " with " + target.Trainer
	}
	if target.Location != "" {
		out += " at " + target.Location
	}
	return out
}

func sortedIDs(m map[string]suggest.Suggestion) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
