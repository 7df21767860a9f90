package analyzer

import (
	"sort"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

func buildTimeSlotProfiles(p *Profiles, sessions []studio.HistoricalSession) {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) string { return s.SlotKey() })

	for _, key := range groups.Keys() {
		group := groups.Get(key)
		if len(group) < MinTimeSlotSessions {
			continue
		}
		ranked := rankFormats(group)

		top := ranked
		if len(top) > maxTopFormats {
			top = top[:maxTopFormats]
		}

		worst := make([]FormatPerformance, 0, maxWorstFormats)
		for i := len(ranked) - 1; i >= 0 && len(worst) < maxWorstFormats; i-- {
			worst = append(worst, ranked[i])
		}

		p.TimeSlots[key] = &TimeSlotProfile{
			Key:          key,
			Day:          group[0].Day,
			Time:         group[0].Time,
			Stats:        summarize(group),
			IsPeak:       studio.IsPeakHour(studio.ClockHour(group[0].Time)),
			TopFormats:   top,
			WorstFormats: worst,
		}
	}
}

// rankFormats orders the formats run at least twice in a slot, best first.
func rankFormats(sessions []studio.HistoricalSession) []FormatPerformance {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) string { return s.Format })

	var ranked []FormatPerformance
	for _, name := range groups.Keys() {
		group := groups.Get(name)
		if name == "" || len(group) < MinRankedSessions {
			continue
		}
		ranked = append(ranked, FormatPerformance{Format: name, Performance: summarize(group)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if better, tie := betterPerformance(ranked[i].Performance, ranked[j].Performance); !tie {
			return better
		}
		return ranked[i].Format < ranked[j].Format
	})
	return ranked
}
