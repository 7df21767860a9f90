package analyzer

import (
	"sort"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

func buildTrainerProfiles(p *Profiles, sessions []studio.HistoricalSession) {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) string {
		return studio.NormalizeName(s.Trainer)
	})

	for _, key := range groups.Keys() {
		if key == "" {
			continue
		}
		group := groups.Get(key)
		if len(group) < MinTrainerSessions {
			continue
		}
		p.Trainers[key] = buildTrainerProfile(key, group)
	}
}

func buildTrainerProfile(key string, sessions []studio.HistoricalSession) *TrainerProfile {
	days := make([]string, len(sessions))
	times := make([]string, len(sessions))
	for i, s := range sessions {
		days[i] = s.Day
		times[i] = s.Time
	}

	return &TrainerProfile{
		Name:           sessions[0].Trainer,
		NormalizedName: key,
		Stats:          summarize(sessions),
		Consistency:    consistency(sessions),
		Trend:          computeTrend(sessions),
		FormatPerformance: performanceBy(sessions, func(s studio.HistoricalSession) string {
			return s.Format
		}),
		SlotPerformance: performanceBy(sessions, func(s studio.HistoricalSession) string {
			return s.SlotKey()
		}),
		LocationPerformance: performanceBy(sessions, func(s studio.HistoricalSession) string {
			return s.Location
		}),
		BestCombinations: bestCombinations(sessions),
		TypicalDays:      topByFrequency(days, maxTypicalDays),
		TypicalTimes:     topByFrequency(times, maxTypicalTimes),
	}
}

type comboKey struct {
	format, day, time, location string
}

// bestCombinations ranks the trainer's (format, day, time, location) pairings
// that recur at least twice.
func bestCombinations(sessions []studio.HistoricalSession) []Combination {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) comboKey {
		return comboKey{s.Format, s.Day, s.Time, s.Location}
	})

	var combos []Combination
	for _, k := range groups.Keys() {
		group := groups.Get(k)
		if len(group) < MinCombinationSessions {
			continue
		}
		combos = append(combos, Combination{
			Format:      k.format,
			Day:         k.day,
			Time:        k.time,
			Location:    k.location,
			Performance: summarize(group),
		})
	}

	sort.SliceStable(combos, func(i, j int) bool {
		if better, tie := betterPerformance(combos[i].Performance, combos[j].Performance); !tie {
			return better
		}
		return combos[i].Format+combos[i].Day+combos[i].Time+combos[i].Location <
			combos[j].Format+combos[j].Day+combos[j].Time+combos[j].Location
	})

	if len(combos) > maxBestCombinations {
		combos = combos[:maxBestCombinations]
	}
	return combos
}
