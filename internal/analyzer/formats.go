package analyzer

import (
	"sort"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

func buildFormatProfiles(p *Profiles, sessions []studio.HistoricalSession) {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) string { return s.Format })

	for _, name := range groups.Keys() {
		if name == "" {
			continue
		}
		group := groups.Get(name)
		if len(group) < MinFormatSessions {
			continue
		}
		p.Formats[name] = &FormatProfile{
			Name:          name,
			Category:      studio.CategoryOf(name),
			Difficulty:    studio.DifficultyOf(name),
			Stats:         summarize(group),
			Consistency:   consistency(group),
			Trend:         computeTrend(group),
			TopTrainers:   topTrainers(group),
			BestTimeSlots: bestTimeSlots(group),
			LocationPerformance: performanceBy(group, func(s studio.HistoricalSession) string {
				return s.Location
			}),
		}
	}
}

// topTrainers ranks trainers who taught the format at least twice.
func topTrainers(sessions []studio.HistoricalSession) []TrainerPerformance {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) string {
		return studio.NormalizeName(s.Trainer)
	})

	var ranked []TrainerPerformance
	for _, key := range groups.Keys() {
		group := groups.Get(key)
		if key == "" || len(group) < MinRankedSessions {
			continue
		}
		ranked = append(ranked, TrainerPerformance{
			Trainer:        group[0].Trainer,
			NormalizedName: key,
			Performance:    summarize(group),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if better, tie := betterPerformance(ranked[i].Performance, ranked[j].Performance); !tie {
			return better
		}
		return ranked[i].NormalizedName < ranked[j].NormalizedName
	})
	if len(ranked) > maxTopTrainers {
		ranked = ranked[:maxTopTrainers]
	}
	return ranked
}

// bestTimeSlots ranks the (day, time) slots where the format ran at least twice.
func bestTimeSlots(sessions []studio.HistoricalSession) []SlotPerformance {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) string { return s.SlotKey() })

	var ranked []SlotPerformance
	for _, key := range groups.Keys() {
		group := groups.Get(key)
		if len(group) < MinRankedSessions {
			continue
		}
		ranked = append(ranked, SlotPerformance{
			Day:         group[0].Day,
			Time:        group[0].Time,
			Performance: summarize(group),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if better, tie := betterPerformance(ranked[i].Performance, ranked[j].Performance); !tie {
			return better
		}
		return studio.SlotKey(ranked[i].Day, ranked[i].Time) < studio.SlotKey(ranked[j].Day, ranked[j].Time)
	})
	if len(ranked) > maxBestTimeSlots {
		ranked = ranked[:maxBestTimeSlots]
	}
	return ranked
}
