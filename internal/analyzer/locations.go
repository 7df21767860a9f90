package analyzer

import (
	"math"
	"sort"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// peakFillRate is the average fill rate an hour bucket needs to count as peak.
const peakFillRate = 70.0

func buildLocationProfiles(p *Profiles, sessions []studio.HistoricalSession) {
	groups := stats.GroupBy(sessions, func(s studio.HistoricalSession) string { return s.Location })

	for _, name := range groups.Keys() {
		if name == "" {
			continue
		}
		group := groups.Get(name)
		perf := summarize(group)

		lp := &LocationProfile{
			Name:         name,
			Stats:        perf,
			Trend:        computeTrend(group),
			FormatMix:    make(map[studio.Category]int),
			TrainerHours: make(map[string]int),
		}
		if perf.Sessions > 0 {
			lp.RevenuePerSession = math.Round(perf.Revenue/float64(perf.Sessions)*100) / 100
		}

		for _, s := range group {
			lp.FormatMix[studio.CategoryOf(s.Format)]++
		}

		trainers := stats.GroupBy(group, func(s studio.HistoricalSession) string {
			return studio.NormalizeName(s.Trainer)
		})
		for _, key := range trainers.Keys() {
			if key == "" {
				continue
			}
			ts := trainers.Get(key)
			slots := make(map[string]bool)
			for _, s := range ts {
				slots[s.SlotKey()] = true
			}
			lp.TrainerHours[ts[0].Trainer] = len(slots)
		}

		lp.PeakHours, lp.OffPeakHours = splitPeakHours(group)
		p.Locations[name] = lp
	}
}

// splitPeakHours buckets sessions by clock hour and separates the buckets
// averaging at least 70% fill from the rest. Both lists are ascending.
func splitPeakHours(sessions []studio.HistoricalSession) (peak, offPeak []int) {
	buckets := stats.GroupBy(sessions, func(s studio.HistoricalSession) int {
		return studio.ClockHour(s.Time)
	})
	for _, hour := range buckets.Keys() {
		if hour < 0 {
			continue
		}
		if stats.Average(fillRates(buckets.Get(hour))) >= peakFillRate {
			peak = append(peak, hour)
		} else {
			offPeak = append(offPeak, hour)
		}
	}
	sort.Ints(peak)
	sort.Ints(offPeak)
	return peak, offPeak
}
