package analyzer

import (
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// Profiler builds profile sets. Each Build replaces the previous result
// wholesale; nothing is carried over between windows.
type Profiler struct {
	profiles *Profiles
}

// NewProfiler returns a Profiler with an empty profile set.
func NewProfiler() *Profiler {
	return &Profiler{profiles: NewProfiles()}
}

// Profiles returns the result of the most recent Build.
func (p *Profiler) Profiles() *Profiles {
	return p.profiles
}

// Build filters sessions to the inclusive [from, to] date window and rebuilds
// all four profile families. A zero from or to leaves that side open.
func (p *Profiler) Build(sessions []studio.HistoricalSession, from, to time.Time) *Profiles {
	p.profiles = NewProfiles()

	filtered := FilterByDate(sessions, from, to)
	if len(filtered) == 0 {
		return p.profiles
	}

	normalized := normalizeSessions(filtered)

	buildTrainerProfiles(p.profiles, normalized)
	buildFormatProfiles(p.profiles, normalized)
	buildTimeSlotProfiles(p.profiles, normalized)
	buildLocationProfiles(p.profiles, normalized)

	return p.profiles
}

// BuildProfiles is the stateless form of Profiler.Build.
func BuildProfiles(sessions []studio.HistoricalSession, from, to time.Time) *Profiles {
	return NewProfiler().Build(sessions, from, to)
}

// FilterByDate returns the sessions whose date falls inside [from, to],
// comparing calendar dates only. Sessions without a date are kept only when
// both bounds are open.
func FilterByDate(sessions []studio.HistoricalSession, from, to time.Time) []studio.HistoricalSession {
	if from.IsZero() && to.IsZero() {
		return sessions
	}

	lo, hi := dateOnly(from), dateOnly(to)
	var result []studio.HistoricalSession
	for _, s := range sessions {
		if s.Date.IsZero() {
			continue
		}
		d := dateOnly(s.Date)
		if !from.IsZero() && d.Before(lo) {
			continue
		}
		if !to.IsZero() && d.After(hi) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// normalizeSessions returns a copy with canonical day, clock, and trimmed names.
func normalizeSessions(sessions []studio.HistoricalSession) []studio.HistoricalSession {
	out := make([]studio.HistoricalSession, len(sessions))
	for i, s := range sessions {
		s.Trainer = strings.TrimSpace(s.Trainer)
		s.Format = strings.TrimSpace(s.Format)
		s.Location = strings.TrimSpace(s.Location)
		s.Day = studio.NormalizeDay(s.Day)
		s.Time = studio.NormalizeClock(s.Time)
		out[i] = s
	}
	return out
}

// summarize computes the shared Performance block for a group of sessions.
func summarize(sessions []studio.HistoricalSession) Performance {
	if len(sessions) == 0 {
		return Performance{}
	}
	fills := make([]float64, len(sessions))
	checkIns := make([]float64, len(sessions))
	revenue := make([]float64, len(sessions))
	total := 0
	for i, s := range sessions {
		fills[i] = s.FillRate()
		checkIns[i] = float64(s.CheckedIn)
		revenue[i] = s.Revenue
		total += s.CheckedIn
	}
	return Performance{
		Sessions:      len(sessions),
		AvgFillRate:   stats.Average(fills),
		AvgCheckIns:   stats.Average(checkIns),
		TotalCheckIns: total,
		Revenue:       stats.SumMoney(revenue),
	}
}

func fillRates(sessions []studio.HistoricalSession) []float64 {
	fills := make([]float64, len(sessions))
	for i, s := range sessions {
		fills[i] = s.FillRate()
	}
	return fills
}

// consistency is 100 minus the fill-rate stddev, clamped to [0, 100].
func consistency(sessions []studio.HistoricalSession) float64 {
	return stats.Clamp(100-stats.StandardDeviation(fillRates(sessions)), 0, 100)
}

// trendThreshold is the fill-rate gap (in points) between halves that counts
// as a real change.
const trendThreshold = 5.0

// computeTrend compares the average fill rate of the older half of a group
// against the newer half. Sessions are ordered by date first so the split is
// chronological regardless of input order.
func computeTrend(sessions []studio.HistoricalSession) Trend {
	if len(sessions) < 2 {
		return TrendStable
	}
	ordered := make([]studio.HistoricalSession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	mid := len(ordered) / 2
	first := stats.Average(fillRates(ordered[:mid]))
	second := stats.Average(fillRates(ordered[mid:]))

	switch diff := second - first; {
	case diff > trendThreshold:
		return TrendImproving
	case diff < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// performanceBy groups sessions by key and summarizes each group.
func performanceBy(sessions []studio.HistoricalSession, key func(studio.HistoricalSession) string) map[string]Performance {
	groups := stats.GroupBy(sessions, key)
	out := make(map[string]Performance, groups.Len())
	for _, k := range groups.Keys() {
		out[k] = summarize(groups.Get(k))
	}
	return out
}

// betterPerformance orders by fill rate, then sample size. Callers break
// remaining ties on a name so results are deterministic.
func betterPerformance(a, b Performance) (better bool, tie bool) {
	if a.AvgFillRate != b.AvgFillRate {
		return a.AvgFillRate > b.AvgFillRate, false
	}
	if a.Sessions != b.Sessions {
		return a.Sessions > b.Sessions, false
	}
	return false, true
}

// topByFrequency returns up to n values ordered by how often they occur,
// ties resolved by first appearance.
func topByFrequency(values []string, n int) []string {
	groups := stats.GroupBy(values, func(v string) string { return v })
	keys := append([]string(nil), groups.Keys()...)
	sort.SliceStable(keys, func(i, j int) bool {
		return len(groups.Get(keys[i])) > len(groups.Get(keys[j]))
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
