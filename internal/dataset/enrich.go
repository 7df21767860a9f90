package dataset

import (
	"strings"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

type classKey struct {
	trainer, format, slot, location string
}

func keyOf(trainer, format, slot, location string) classKey {
	return classKey{
		trainer:  studio.NormalizeName(trainer),
		format:   strings.ToLower(strings.TrimSpace(format)),
		slot:     slot,
		location: strings.ToLower(strings.TrimSpace(location)),
	}
}

// Enrich returns a copy of schedule where classes with no recorded sessions
// take their fill rate, average check-ins, and session count from matching
// history (same trainer, format, slot, and location). Classes that already
// carry a session count are left as they are.
func Enrich(schedule []studio.ScheduledClass, sessions []studio.HistoricalSession) []studio.ScheduledClass {
	byClass := make(map[classKey][]studio.HistoricalSession)
	for _, s := range sessions {
		k := keyOf(s.Trainer, s.Format, s.SlotKey(), s.Location)
		byClass[k] = append(byClass[k], s)
	}

	out := make([]studio.ScheduledClass, len(schedule))
	copy(out, schedule)
	for i := range out {
		c := &out[i]
		if c.SessionCount > 0 {
			continue
		}
		history := byClass[keyOf(c.Trainer, c.Format, c.SlotKey(), c.Location)]
		if len(history) == 0 {
			continue
		}
		fills := make([]float64, len(history))
		checkIns := make([]float64, len(history))
		for j, s := range history {
			fills[j] = s.FillRate()
			checkIns[j] = float64(s.CheckedIn)
		}
		c.SessionCount = len(history)
		c.FillRate = stats.Round1(stats.Average(fills))
		c.AvgCheckIns = stats.Round1(stats.Average(checkIns))
		if c.Capacity == 0 {
			c.Capacity = history[len(history)-1].Capacity
		}
	}
	return out
}
