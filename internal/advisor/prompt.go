package advisor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

const (
	maxContextTrainers = 15
	maxContextFormats  = 10
	maxTrainerFormats  = 3
)

// ScheduleContext is the condensed slice of schedule and profiles sent to
// the provider.
type ScheduleContext struct {
	Day      string           `json:"day,omitempty"`
	Location string           `json:"location"`
	Classes  []ClassSummary   `json:"classes"`
	Trainers []TrainerSummary `json:"candidate_trainers"`
	Formats  []FormatSummary  `json:"top_formats"`
}

type ClassSummary struct {
	ID       string  `json:"id"`
	Day      string  `json:"day"`
	Time     string  `json:"time"`
	Format   string  `json:"format"`
	Trainer  string  `json:"trainer"`
	Capacity int     `json:"capacity"`
	FillRate float64 `json:"fill_rate"`
	Sessions int     `json:"sessions"`
}

type TrainerSummary struct {
	Name        string   `json:"name"`
	AvgFillRate float64  `json:"avg_fill_rate"`
	Sessions    int      `json:"sessions_at_location"`
	BestFormats []string `json:"best_formats"`
	Trend       string   `json:"trend"`
}

type FormatSummary struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	AvgFillRate float64 `json:"avg_fill_rate"`
	Sessions    int     `json:"sessions"`
}

// BuildContext condenses the schedule for one location, and one day when day
// is set. Candidate trainers must have taught at the location.
func BuildContext(day, location string, schedule []studio.ScheduledClass, profiles *analyzer.Profiles) ScheduleContext {
	sc := ScheduleContext{
		Location: location,
		Classes:  []ClassSummary{},
		Trainers: []TrainerSummary{},
		Formats:  []FormatSummary{},
	}
	if day != "" {
		sc.Day = studio.NormalizeDay(day)
	}

	for _, c := range schedule {
		if !strings.EqualFold(c.Location, location) {
			continue
		}
		if sc.Day != "" && studio.NormalizeDay(c.Day) != sc.Day {
			continue
		}
		sc.Classes = append(sc.Classes, ClassSummary{
			ID:       c.ID,
			Day:      studio.NormalizeDay(c.Day),
			Time:     studio.NormalizeClock(c.Time),
			Format:   c.Format,
			Trainer:  c.Trainer,
			Capacity: c.Capacity,
			FillRate: stats.Round1(c.FillRate),
			Sessions: c.SessionCount,
		})
	}
	sort.SliceStable(sc.Classes, func(i, j int) bool {
		a, b := sc.Classes[i], sc.Classes[j]
		if da, db := studio.DayIndex(a.Day), studio.DayIndex(b.Day); da != db {
			return da < db
		}
		return a.Time < b.Time
	})

	if profiles == nil {
		return sc
	}

	for _, tp := range profiles.Trainers {
		perf, ok := tp.LocationPerformance[location]
		if !ok || perf.Sessions == 0 {
			continue
		}
		sc.Trainers = append(sc.Trainers, TrainerSummary{
			Name:        tp.Name,
			AvgFillRate: stats.Round1(perf.AvgFillRate),
			Sessions:    perf.Sessions,
			BestFormats: bestFormats(tp),
			Trend:       string(tp.Trend),
		})
	}
	sort.Slice(sc.Trainers, func(i, j int) bool {
		if sc.Trainers[i].AvgFillRate != sc.Trainers[j].AvgFillRate {
			return sc.Trainers[i].AvgFillRate > sc.Trainers[j].AvgFillRate
		}
		return sc.Trainers[i].Name < sc.Trainers[j].Name
	})
	if len(sc.Trainers) > maxContextTrainers {
		sc.Trainers = sc.Trainers[:maxContextTrainers]
	}

	for _, fp := range profiles.Formats {
		perf := fp.Stats
		if local, ok := fp.LocationPerformance[location]; ok && local.Sessions > 0 {
			perf = local
		}
		sc.Formats = append(sc.Formats, FormatSummary{
			Name:        fp.Name,
			Category:    string(fp.Category),
			AvgFillRate: stats.Round1(perf.AvgFillRate),
			Sessions:    perf.Sessions,
		})
	}
	sort.Slice(sc.Formats, func(i, j int) bool {
		if sc.Formats[i].AvgFillRate != sc.Formats[j].AvgFillRate {
			return sc.Formats[i].AvgFillRate > sc.Formats[j].AvgFillRate
		}
		return sc.Formats[i].Name < sc.Formats[j].Name
	})
	if len(sc.Formats) > maxContextFormats {
		sc.Formats = sc.Formats[:maxContextFormats]
	}
	return sc
}

func bestFormats(tp *analyzer.TrainerProfile) []string {
	names := make([]string, 0, len(tp.FormatPerformance))
	for name := range tp.FormatPerformance {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := tp.FormatPerformance[names[i]], tp.FormatPerformance[names[j]]
		if a.AvgFillRate != b.AvgFillRate {
			return a.AvgFillRate > b.AvgFillRate
		}
		return names[i] < names[j]
	})
	if len(names) > maxTrainerFormats {
		names = names[:maxTrainerFormats]
	}
	return names
}

const systemPrompt = `You are a scheduling analyst for a group fitness studio. You are given the current classes at one location, the trainers who have taught there with their historical fill rates, and the best-performing class formats.

Propose concrete changes that raise attendance. Rules:
- Only propose trainers from candidate_trainers and formats from top_formats.
- Never put a trainer in two classes at the same day and time.
- Ground every reason in the numbers provided.
- Reply with JSON only, matching the schema below.

Output schema:
{
  "suggestions": [
    {
      "type": "replace_class | replace_trainer | add_class | remove_class | swap_time | duplicate_class",
      "priority": "high | medium | low",
      "confidence": 0-100,
      "class": {"id": "existing class id", "day": "Monday", "time": "07:00", "format": "...", "trainer": "..."},
      "suggested": {"day": "Monday", "time": "07:00", "format": "...", "trainer": "..."},
      "projected_fill_rate": 0-100,
      "reason": "why",
      "impact": "expected effect"
    }
  ]
}

Omit "class" for add_class.`

// userPrompt renders the context as the user message.
func userPrompt(sc ScheduleContext) (string, error) {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling schedule context: %w", err)
	}
	scope := "the full week"
	if sc.Day != "" {
		scope = sc.Day
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Location: %s (%s)\n\n", sc.Location, scope))
	sb.WriteString(fmt.Sprintf("- Current classes: %d\n", len(sc.Classes)))
	sb.WriteString(fmt.Sprintf("- Candidate trainers: %d\n", len(sc.Trainers)))
	sb.WriteString(fmt.Sprintf("- Formats considered: %d\n\n", len(sc.Formats)))
	sb.WriteString("## Data\n\n```json\n")
	sb.Write(data)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
