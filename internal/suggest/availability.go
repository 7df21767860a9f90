package suggest

import (
	"math"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// MinLocationSessions is how many sessions a trainer needs at a location
// before they are proposed there.
const MinLocationSessions = 2

// HoursFromSchedule counts the distinct day+time slots each trainer teaches,
// keyed by normalized name. One slot is one hour.
func HoursFromSchedule(schedule []studio.ScheduledClass) map[string]float64 {
	slots := make(map[string]map[string]bool)
	for _, c := range schedule {
		key := studio.NormalizeName(c.Trainer)
		if key == "" {
			continue
		}
		if slots[key] == nil {
			slots[key] = make(map[string]bool)
		}
		slots[key][c.SlotKey()] = true
	}
	hours := make(map[string]float64, len(slots))
	for k, s := range slots {
		hours[k] = float64(len(s))
	}
	return hours
}

// hours returns the trainer's current weekly hours.
func (ctx *OptimizationContext) hours(trainer string) float64 {
	return ctx.TrainerHours[studio.NormalizeName(trainer)]
}

// proposals is the running tally of what earlier suggestions in a run have
// already given each trainer, keyed by normalized name.
type proposals struct {
	hours map[string]float64
	slots map[string]map[string]bool
	ids   map[string]bool
}

func newProposals() *proposals {
	return &proposals{
		hours: make(map[string]float64),
		slots: make(map[string]map[string]bool),
		ids:   make(map[string]bool),
	}
}

// claimed reports whether an identical proposal was already recorded.
func (ctx *OptimizationContext) claimed(s Suggestion) bool {
	return ctx.proposed != nil && ctx.proposed.ids[SuggestionID(s)]
}

// proposedHours returns hours already proposed for trainer in this run.
func (ctx *OptimizationContext) proposedHours(trainer string) float64 {
	if ctx.proposed == nil {
		return 0
	}
	return ctx.proposed.hours[studio.NormalizeName(trainer)]
}

// hourGain is how many weekly hours s adds to its suggested trainer.
func hourGain(s Suggestion) float64 {
	switch s.Type {
	case TypeAddClass, TypeDuplicateClass:
		return 1
	case TypeRemoveClass:
		return 0
	}
	if s.Original != nil && studio.NormalizeName(s.Original.Trainer) == studio.NormalizeName(s.Suggested.Trainer) {
		return 0
	}
	return 1
}

// claim records the hour and slot s gives its trainer so later candidates
// in the same run see them, and returns s unchanged. An identical proposal
// is only counted once.
func (ctx *OptimizationContext) claim(s Suggestion) Suggestion {
	if s.Type == TypeRemoveClass || s.Suggested.Trainer == "" || ctx.claimed(s) {
		return s
	}
	if ctx.proposed == nil {
		ctx.proposed = newProposals()
	}
	ctx.proposed.ids[SuggestionID(s)] = true
	key := studio.NormalizeName(s.Suggested.Trainer)
	ctx.proposed.hours[key] += hourGain(s)
	if ctx.proposed.slots[key] == nil {
		ctx.proposed.slots[key] = make(map[string]bool)
	}
	ctx.proposed.slots[key][studio.SlotKey(s.Suggested.Day, s.Suggested.Time)] = true
	return s
}

// Admissible reports whether s respects the hard constraints: its trainer
// is not blocked at the location, not on leave that day, not teaching that
// slot elsewhere, and stays within max hours counting what earlier
// suggestions in the run already proposed. Its format must not be excluded.
// Removals and repeats of an already admitted proposal always pass.
func Admissible(ctx *OptimizationContext, s Suggestion) bool {
	if s.Type == TypeRemoveClass || ctx.claimed(s) {
		return true
	}
	cfg := ctx.Config
	at := s.Suggested
	if cfg.FormatExcluded(at.Format, at.Location) {
		return false
	}
	if at.Trainer == "" {
		return true
	}
	if cfg.IsBlocked(at.Trainer, at.Location) || cfg.OnLeave(at.Trainer, at.Day) {
		return false
	}
	except := ""
	if s.Original != nil {
		except = s.Original.ClassID
	}
	if ctx.teachingAt(at.Trainer, at.Day, at.Time, except) {
		return false
	}
	return ctx.hours(at.Trainer)+ctx.proposedHours(at.Trainer)+hourGain(s) <= cfg.MaxHoursFor(at.Trainer)
}

// Admit drops candidates that break a hard constraint once accepted is
// taken into account. Admitted candidates count against later ones.
func Admit(ctx *OptimizationContext, accepted, candidates []Suggestion) []Suggestion {
	prepared := prepare(ctx)
	for _, s := range accepted {
		prepared.claim(s)
	}
	var out []Suggestion
	for _, s := range candidates {
		if Admissible(prepared, s) {
			out = append(out, prepared.claim(s))
		}
	}
	return out
}

// teachingAt reports whether trainer already teaches at day+time, or was
// proposed there earlier in the run, ignoring the class identified by
// exceptID.
func (ctx *OptimizationContext) teachingAt(trainer, day, clock, exceptID string) bool {
	key := studio.NormalizeName(trainer)
	slot := studio.SlotKey(day, clock)
	if ctx.proposed != nil && ctx.proposed.slots[key][slot] {
		return true
	}
	for _, c := range ctx.Schedule {
		if exceptID != "" && c.ID == exceptID {
			continue
		}
		if studio.NormalizeName(c.Trainer) == key && c.SlotKey() == slot {
			return true
		}
	}
	return false
}

// teaches reports whether trainer is the current trainer of class id.
func (ctx *OptimizationContext) teaches(trainer, id string) bool {
	key := studio.NormalizeName(trainer)
	for _, c := range ctx.Schedule {
		if c.ID == id && studio.NormalizeName(c.Trainer) == key {
			return true
		}
	}
	return false
}

// daysTeaching returns the set of weekdays trainer currently teaches on.
func (ctx *OptimizationContext) daysTeaching(trainer string) map[string]bool {
	key := studio.NormalizeName(trainer)
	days := make(map[string]bool)
	for _, c := range ctx.Schedule {
		if studio.NormalizeName(c.Trainer) == key {
			days[studio.NormalizeDay(c.Day)] = true
		}
	}
	return days
}

// slot is where a candidate trainer would teach.
type slot struct {
	day, time, location string

	// replacing is the ID of the class the trainer would take over, if any.
	replacing string
}

func slotOf(c studio.ScheduledClass) slot {
	return slot{day: c.Day, time: c.Time, location: c.Location, replacing: c.ID}
}

// available applies the filters shared by every rule: not blocked, not on
// leave, not double-booked, within the hour ceiling once this run's earlier
// proposals and this class are counted, and with enough history at the
// location.
func (ctx *OptimizationContext) available(tp *analyzer.TrainerProfile, at slot) bool {
	if tp == nil {
		return false
	}
	cfg := ctx.Config
	name := tp.Name
	if cfg.IsBlocked(name, at.location) {
		return false
	}
	if cfg.OnLeave(name, at.day) {
		return false
	}
	if ctx.teachingAt(name, at.day, at.time, at.replacing) {
		return false
	}
	gain := 1.0
	if at.replacing != "" && ctx.teaches(name, at.replacing) {
		gain = 0
	}
	if ctx.hours(name)+ctx.proposedHours(name)+gain > cfg.MaxHoursFor(name) {
		return false
	}
	return tp.LocationPerformance[at.location].Sessions >= MinLocationSessions
}

// Confidence maps supporting session counts to a 40-90 score.
func Confidence(sessions int) float64 {
	return math.Round(math.Min(90, 40+5*float64(sessions)))
}

// projectedCheckIns scales a fill rate to a class capacity.
func projectedCheckIns(fill float64, capacity int) float64 {
	return math.Round(fill*float64(capacity)/100*10) / 10
}
