// Package analyzer builds trainer, format, time-slot, and location performance
// profiles from historical class sessions.
package analyzer

import (
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// Minimum session counts before a group is trusted enough to profile.
const (
	MinTrainerSessions     = 3
	MinFormatSessions      = 3
	MinTimeSlotSessions    = 2
	MinCombinationSessions = 2
	MinRankedSessions      = 2
)

// List sizes kept on each profile.
const (
	maxBestCombinations = 10
	maxTypicalDays      = 5
	maxTypicalTimes     = 6
	maxTopTrainers      = 5
	maxBestTimeSlots    = 5
	maxTopFormats       = 5
	maxWorstFormats     = 3
)

// Trend is the direction of fill rate across a profile's history.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Performance is the attendance summary shared by every profile and breakdown.
type Performance struct {
	// Sessions is the number of historical sessions summarized.
	Sessions int `json:"sessions"`

	// AvgFillRate is the mean per-session fill rate (0-100).
	AvgFillRate float64 `json:"avg_fill_rate"`

	// AvgCheckIns is the mean checked-in count per session.
	AvgCheckIns float64 `json:"avg_check_ins"`

	// TotalCheckIns is the sum of checked-in counts.
	TotalCheckIns int `json:"total_check_ins"`

	// Revenue is the total revenue, rounded to cents.
	Revenue float64 `json:"revenue"`
}

// Combination is a (format, day, time, location) pairing a trainer has taught.
type Combination struct {
	Format   string `json:"format"`
	Day      string `json:"day"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Performance
}

// TrainerPerformance ranks a trainer within a format.
type TrainerPerformance struct {
	Trainer        string `json:"trainer"`
	NormalizedName string `json:"normalized_name"`
	Performance
}

// FormatPerformance ranks a format within a time slot.
type FormatPerformance struct {
	Format string `json:"format"`
	Performance
}

// SlotPerformance ranks a (day, time) slot within a format.
type SlotPerformance struct {
	Day  string `json:"day"`
	Time string `json:"time"`
	Performance
}

// TrainerProfile summarizes one trainer's history. Weekly assigned hours are
// deliberately absent: they describe the live schedule, not history, and are
// passed to the suggestion engine separately.
type TrainerProfile struct {
	Name           string      `json:"name"`
	NormalizedName string      `json:"normalized_name"`
	Stats          Performance `json:"stats"`

	// Consistency is 100 minus the stddev of fill rates, clamped to [0,100].
	Consistency float64 `json:"consistency"`
	Trend       Trend   `json:"trend"`

	FormatPerformance   map[string]Performance `json:"format_performance"`
	SlotPerformance     map[string]Performance `json:"slot_performance"`
	LocationPerformance map[string]Performance `json:"location_performance"`

	// BestCombinations holds up to 10 pairings with 2+ sessions, best fill first.
	BestCombinations []Combination `json:"best_combinations"`

	TypicalDays  []string `json:"typical_days"`
	TypicalTimes []string `json:"typical_times"`
}

// FormatProfile summarizes one class format.
type FormatProfile struct {
	Name        string            `json:"name"`
	Category    studio.Category   `json:"category"`
	Difficulty  studio.Difficulty `json:"difficulty"`
	Stats       Performance       `json:"stats"`
	Consistency float64           `json:"consistency"`
	Trend       Trend             `json:"trend"`

	TopTrainers         []TrainerPerformance   `json:"top_trainers"`
	BestTimeSlots       []SlotPerformance      `json:"best_time_slots"`
	LocationPerformance map[string]Performance `json:"location_performance"`
}

// TimeSlotProfile summarizes one (day, time) slot across all locations.
type TimeSlotProfile struct {
	Key    string      `json:"key"`
	Day    string      `json:"day"`
	Time   string      `json:"time"`
	Stats  Performance `json:"stats"`
	IsPeak bool        `json:"is_peak"`

	// TopFormats is best-first; WorstFormats is worst-first.
	TopFormats   []FormatPerformance `json:"top_formats"`
	WorstFormats []FormatPerformance `json:"worst_formats"`
}

// LocationProfile summarizes one studio location.
type LocationProfile struct {
	Name  string      `json:"name"`
	Stats Performance `json:"stats"`
	Trend Trend       `json:"trend"`

	// FormatMix counts sessions per format category.
	FormatMix map[studio.Category]int `json:"format_mix"`

	// TrainerHours counts distinct day+time slots per trainer display name.
	TrainerHours map[string]int `json:"trainer_hours"`

	// PeakHours are clock hours whose average fill rate is at least 70%.
	PeakHours    []int `json:"peak_hours"`
	OffPeakHours []int `json:"off_peak_hours"`

	RevenuePerSession float64 `json:"revenue_per_session"`
}

// Profiles is the full profile set for one date window.
type Profiles struct {
	Trainers  map[string]*TrainerProfile  `json:"trainers"`
	Formats   map[string]*FormatProfile   `json:"formats"`
	TimeSlots map[string]*TimeSlotProfile `json:"time_slots"`
	Locations map[string]*LocationProfile `json:"locations"`
}

// NewProfiles returns an empty profile set with non-nil maps.
func NewProfiles() *Profiles {
	return &Profiles{
		Trainers:  make(map[string]*TrainerProfile),
		Formats:   make(map[string]*FormatProfile),
		TimeSlots: make(map[string]*TimeSlotProfile),
		Locations: make(map[string]*LocationProfile),
	}
}

// Trainer looks up a trainer profile by display or normalized name.
func (p *Profiles) Trainer(name string) *TrainerProfile {
	if p == nil {
		return nil
	}
	return p.Trainers[studio.NormalizeName(name)]
}

// Format looks up a format profile by its exact name.
func (p *Profiles) Format(name string) *FormatProfile {
	if p == nil {
		return nil
	}
	return p.Formats[name]
}

// TimeSlot looks up the profile for a day and clock time.
func (p *Profiles) TimeSlot(day, clock string) *TimeSlotProfile {
	if p == nil {
		return nil
	}
	return p.TimeSlots[studio.SlotKey(day, clock)]
}

// Location looks up a location profile by name.
func (p *Profiles) Location(name string) *LocationProfile {
	if p == nil {
		return nil
	}
	return p.Locations[name]
}

// Empty reports whether no profiles of any kind were produced.
func (p *Profiles) Empty() bool {
	return p == nil || (len(p.Trainers) == 0 && len(p.Formats) == 0 &&
		len(p.TimeSlots) == 0 && len(p.Locations) == 0)
}
