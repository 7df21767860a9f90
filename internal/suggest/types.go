// Package suggest turns profiles and the live schedule into ranked,
// constraint-respecting schedule change suggestions.
package suggest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// SuggestionType is the kind of schedule change a suggestion proposes.
type SuggestionType string

const (
	TypeReplaceClass   SuggestionType = "replace_class"
	TypeReplaceTrainer SuggestionType = "replace_trainer"
	TypeAddClass       SuggestionType = "add_class"
	TypeRemoveClass    SuggestionType = "remove_class"
	TypeSwapTime       SuggestionType = "swap_time"
	TypeDuplicateClass SuggestionType = "duplicate_class"
)

// SuggestionTypes lists every known type.
var SuggestionTypes = []SuggestionType{
	TypeReplaceClass, TypeReplaceTrainer, TypeAddClass,
	TypeRemoveClass, TypeSwapTime, TypeDuplicateClass,
}

// ParseSuggestionType matches s case-insensitively against the known types.
func ParseSuggestionType(s string) (SuggestionType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range SuggestionTypes {
		if string(t) == key {
			return t, true
		}
	}
	return "", false
}

// Priority orders suggestions; lower values rank first.
type Priority int

const (
	PriorityHigh Priority = iota + 1
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// MarshalText encodes the priority as its name so JSON carries "high",
// "medium", or "low".
func (p Priority) MarshalText() ([]byte, error) {
	if p < PriorityHigh || p > PriorityLow {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, ok := ParsePriority(string(text))
	if !ok {
		return fmt.Errorf("invalid priority %q", string(text))
	}
	*p = parsed
	return nil
}

// ParsePriority reads a priority name case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	}
	return 0, false
}

// PriorityForFill maps a class's current fill rate to a priority:
// high below 40, medium below 55, low otherwise.
func PriorityForFill(fill float64) Priority {
	switch {
	case fill < 40:
		return PriorityHigh
	case fill < 55:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Suggestion sources.
const (
	SourceRules   = "rules"
	SourceAdvisor = "advisor"
)

// ClassState describes a class before or after a proposed change.
type ClassState struct {
	ClassID           string  `json:"class_id,omitempty"`
	Day               string  `json:"day"`
	Time              string  `json:"time"`
	Format            string  `json:"format"`
	Trainer           string  `json:"trainer"`
	Location          string  `json:"location"`
	Capacity          int     `json:"capacity"`
	FillRate          float64 `json:"fill_rate"`
	CheckIns          float64 `json:"check_ins"`
	ProjectedFillRate float64 `json:"projected_fill_rate,omitempty"`
	ProjectedCheckIns float64 `json:"projected_check_ins,omitempty"`
}

// StateOf snapshots a scheduled class.
func StateOf(c studio.ScheduledClass) ClassState {
	return ClassState{
		ClassID:  c.ID,
		Day:      c.Day,
		Time:     c.Time,
		Format:   c.Format,
		Trainer:  c.Trainer,
		Location: c.Location,
		Capacity: c.Capacity,
		FillRate: c.FillRate,
		CheckIns: c.AvgCheckIns,
	}
}

// Suggestion is one proposed, unapplied change to the schedule.
type Suggestion struct {
	ID         string         `json:"id"`
	Type       SuggestionType `json:"type"`
	Priority   Priority       `json:"priority"`
	Confidence float64        `json:"confidence"`

	// Original is nil for additions.
	Original  *ClassState `json:"original,omitempty"`
	Suggested ClassState  `json:"suggested"`

	Reason     string   `json:"reason"`
	Impact     string   `json:"impact"`
	DataPoints []string `json:"data_points,omitempty"`
	Source     string   `json:"source"`
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/blackwell-systems/studiowatch/suggestion"))

// SuggestionID derives a stable UUIDv5 from what a suggestion changes, so the
// same proposal gets the same ID across runs and rule stages.
func SuggestionID(s Suggestion) string {
	originalID := ""
	if s.Original != nil {
		originalID = s.Original.ClassID
	}
	key := strings.Join([]string{
		string(s.Type),
		originalID,
		studio.NormalizeName(s.Suggested.Trainer),
		strings.ToLower(s.Suggested.Format),
		studio.NormalizeDay(s.Suggested.Day),
		studio.NormalizeClock(s.Suggested.Time),
		s.Suggested.Location,
	}, "|")
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// OptimizationContext is everything a rule reads. Rules never modify the
// schedule, config, or profiles; they only record what they propose.
type OptimizationContext struct {
	Schedule []studio.ScheduledClass
	Config   OptimizationConfig
	Profiles *analyzer.Profiles

	// TrainerHours holds current weekly hours keyed by normalized trainer
	// name. When nil, the engine derives it from Schedule.
	TrainerHours map[string]float64

	// proposed holds the hours and slots handed to trainers by suggestions
	// already emitted in this run.
	proposed *proposals
}

// Rule examines the context and produces zero or more suggestions.
type Rule func(ctx *OptimizationContext) []Suggestion

// Result is the full output of one optimization pass.
type Result struct {
	Suggestions         []Suggestion    `json:"suggestions"`
	TrainerHoursSummary []TrainerHours  `json:"trainer_hours_summary"`
	FormatMixImpact     FormatMix       `json:"format_mix_impact"`
	ProjectedImpact     ProjectedImpact `json:"projected_impact"`
	Insights            []string        `json:"insights"`
}
