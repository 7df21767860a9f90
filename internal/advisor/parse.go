package advisor

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

const defaultConfidence = 50

type replyEnvelope struct {
	Suggestions []replyEntry `json:"suggestions"`
}

type replyClass struct {
	ID      string `json:"id"`
	Day     string `json:"day"`
	Time    string `json:"time"`
	Format  string `json:"format"`
	Trainer string `json:"trainer"`
}

type replyEntry struct {
	Type              string      `json:"type"`
	Priority          string      `json:"priority"`
	Confidence        float64     `json:"confidence"`
	Class             *replyClass `json:"class"`
	Suggested         replyClass  `json:"suggested"`
	ProjectedFillRate float64     `json:"projected_fill_rate"`
	Reason            string      `json:"reason"`
	Impact            string      `json:"impact"`
}

// extractJSON strips code fences and surrounding prose, returning the span
// from the first '{' or '[' to its last matching closer.
func extractJSON(reply string) (string, bool) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}

// parseReply decodes a provider reply into suggestions for the classes at
// location. Entries that cannot be tied to the schedule are dropped.
func parseReply(reply, location string, schedule []studio.ScheduledClass) ([]suggest.Suggestion, error) {
	body, ok := extractJSON(reply)
	if !ok {
		return nil, newError(CodeInvalidResponse, fmt.Sprintf("no JSON found in reply: %.200s", reply), nil)
	}

	var entries []replyEntry
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &entries); err != nil {
			return nil, newError(CodeInvalidResponse, "reply is not a suggestion array", err)
		}
	} else {
		var env replyEnvelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			return nil, newError(CodeInvalidResponse, "reply is not a suggestion object", err)
		}
		entries = env.Suggestions
	}

	var out []suggest.Suggestion
	for _, e := range entries {
		if s, ok := toSuggestion(e, location, schedule); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, newError(CodeInvalidResponse, fmt.Sprintf("reply contained no usable suggestions (%d entries)", len(entries)), nil)
	}
	return out, nil
}

func toSuggestion(e replyEntry, location string, schedule []studio.ScheduledClass) (suggest.Suggestion, bool) {
	var original *studio.ScheduledClass
	if e.Class != nil {
		original = resolveClass(*e.Class, location, schedule)
	}

	typ, known := suggest.ParseSuggestionType(e.Type)
	switch {
	case !known && original != nil:
		typ = suggest.TypeReplaceClass
	case !known:
		return suggest.Suggestion{}, false
	case typ != suggest.TypeAddClass && original == nil:
		return suggest.Suggestion{}, false
	}

	s := suggest.Suggestion{
		Type:       typ,
		Confidence: normalizeConfidence(e.Confidence),
		Reason:     strings.TrimSpace(e.Reason),
		Impact:     strings.TrimSpace(e.Impact),
		Source:     suggest.SourceAdvisor,
	}

	var base suggest.ClassState
	if original != nil && typ != suggest.TypeAddClass {
		state := suggest.StateOf(*original)
		s.Original = &state
		base = state
	} else {
		base = suggest.ClassState{Location: location}
	}
	s.Suggested = mergeState(base, e.Suggested)
	if typ == suggest.TypeAddClass && (s.Suggested.Day == "" || s.Suggested.Time == "" ||
		s.Suggested.Format == "" || s.Suggested.Trainer == "") {
		return suggest.Suggestion{}, false
	}

	if e.ProjectedFillRate > 0 {
		fill := stats.Clamp(e.ProjectedFillRate, 0, 100)
		s.Suggested.ProjectedFillRate = stats.Round1(fill)
		s.Suggested.ProjectedCheckIns = math.Round(fill*float64(s.Suggested.Capacity)/10) / 10
	}

	if p, ok := suggest.ParsePriority(e.Priority); ok {
		s.Priority = p
	} else if s.Original != nil {
		s.Priority = suggest.PriorityForFill(s.Original.FillRate)
	} else {
		s.Priority = suggest.PriorityLow
	}

	s.ID = suggest.SuggestionID(s)
	return s, true
}

func normalizeConfidence(c float64) float64 {
	if c <= 0 || math.IsNaN(c) {
		return defaultConfidence
	}
	// Some models answer on a 0-1 scale.
	if c <= 1 {
		c *= 100
	}
	return math.Round(stats.Clamp(c, 0, 100))
}

// mergeState overlays the provider's fields onto base, normalizing day and
// clock spellings.
func mergeState(base suggest.ClassState, r replyClass) suggest.ClassState {
	if r.Day != "" {
		base.Day = studio.NormalizeDay(r.Day)
	}
	if r.Time != "" {
		base.Time = studio.NormalizeClock(r.Time)
	}
	if r.Format != "" {
		base.Format = strings.TrimSpace(r.Format)
	}
	if r.Trainer != "" {
		base.Trainer = strings.TrimSpace(r.Trainer)
	}
	return base
}

// resolveClass maps a textual class reference back to a live scheduled
// class. An exact ID wins; otherwise day and time must match along with the
// format or trainer, preferring a class that matches both.
func resolveClass(ref replyClass, location string, schedule []studio.ScheduledClass) *studio.ScheduledClass {
	if ref.ID != "" {
		for i := range schedule {
			if schedule[i].ID == ref.ID {
				return &schedule[i]
			}
		}
	}
	if ref.Day == "" || ref.Time == "" {
		return nil
	}

	slot := studio.SlotKey(ref.Day, ref.Time)
	format := strings.ToLower(strings.TrimSpace(ref.Format))
	trainer := studio.NormalizeName(ref.Trainer)

	var best *studio.ScheduledClass
	bestScore := 0
	for i := range schedule {
		c := &schedule[i]
		if c.SlotKey() != slot || (location != "" && !strings.EqualFold(c.Location, location)) {
			continue
		}
		score := 0
		if format != "" && strings.ToLower(c.Format) == format {
			score++
		}
		if trainer != "" && studio.NormalizeName(c.Trainer) == trainer {
			score++
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}
