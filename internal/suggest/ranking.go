package suggest

import "sort"

// RankSuggestions orders suggestions by priority (high first), then by
// confidence descending, then by ID so equal entries sort the same way on
// every run. The input slice is not modified.
func RankSuggestions(suggestions []Suggestion) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ID < b.ID
	})
	return sorted
}

// Deduplicate collapses suggestions that share an ID, keeping the one with
// the highest confidence. First-seen order is preserved.
func Deduplicate(suggestions []Suggestion) []Suggestion {
	index := make(map[string]int, len(suggestions))
	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.ID == "" {
			s.ID = SuggestionID(s)
		}
		if i, ok := index[s.ID]; ok {
			if s.Confidence > out[i].Confidence {
				out[i] = s
			}
			continue
		}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	return out
}

// Truncate keeps at most n suggestions. n <= 0 keeps everything.
func Truncate(suggestions []Suggestion, n int) []Suggestion {
	if n <= 0 || len(suggestions) <= n {
		return suggestions
	}
	return suggestions[:n]
}
