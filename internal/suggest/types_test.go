package suggest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority_JSON(t *testing.T) {
	s := Suggestion{Type: TypeAddClass, Priority: PriorityMedium, Source: SourceRules}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"priority":"medium"`)
	assert.Contains(t, string(data), `"type":"add_class"`)
	assert.NotContains(t, string(data), `"original"`)

	var back Suggestion
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, PriorityMedium, back.Priority)
}

func TestPriority_InvalidRejected(t *testing.T) {
	_, err := json.Marshal(Suggestion{})
	assert.Error(t, err)

	var p Priority
	assert.Error(t, p.UnmarshalText([]byte("urgent")))
}

func TestPriorityForFill(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityForFill(39.9))
	assert.Equal(t, PriorityMedium, PriorityForFill(40))
	assert.Equal(t, PriorityMedium, PriorityForFill(54.9))
	assert.Equal(t, PriorityLow, PriorityForFill(55))
}

func TestParseSuggestionType(t *testing.T) {
	typ, ok := ParseSuggestionType(" Replace_Trainer ")
	assert.True(t, ok)
	assert.Equal(t, TypeReplaceTrainer, typ)

	_, ok = ParseSuggestionType("move_class")
	assert.False(t, ok)
}

func TestSuggestionID(t *testing.T) {
	orig := ClassState{ClassID: "c1"}
	a := Suggestion{Type: TypeReplaceTrainer, Original: &orig,
		Suggested: ClassState{Trainer: "Anna Lee", Format: "HIIT", Day: "Mon", Time: "7:00 AM", Location: "X"}}
	b := Suggestion{Type: TypeReplaceTrainer, Original: &orig,
		Suggested: ClassState{Trainer: "anna-lee", Format: "hiit", Day: "Monday", Time: "07:00", Location: "X"}}

	assert.Equal(t, SuggestionID(a), SuggestionID(b), "equivalent spellings share an ID")

	c := b
	c.Type = TypeReplaceClass
	assert.NotEqual(t, SuggestionID(b), SuggestionID(c))
	assert.Len(t, SuggestionID(a), 36)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 40.0, Confidence(0))
	assert.Equal(t, 65.0, Confidence(5))
	assert.Equal(t, 90.0, Confidence(10))
	assert.Equal(t, 90.0, Confidence(50))
}

func TestDeduplicate_KeepsHighestConfidence(t *testing.T) {
	orig := ClassState{ClassID: "c1"}
	low := Suggestion{Type: TypeReplaceTrainer, Original: &orig, Suggested: ClassState{Trainer: "A"}, Confidence: 50, Priority: PriorityLow}
	high := low
	high.Confidence = 80
	other := Suggestion{Type: TypeRemoveClass, Original: &orig, Confidence: 60, Priority: PriorityLow}

	got := Deduplicate([]Suggestion{low, other, high})
	require.Len(t, got, 2)
	assert.Equal(t, 80.0, got[0].Confidence)
	assert.Equal(t, TypeRemoveClass, got[1].Type)
}

func TestRankSuggestions(t *testing.T) {
	in := []Suggestion{
		{ID: "b", Priority: PriorityLow, Confidence: 90},
		{ID: "c", Priority: PriorityHigh, Confidence: 50},
		{ID: "a", Priority: PriorityHigh, Confidence: 50},
		{ID: "d", Priority: PriorityHigh, Confidence: 80},
	}
	got := RankSuggestions(in)
	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"d", "a", "c", "b"}, ids)
	assert.Equal(t, "b", in[0].ID, "input is not reordered")
}
