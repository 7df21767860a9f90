package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"plain fence", "```\n[1,2]\n```", `[1,2]`, true},
		{"prose around", "Sure! {\"a\":{\"b\":2}} Hope this helps.", `{"a":{"b":2}}`, true},
		{"array first", "Result: [ {\"a\":1} ] done", `[ {"a":1} ]`, true},
		{"nothing", "no json here", "", false},
		{"unclosed", "{ oops", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.in)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReply_BareArray(t *testing.T) {
	reply := `[
		{"type": "remove_class", "class": {"id": "c3"}, "reason": "weak"},
		{"type": "add_class", "priority": "medium", "confidence": 0.7,
		 "suggested": {"day": "wed", "time": "6pm", "format": "Barre", "trainer": "C"},
		 "projected_fill_rate": 75}
	]`
	got, err := parseReply(reply, "X", testSchedule())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, suggest.TypeRemoveClass, got[0].Type)
	assert.Equal(t, "c3", got[0].Original.ClassID)
	assert.Equal(t, suggest.PriorityMedium, got[0].Priority, "derived from the 50% fill rate")
	assert.Equal(t, 50.0, got[0].Confidence)

	add := got[1]
	assert.Equal(t, suggest.TypeAddClass, add.Type)
	assert.Nil(t, add.Original)
	assert.Equal(t, "Wednesday", add.Suggested.Day)
	assert.Equal(t, "18:00", add.Suggested.Time)
	assert.Equal(t, "X", add.Suggested.Location)
	assert.Equal(t, 70.0, add.Confidence)
	assert.Equal(t, suggest.PriorityMedium, add.Priority)
}

func TestParseReply_UnknownTypes(t *testing.T) {
	reply := `{"suggestions": [
		{"type": "rebrand", "class": {"day": "Monday", "time": "18:00", "trainer": "C"},
		 "suggested": {"format": "Pilates"}},
		{"type": "rebrand", "class": {"day": "Friday", "time": "18:00"}}
	]}`
	got, err := parseReply(reply, "X", testSchedule())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, suggest.TypeReplaceClass, got[0].Type)
	assert.Equal(t, "c2", got[0].Original.ClassID)
	assert.Equal(t, "Pilates", got[0].Suggested.Format)
	assert.Equal(t, "C", got[0].Suggested.Trainer)
}

func TestParseReply_ResolvesWithinLocation(t *testing.T) {
	reply := `{"suggestions": [{"type": "replace_trainer",
		"class": {"day": "Monday", "time": "07:00", "format": "Yoga"},
		"suggested": {"trainer": "Z"}}]}`

	got, err := parseReply(reply, "Y", testSchedule())
	require.NoError(t, err)
	assert.Equal(t, "c4", got[0].Original.ClassID)

	// X has a Monday 07:00 class, but neither format nor trainer match.
	_, err = parseReply(reply, "X", testSchedule())
	assert.Equal(t, CodeInvalidResponse, CodeOf(err))
}

func TestParseReply_Invalid(t *testing.T) {
	for _, reply := range []string{
		"",
		"{not json}",
		`{"suggestions": []}`,
		`[{"type": "replace_trainer", "class": {"day": "Sunday", "time": "05:00"}}]`,
		`[{"type": "add_class", "suggested": {"day": "Monday"}}]`,
	} {
		_, err := parseReply(reply, "X", testSchedule())
		assert.Equal(t, CodeInvalidResponse, CodeOf(err), "reply %q", reply)
	}
}
