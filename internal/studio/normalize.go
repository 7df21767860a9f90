package studio

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// NormalizeName lowercases s and drops everything that is not a letter or a
// digit. It is the join key for trainers across profiles, schedule, and rules.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDay maps "mon", "MONDAY", "Mon." and friends to "Monday".
// Unrecognized input is returned trimmed.
func NormalizeDay(s string) string {
	trimmed := strings.TrimSpace(s)
	key := strings.ToLower(strings.TrimSuffix(trimmed, "."))
	if len(key) < 3 {
		return trimmed
	}
	for _, d := range Weekdays {
		if strings.HasPrefix(strings.ToLower(d), key[:3]) {
			return d
		}
	}
	return trimmed
}

// DayIndex returns 0 for Monday through 6 for Sunday, or -1.
func DayIndex(day string) int {
	d := NormalizeDay(day)
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// parseClock returns hour and minute for "07:00", "07:00:00", "7:00 AM",
// "7am" or "18". ok is false for anything else.
func parseClock(s string) (hour, minute int, ok bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return 0, 0, false
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(t, "am"):
		meridiem = "am"
	case strings.HasSuffix(t, "pm"):
		meridiem = "pm"
	}
	if meridiem != "" {
		t = strings.TrimSpace(strings.TrimSuffix(t, meridiem))
		t = strings.TrimSuffix(t, ".")
	}

	parts := strings.Split(t, ":")
	if len(parts) > 3 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m := 0
	if len(parts) > 1 {
		m, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, false
		}
	}

	switch meridiem {
	case "am":
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 12 {
			h += 12
		}
	}

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// NormalizeClock returns the time truncated to the minute as 24h "HH:MM".
// Unparseable input is returned trimmed so it still groups consistently.
func NormalizeClock(s string) string {
	h, m, ok := parseClock(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ClockHour returns the hour of a clock string, or -1 when it cannot be parsed.
func ClockHour(s string) int {
	h, _, ok := parseClock(s)
	if !ok {
		return -1
	}
	return h
}

// SlotKey builds the "Day HH:MM" key used for time-slot grouping.
func SlotKey(day, clock string) string {
	return NormalizeDay(day) + " " + NormalizeClock(clock)
}

// IsPeakHour reports whether hour falls in the morning (6-9) or evening
// (17-20) peak windows.
func IsPeakHour(hour int) bool {
	return (hour >= 6 && hour <= 9) || (hour >= 17 && hour <= 20)
}
