package studio

import "strings"

// Category is the coarse family a class format belongs to.
type Category string

const (
	CategoryYoga       Category = "yoga"
	CategoryPilates    Category = "pilates"
	CategoryHIIT       Category = "hiit"
	CategoryCycle      Category = "cycle"
	CategoryStrength   Category = "strength"
	CategoryBarre      Category = "barre"
	CategoryBoxing     Category = "boxing"
	CategoryDance      Category = "dance"
	CategoryCardio     Category = "cardio"
	CategoryFunctional Category = "functional"
	CategoryOther      Category = "other"
)

// Difficulty is the coarse intensity tag of a class format.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type categoryRule struct {
	category Category
	keywords []string
}

// categoryRules are checked in order; the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{CategoryCycle, []string{"cycle", "spin", "ride"}},
	{CategoryBarre, []string{"barre"}},
	{CategoryPilates, []string{"pilates", "reformer"}},
	{CategoryYoga, []string{"yoga", "vinyasa", "hatha", "yin"}},
	{CategoryBoxing, []string{"box", "kick"}},
	{CategoryHIIT, []string{"hiit", "interval", "tabata", "bootcamp"}},
	{CategoryStrength, []string{"strength", "sculpt", "lift", "pump", "weights"}},
	{CategoryDance, []string{"dance", "zumba"}},
	{CategoryCardio, []string{"cardio", "sweat", "burn"}},
	{CategoryFunctional, []string{"functional", "trx", "core", "mobility"}},
}

var advancedKeywords = []string{"advanced", "power", "intense", "extreme"}

var beginnerKeywords = []string{"beginner", "basics", "intro", "gentle", "foundations", "restorative"}

// CategoryOf classifies a format name by case-insensitive keyword match.
func CategoryOf(format string) Category {
	name := strings.ToLower(format)
	for _, rule := range categoryRules {
		if containsAny(name, rule.keywords) {
			return rule.category
		}
	}
	return CategoryOther
}

// DifficultyOf tags a format name as beginner, intermediate, or advanced.
func DifficultyOf(format string) Difficulty {
	name := strings.ToLower(format)
	switch {
	case containsAny(name, advancedKeywords):
		return DifficultyAdvanced
	case containsAny(name, beginnerKeywords):
		return DifficultyBeginner
	default:
		return DifficultyIntermediate
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
