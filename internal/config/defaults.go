// Package config provides configuration loading and defaults for studiowatch.
package config

import (
	"time"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// DefaultConfigDir is the default location for studiowatch configuration.
const DefaultConfigDir = "~/.config/studiowatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "studiowatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes every environment override, e.g. STUDIOWATCH_ADVISOR_API_KEY.
const EnvPrefix = "STUDIOWATCH"

// DefaultData holds the default dataset locations.
var DefaultData = Data{
	Sessions: "./data/sessions.json",
	Schedule: "./data/schedule.json",
}

// DefaultWindowDays is how much history is profiled when nothing is set.
const DefaultWindowDays = 90

// DefaultOptimization mirrors the engine's own defaults.
var DefaultOptimization = Optimization{
	TargetTrainerHours: suggest.DefaultTargetTrainerHours,
	MaxTrainerHours:    suggest.DefaultMaxTrainerHours,
	MinDaysOff:         suggest.DefaultMinDaysOff,
	MaxSuggestions:     suggest.DefaultMaxSuggestions,
}

// DefaultAdvisor leaves the advisor off until a key is configured.
var DefaultAdvisor = Advisor{
	Enabled:           false,
	Provider:          "anthropic",
	RequestsPerMinute: 10,
}

// DefaultLog holds the default logging settings.
var DefaultLog = Log{
	Level:  "warn",
	Format: "text",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultWatch holds the default watch-mode settings.
var DefaultWatch = Watch{
	Interval: 5 * time.Minute,
}
