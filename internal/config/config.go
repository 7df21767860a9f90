package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/blackwell-systems/studiowatch/internal/dataset"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// Config is the top-level studiowatch configuration.
type Config struct {
	Data         Data         `mapstructure:"data"`
	WindowDays   int          `mapstructure:"window_days"`
	Optimization Optimization `mapstructure:"optimization"`
	Advisor      Advisor      `mapstructure:"advisor"`
	Log          Log          `mapstructure:"log"`
	Output       Output       `mapstructure:"output"`
	Watch        Watch        `mapstructure:"watch"`
}

// Data points at the dataset files.
type Data struct {
	Sessions string `mapstructure:"sessions"`
	Schedule string `mapstructure:"schedule"`
}

// Optimization is the file form of suggest.OptimizationConfig. Dates are
// written as YYYY-MM-DD.
type Optimization struct {
	TargetTrainerHours float64                 `mapstructure:"target_trainer_hours"`
	MaxTrainerHours    float64                 `mapstructure:"max_trainer_hours"`
	MinDaysOff         int                     `mapstructure:"min_days_off"`
	MaxSuggestions     int                     `mapstructure:"max_suggestions"`
	BlockedTrainers    []string                `mapstructure:"blocked_trainers"`
	PriorityTrainers   []string                `mapstructure:"priority_trainers"`
	ExcludedFormats    []string                `mapstructure:"excluded_formats"`
	LocationRules      map[string]LocationRule `mapstructure:"location_rules"`
	TrainerRules       map[string]TrainerRule  `mapstructure:"trainer_rules"`
	Leave              []Leave                 `mapstructure:"leave"`
	WeekStart          string                  `mapstructure:"week_start"`
}

// LocationRule narrows candidates at one location.
type LocationRule struct {
	ExcludedFormats []string `mapstructure:"excluded_formats"`
	BlockedTrainers []string `mapstructure:"blocked_trainers"`
	FillRateFloor   float64  `mapstructure:"fill_rate_floor"`
}

// TrainerRule overrides hour limits for one trainer.
type TrainerRule struct {
	MaxHours    float64 `mapstructure:"max_hours"`
	TargetHours float64 `mapstructure:"target_hours"`
	MinDaysOff  int     `mapstructure:"min_days_off"`
}

// Leave is a trainer's time off.
type Leave struct {
	Trainer string `mapstructure:"trainer"`
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
}

// Advisor configures the optional text-generation advisor.
type Advisor struct {
	Enabled           bool   `mapstructure:"enabled"`
	Provider          string `mapstructure:"provider"`
	Model             string `mapstructure:"model"`
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// Log configures logging.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Watch configures watch mode.
type Watch struct {
	Interval time.Duration `mapstructure:"interval"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.sessions", DefaultData.Sessions)
	v.SetDefault("data.schedule", DefaultData.Schedule)
	v.SetDefault("window_days", DefaultWindowDays)

	v.SetDefault("optimization.target_trainer_hours", DefaultOptimization.TargetTrainerHours)
	v.SetDefault("optimization.max_trainer_hours", DefaultOptimization.MaxTrainerHours)
	v.SetDefault("optimization.min_days_off", DefaultOptimization.MinDaysOff)
	v.SetDefault("optimization.max_suggestions", DefaultOptimization.MaxSuggestions)

	v.SetDefault("advisor.enabled", DefaultAdvisor.Enabled)
	v.SetDefault("advisor.provider", DefaultAdvisor.Provider)
	v.SetDefault("advisor.model", "")
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.base_url", "")
	v.SetDefault("advisor.requests_per_minute", DefaultAdvisor.RequestsPerMinute)

	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.format", DefaultLog.Format)

	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetDefault("watch.interval", DefaultWatch.Interval)
}

// Load reads configuration from the given path (or the default location),
// applies STUDIOWATCH_* environment overrides, and returns a Config with all
// defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Data.Sessions = expandPath(cfg.Data.Sessions)
	cfg.Data.Schedule = expandPath(cfg.Data.Schedule)

	if cfg.Advisor.APIKey == "" {
		cfg.Advisor.APIKey = providerKey(cfg.Advisor.Provider)
	}

	return &cfg, nil
}

// providerKey falls back to the provider's conventional environment
// variable.
func providerKey(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.WindowDays < 0 {
		errs = append(errs, errors.New("window_days must not be negative"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error"))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json"))
	}

	switch strings.ToLower(c.Advisor.Provider) {
	case "", "anthropic", "openai":
	default:
		errs = append(errs, fmt.Errorf("advisor.provider must be anthropic or openai, got %q", c.Advisor.Provider))
	}
	if c.Advisor.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("advisor.requests_per_minute must not be negative"))
	}

	if c.Watch.Interval < 0 {
		errs = append(errs, errors.New("watch.interval must not be negative"))
	}

	if _, err := c.Constraints(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}
	return nil
}

// Constraints converts the optimization section into the engine's
// constraint model.
func (c *Config) Constraints() (suggest.OptimizationConfig, error) {
	o := c.Optimization
	out := suggest.OptimizationConfig{
		TargetTrainerHours: o.TargetTrainerHours,
		MaxTrainerHours:    o.MaxTrainerHours,
		MinDaysOff:         o.MinDaysOff,
		MaxSuggestions:     o.MaxSuggestions,
		BlockedTrainers:    o.BlockedTrainers,
		PriorityTrainers:   o.PriorityTrainers,
		ExcludedFormats:    o.ExcludedFormats,
	}

	if len(o.LocationRules) > 0 {
		out.LocationRules = make(map[string]suggest.LocationRule, len(o.LocationRules))
		for name, r := range o.LocationRules {
			out.LocationRules[name] = suggest.LocationRule{
				ExcludedFormats: r.ExcludedFormats,
				BlockedTrainers: r.BlockedTrainers,
				FillRateFloor:   r.FillRateFloor,
			}
		}
	}
	if len(o.TrainerRules) > 0 {
		out.TrainerRules = make(map[string]suggest.TrainerRule, len(o.TrainerRules))
		for name, r := range o.TrainerRules {
			out.TrainerRules[name] = suggest.TrainerRule{
				MaxHours:    r.MaxHours,
				TargetHours: r.TargetHours,
				MinDaysOff:  r.MinDaysOff,
			}
		}
	}

	for i, l := range o.Leave {
		if strings.TrimSpace(l.Trainer) == "" {
			return out, fmt.Errorf("optimization.leave[%d]: trainer is required", i)
		}
		period := suggest.LeavePeriod{Trainer: l.Trainer}
		var err error
		if l.From != "" {
			if period.From, err = dataset.ParseDate(l.From); err != nil {
				return out, fmt.Errorf("optimization.leave[%d].from: %w", i, err)
			}
		}
		if l.To != "" {
			if period.To, err = dataset.ParseDate(l.To); err != nil {
				return out, fmt.Errorf("optimization.leave[%d].to: %w", i, err)
			}
		}
		out.LeavePeriods = append(out.LeavePeriods, period)
	}

	if o.WeekStart != "" {
		ws, err := dataset.ParseDate(o.WeekStart)
		if err != nil {
			return out, fmt.Errorf("optimization.week_start: %w", err)
		}
		out.WeekStart = ws
	}

	return out, nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
