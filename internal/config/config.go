package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ari/focustrack/internal/category"
)

// Config represents the application configuration
type Config struct {
	Database   string           `mapstructure:"database"`
	Tracking   TrackingConfig   `mapstructure:"tracking"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Nudges     NudgesConfig     `mapstructure:"nudges"`
	Rules      RulesConfig      `mapstructure:"rules"`
}

// TrackingConfig holds the observation and session timing parameters
type TrackingConfig struct {
	// ObservationLog is the JSONL file the capture process appends to
	ObservationLog    string        `mapstructure:"observation_log"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	MinSession        time.Duration `mapstructure:"min_session"`
}

// ThresholdsConfig holds the analyzer, scorer and nudge thresholds
type ThresholdsConfig struct {
	TimeWasting   time.Duration `mapstructure:"time_wasting"`
	BreakReminder time.Duration `mapstructure:"break_reminder"`
	FocusSession  time.Duration `mapstructure:"focus_session"`
	Distraction   time.Duration `mapstructure:"distraction"`
	NudgeCooldown time.Duration `mapstructure:"nudge_cooldown"`
	DecayHalfLife time.Duration `mapstructure:"decay_half_life"`
	FlatBand      int           `mapstructure:"flat_band"`
}

// NudgesConfig holds nudge message settings
type NudgesConfig struct {
	TipInterval time.Duration `mapstructure:"tip_interval"`
	Tips        []string      `mapstructure:"tips"`
}

// RulesConfig holds the categorization rule patterns
type RulesConfig struct {
	Productive  RuleSetConfig `mapstructure:"productive"`
	Neutral     RuleSetConfig `mapstructure:"neutral"`
	TimeWasting RuleSetConfig `mapstructure:"time_wasting"`
}

// RuleSetConfig holds the pattern lists for one category
type RuleSetConfig struct {
	Sites  []string `mapstructure:"sites"`
	Apps   []string `mapstructure:"apps"`
	Titles []string `mapstructure:"titles"`
}

// CategoryRules converts the configured patterns into categorizer rules
func (c *Config) CategoryRules() category.Rules {
	conv := func(r RuleSetConfig) category.RuleSet {
		return category.RuleSet{Sites: r.Sites, Apps: r.Apps, Titles: r.Titles}
	}
	return category.Rules{
		Productive:  conv(c.Rules.Productive),
		Neutral:     conv(c.Rules.Neutral),
		TimeWasting: conv(c.Rules.TimeWasting),
	}
}

// defaultTips is the built-in focus tip list
var defaultTips = []string{
	"Try the Pomodoro technique: 25 minutes of work followed by a 5-minute break.",
	"Take a short walk to refresh your mind and boost productivity.",
	"Stay hydrated! Drinking water helps maintain focus.",
	"Consider using website blockers for your most distracting sites.",
	"Set specific goals for this work session to stay on track.",
	"Close unnecessary tabs and apps to minimize distractions.",
	"Use noise-canceling headphones or ambient sounds for better focus.",
	"Break large tasks into smaller, manageable chunks.",
	"Reward yourself after completing focused work sessions.",
	"Turn off notifications during deep work periods.",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tracking.poll_interval", "5s")
	// Default timeout is 5x the poll interval
	v.SetDefault("tracking.inactivity_timeout", "25s")
	v.SetDefault("tracking.tick_interval", "5s")
	v.SetDefault("tracking.min_session", "0s")

	v.SetDefault("thresholds.time_wasting", "15m")
	v.SetDefault("thresholds.break_reminder", "50m")
	v.SetDefault("thresholds.focus_session", "25m")
	v.SetDefault("thresholds.distraction", "15m")
	v.SetDefault("thresholds.nudge_cooldown", "10m")
	v.SetDefault("thresholds.decay_half_life", "2h")
	v.SetDefault("thresholds.flat_band", 2)

	v.SetDefault("nudges.tip_interval", "1h")
	v.SetDefault("nudges.tips", defaultTips)

	v.SetDefault("rules.productive.apps", []string{"code.exe", "goland", "pycharm", "terminal"})
	v.SetDefault("rules.productive.sites", []string{"github.com", "stackoverflow.com"})
	v.SetDefault("rules.neutral.apps", []string{"explorer.exe", "finder"})
	v.SetDefault("rules.time_wasting.sites", []string{"youtube.com", "instagram.com", "twitter.com", "facebook.com"})
	v.SetDefault("rules.time_wasting.apps", []string{"steam.exe"})
}

// LoadConfig loads configuration from the specified path or default location.
// A missing config file yields the documented defaults; an unreadable or
// invalid one is an error.
func LoadConfig(configPath string) (*Config, error) {
	viperInstance := viper.New()
	setDefaults(viperInstance)

	path := configPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".focustrack", "config.toml")
	}

	viperInstance.SetConfigFile(path)
	if err := viperInstance.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		// No config file: run on defaults
	}

	var cfg Config
	if err := viperInstance.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with. It runs
// before any observation is processed so bad thresholds never silently fall
// back to defaults.
func (c *Config) Validate() error {
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"tracking.poll_interval", c.Tracking.PollInterval},
		{"tracking.inactivity_timeout", c.Tracking.InactivityTimeout},
		{"tracking.tick_interval", c.Tracking.TickInterval},
		{"thresholds.time_wasting", c.Thresholds.TimeWasting},
		{"thresholds.break_reminder", c.Thresholds.BreakReminder},
		{"thresholds.focus_session", c.Thresholds.FocusSession},
		{"thresholds.distraction", c.Thresholds.Distraction},
		{"thresholds.nudge_cooldown", c.Thresholds.NudgeCooldown},
		{"thresholds.decay_half_life", c.Thresholds.DecayHalfLife},
		{"nudges.tip_interval", c.Nudges.TipInterval},
	}
	for _, entry := range durations {
		if entry.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", entry.name, entry.d)
		}
	}
	if c.Tracking.MinSession < 0 {
		return fmt.Errorf("tracking.min_session must not be negative, got %s", c.Tracking.MinSession)
	}
	if c.Thresholds.FlatBand < 0 {
		return fmt.Errorf("thresholds.flat_band must not be negative, got %d", c.Thresholds.FlatBand)
	}
	if c.CategoryRules().Empty() {
		return fmt.Errorf("rules must contain at least one pattern")
	}
	return nil
}

// GetDatabasePath returns the database path, using default if not specified
func (c *Config) GetDatabasePath() string {
	if c.Database != "" {
		return c.Database
	}
	// Default: ~/.focustrack/focus.db
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "~/.focustrack/focus.db"
	}
	return filepath.Join(homeDir, ".focustrack", "focus.db")
}

// GetObservationLogPath returns the observation log path, using default if
// not specified
func (c *Config) GetObservationLogPath() string {
	if c.Tracking.ObservationLog != "" {
		return c.Tracking.ObservationLog
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "~/.focustrack/observations.jsonl"
	}
	return filepath.Join(homeDir, ".focustrack", "observations.jsonl")
}
