package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"agendacal/internal/model"
)

// SourceConfig describes a single ICS subscription source.
type SourceConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone; every event timestamp is
	// normalized into it before comparison (e.g. "Europe/Madrid").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday opens week-based views.
	// Supported values: "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// rebuilding the event store in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound the feed-expansion window around
	// "now": how far ahead and how far back events are materialized.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// EventsFile is an optional path to a JSON file with a bare array of
	// raw event records, the static site's original data source.
	EventsFile string `yaml:"events_file" json:"events_file"`

	// TrackedViews lists the view kinds subject to empty-window
	// auto-navigation. Empty means the list views.
	TrackedViews []string `yaml:"tracked_views" json:"tracked_views"`

	// ICS is the list of subscribed ICS sources.
	ICS []SourceConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "UTC",
		WeekStart:    "monday",
		RefreshCron:  "*/15 * * * *",
		HorizonDays:  60,
		BackfillDays: 7,
		TrackedViews: trackedViewDefaults(),
		ICS:          []SourceConfig{},
		BasicAuth:    nil,
	}
}

func trackedViewDefaults() []string {
	return []string{
		string(model.ViewListDay),
		string(model.ViewListWeek),
		string(model.ViewListMonth),
	}
}

// Normalize fills missing or invalid values with defaults so that
// partially-filled configs from older versions keep working.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 60
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}

	// Keep only known view kinds; an empty result falls back to defaults.
	known := make(map[string]bool)
	for _, k := range model.KnownViewKinds() {
		known[string(k)] = true
	}
	views := c.TrackedViews[:0]
	for _, v := range c.TrackedViews {
		if known[v] {
			views = append(views, v)
		}
	}
	c.TrackedViews = views
	if len(c.TrackedViews) == 0 {
		c.TrackedViews = trackedViewDefaults()
	}

	if c.ICS == nil {
		c.ICS = []SourceConfig{}
	}
}

// Location resolves the configured timezone, falling back to time.Local on
// an unknown name.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// TrackedViewKinds returns the tracked views as typed kinds.
func (c *Config) TrackedViewKinds() []model.ViewKind {
	kinds := make([]model.ViewKind, 0, len(c.TrackedViews))
	for _, v := range c.TrackedViews {
		kinds = append(kinds, model.ViewKind(v))
	}
	return kinds
}

// Load reads configuration from the given YAML path. A missing file is a
// first run: the parent directory is created, a default config is written
// with 0600 permissions, and the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename in
// the same directory) with 0600 permissions, creating the parent directory
// as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".agendacal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save, so callers that mutate a loaded
// config can write it back in one call.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
